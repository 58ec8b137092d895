package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"mbank/internal/bankapi"
	"mbank/internal/crypto"
	"mbank/internal/domain"
	sessionsvc "mbank/internal/services/session"
	"mbank/internal/store"
)

// SecureStorage is a SecureStore that holds resources.
type SecureStorage interface {
	domain.SecureStore
	io.Closer
}

// Wire bundles the stores, services and clients for the CLI.
type Wire struct {
	Config   Config
	Logger   *slog.Logger
	Storage  SecureStorage
	Signer   *crypto.Signer
	Registry *prometheus.Registry
	API      *bankapi.Client
	Session  *sessionsvc.Store
}

// Options are the inputs that do not come from Config.
type Options struct {
	// Passphrase unlocks encrypted storage.
	Passphrase string
	// LogOutput defaults to io.Discard.
	LogOutput io.Writer
	// HTTP is optional; the API client builds its own when nil.
	HTTP *http.Client
}

// NewWire constructs the dependency graph from cfg. The session store is
// returned un-hydrated.
func NewWire(ctx context.Context, cfg Config, opts Options) (*Wire, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	out := opts.LogOutput
	if out == nil {
		out = io.Discard
	}
	logger := SetupLogger(cfg.Env, out)

	signer, err := crypto.NewSigner(cfg.Checksum.Key)
	if err != nil {
		return nil, err
	}

	storage, err := openStorage(ctx, cfg, opts.Passphrase)
	if err != nil {
		signer.Wipe()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	api, err := bankapi.New(bankapi.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		HTTP:    opts.HTTP,
		Signer:  signer,
		Logger:  logger,
		Metrics: bankapi.NewMetrics(reg),
	})
	if err != nil {
		signer.Wipe()
		_ = storage.Close()
		return nil, err
	}

	logger.Debug("wired",
		"storage", cfg.Storage.Driver,
		"api", cfg.API.BaseURL,
		"checksum_key", signer.Fingerprint(),
	)

	return &Wire{
		Config:   cfg,
		Logger:   logger,
		Storage:  storage,
		Signer:   signer,
		Registry: reg,
		API:      api,
		Session:  sessionsvc.New(api, storage, logger),
	}, nil
}

func openStorage(ctx context.Context, cfg Config, passphrase string) (SecureStorage, error) {
	switch cfg.Storage.Driver {
	case DriverMemory:
		return store.NewMemoryStore(), nil
	case DriverRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.Redis.Addr,
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
		s, err := store.NewRedisStore(ctx, rdb, cfg.Storage.Redis.Prefix, passphrase)
		if err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("open redis storage: %w", err)
		}
		return s, nil
	default:
		s, err := store.NewSecureFileStore(cfg.Storage.Dir, passphrase)
		if err != nil {
			return nil, fmt.Errorf("open secure storage: %w", err)
		}
		return s, nil
	}
}

// Close tears the session down, wipes secrets, closes storage and writes the
// metrics textfile when configured.
func (w *Wire) Close() error {
	w.Session.Teardown()
	w.Signer.Wipe()

	var errs []error
	if err := w.Storage.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}
	if path := w.Config.Metrics.Textfile; path != "" {
		if err := prometheus.WriteToTextfile(path, w.Registry); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	return errors.Join(errs...)
}
