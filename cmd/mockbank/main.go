package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mbank/internal/app"
	"mbank/internal/mockbank"
)

type config struct {
	Env         string        `env:"MOCKBANK_ENV" env-default:"dev" env-description:"dev or prod (log format)"`
	Addr        string        `env:"MOCKBANK_ADDR" env-default:":8080" env-description:"listen address"`
	ChecksumKey string        `env:"MBANK_CHECKSUM_KEY" env-required:"true" env-description:"shared checksum signing key"`
	TokenSecret string        `env:"MOCKBANK_TOKEN_SECRET" env-default:"mockbank-dev-secret" env-description:"JWT signing secret"`
	AccessTTL   time.Duration `env:"MOCKBANK_ACCESS_TTL" env-default:"15m" env-description:"access token lifetime"`
	RefreshTTL  time.Duration `env:"MOCKBANK_REFRESH_TTL" env-default:"168h" env-description:"refresh token lifetime"`
}

func main() {
	var cfg config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		help, _ := cleanenv.GetDescription(&cfg, nil)
		log.Fatalf("config: %v\n%s", err, help)
	}
	logger := app.SetupLogger(cfg.Env, os.Stderr)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	bank, err := mockbank.NewBank(mockbank.DefaultSeeds())
	if err != nil {
		log.Fatalf("seed bank: %v", err)
	}
	srv, err := mockbank.NewServer(bank, mockbank.Config{
		ChecksumKey: cfg.ChecksumKey,
		TokenSecret: cfg.TokenSecret,
		AccessTTL:   cfg.AccessTTL,
		RefreshTTL:  cfg.RefreshTTL,
		Logger:      logger,
		Registerer:  reg,
	})
	if err != nil {
		log.Fatal(err)
	}

	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	srv.Register(r.PathPrefix("/v1").Subrouter())

	hs := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hs.Shutdown(shutdownCtx)
	}()

	logger.Info("mockbank listening", "addr", cfg.Addr, "customers", len(mockbank.DefaultSeeds()))
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
