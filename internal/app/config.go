package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"mbank/internal/domain"
)

const (
	envDev  = "dev"
	envProd = "prod"

	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Config holds runtime wiring options for building the app. Values come from
// an optional YAML file; environment variables always win.
type Config struct {
	Env      string         `yaml:"env" env:"MBANK_ENV" env-default:"prod" env-description:"dev or prod"`
	Home     string         `yaml:"home" env:"MBANK_HOME" env-description:"state directory, default $HOME/.mbank"`
	API      APIConfig      `yaml:"api"`
	Checksum ChecksumConfig `yaml:"checksum"`
	Storage  StorageConfig  `yaml:"storage"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url" env:"MBANK_API_BASE_URL" env-default:"http://localhost:8080/v1" env-description:"bank API base URL"`
	Timeout time.Duration `yaml:"timeout" env:"MBANK_API_TIMEOUT" env-default:"10s"`
}

type ChecksumConfig struct {
	// Key signs transaction requests. It is a shared secret; keep it out of
	// files that ship with the client.
	Key string `yaml:"key" env:"MBANK_CHECKSUM_KEY" env-description:"HMAC key for transaction checksums"`
}

type StorageConfig struct {
	Driver string      `yaml:"driver" env:"MBANK_STORAGE_DRIVER" env-default:"file" env-description:"file, redis or memory"`
	Dir    string      `yaml:"dir" env:"MBANK_STORAGE_DIR" env-description:"directory of the encrypted file, default Home"`
	Redis  RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"MBANK_REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"MBANK_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"MBANK_REDIS_DB"`
	Prefix   string `yaml:"prefix" env:"MBANK_REDIS_PREFIX" env-default:"mbank"`
}

type MetricsConfig struct {
	// Textfile, when set, receives the client metrics on Close in the
	// node_exporter textfile format.
	Textfile string `yaml:"textfile" env:"MBANK_METRICS_TEXTFILE"`
}

// LoadConfig reads path (if not empty) and the environment, fills derived
// defaults and validates the result.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if cfg.Home == "" {
		dir, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("load config: %w", err)
		}
		cfg.Home = filepath.Join(dir, ".mbank")
	}
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = cfg.Home
	}
	return cfg, cfg.Validate()
}

// Validate reports wiring defects. All of them wrap domain.ErrConfiguration.
func (c Config) Validate() error {
	switch {
	case c.API.BaseURL == "":
		return fmt.Errorf("%w: api.base_url (MBANK_API_BASE_URL) is required", domain.ErrConfiguration)
	case c.Checksum.Key == "":
		return fmt.Errorf("%w: checksum.key (MBANK_CHECKSUM_KEY) is required", domain.ErrConfiguration)
	case c.API.Timeout < 0:
		return fmt.Errorf("%w: api.timeout must not be negative", domain.ErrConfiguration)
	case c.Env != envDev && c.Env != envProd:
		return fmt.Errorf("%w: unknown env %q", domain.ErrConfiguration, c.Env)
	}
	switch c.Storage.Driver {
	case DriverFile, DriverRedis, DriverMemory:
	default:
		return fmt.Errorf("%w: unknown storage driver %q", domain.ErrConfiguration, c.Storage.Driver)
	}
	return nil
}

// Usage describes every environment variable the config understands.
func Usage() string {
	var cfg Config
	u, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return ""
	}
	return u
}
