package app_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mbank/internal/app"
	"mbank/internal/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mbank.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadConfig_FromFile(t *testing.T) {
	home := t.TempDir()
	path := writeConfig(t, `
env: dev
home: `+home+`
api:
  base_url: http://localhost:8080/v1
checksum:
  key: from-file
storage:
  driver: memory
`)

	cfg, err := app.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:8080/v1" || cfg.Checksum.Key != "from-file" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.API.Timeout != 10*time.Second {
		t.Fatalf("default timeout = %v", cfg.API.Timeout)
	}
	if cfg.Storage.Dir != home {
		t.Fatalf("storage dir = %q, want home %q", cfg.Storage.Dir, home)
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: http://localhost:8080/v1
  timeout: 3s
checksum:
  key: from-file
`)
	t.Setenv("MBANK_CHECKSUM_KEY", "from-env")
	t.Setenv("MBANK_HOME", t.TempDir())

	cfg, err := app.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Checksum.Key != "from-env" {
		t.Fatalf("checksum key = %q", cfg.Checksum.Key)
	}
	if cfg.API.Timeout != 3*time.Second || cfg.Env != "prod" || cfg.Storage.Driver != app.DriverFile {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := app.Config{
		Env:      "prod",
		API:      app.APIConfig{BaseURL: "http://localhost"},
		Checksum: app.ChecksumConfig{Key: "k"},
		Storage:  app.StorageConfig{Driver: app.DriverMemory},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	cases := map[string]func(*app.Config){
		"no base url":    func(c *app.Config) { c.API.BaseURL = "" },
		"no key":         func(c *app.Config) { c.Checksum.Key = "" },
		"bad driver":     func(c *app.Config) { c.Storage.Driver = "sqlite" },
		"bad env":        func(c *app.Config) { c.Env = "staging" },
		"negative limit": func(c *app.Config) { c.API.Timeout = -time.Second },
	}
	for name, mutate := range cases {
		cfg := valid
		mutate(&cfg)
		if err := cfg.Validate(); !errors.Is(err, domain.ErrConfiguration) {
			t.Fatalf("%s: err = %v, want ErrConfiguration", name, err)
		}
	}
}

func TestNewWire_AndClose(t *testing.T) {
	dir := t.TempDir()
	cfg := app.Config{
		Env:      "dev",
		API:      app.APIConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second},
		Checksum: app.ChecksumConfig{Key: "s3cr3t-checksum-key"},
		Storage:  app.StorageConfig{Driver: app.DriverFile, Dir: dir},
		Metrics:  app.MetricsConfig{Textfile: filepath.Join(dir, "mbank.prom")},
	}

	var logs strings.Builder
	w, err := app.NewWire(context.Background(), cfg, app.Options{Passphrase: "pass", LogOutput: &logs})
	if err != nil {
		t.Fatalf("NewWire: %v", err)
	}
	if err := w.Session.Hydrate(context.Background()); err != nil {
		t.Fatalf("Hydrate: %v", err)
	}

	// Nothing listens on port 1: the call is counted as a connection problem.
	res := w.API.GetAccount(context.Background(), "abc")
	if res.IsOK() {
		t.Fatal("GetAccount against a closed port succeeded")
	}
	if err := w.Storage.Set(context.Background(), domain.KeyBalance, "1.00"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if strings.Contains(logs.String(), cfg.Checksum.Key) {
		t.Fatal("checksum key leaked into logs")
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	b, err := os.ReadFile(cfg.Metrics.Textfile)
	if err != nil {
		t.Fatalf("metrics textfile: %v", err)
	}
	if !strings.Contains(string(b), `mbank_api_requests_total{kind="cannot-connect",operation="getAccount"} 1`) {
		t.Fatalf("textfile:\n%s", b)
	}

	if _, err := app.NewWire(context.Background(), cfg, app.Options{Passphrase: "other"}); err == nil {
		t.Fatal("NewWire accepted the wrong passphrase")
	}
}
