package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const minimalYAML = `
signing:
  active_key_id: "k1"
  secret: "dev-only-secret"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_Minimal(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("ListenAddress = %q, want %q", cfg.Server.ListenAddress, DefaultListenAddress)
	}
	if cfg.Nonce.Mode != DefaultNonceMode {
		t.Errorf("Nonce.Mode = %q, want %q", cfg.Nonce.Mode, DefaultNonceMode)
	}
	if cfg.Nonce.TTL != DefaultNonceTTL {
		t.Errorf("Nonce.TTL = %v, want %v", cfg.Nonce.TTL, DefaultNonceTTL)
	}
	if !cfg.Nonce.SweepEnabled {
		t.Error("SweepEnabled = false, want default true")
	}
	if cfg.Ledger.Backend != DefaultLedgerBackend {
		t.Errorf("Ledger.Backend = %q, want %q", cfg.Ledger.Backend, DefaultLedgerBackend)
	}
	if !cfg.Ledger.SQLiteWALMode {
		t.Error("SQLiteWALMode = false, want default true")
	}
	if cfg.Signing.ActiveKeyID != "k1" {
		t.Errorf("ActiveKeyID = %q, want k1", cfg.Signing.ActiveKeyID)
	}
	if cfg.Telemetry.Logging.Level != "info" || cfg.Telemetry.Logging.Format != "json" {
		t.Errorf("logging defaults = %q/%q", cfg.Telemetry.Logging.Level, cfg.Telemetry.Logging.Format)
	}
	if !cfg.Telemetry.Metrics.Enabled || cfg.Telemetry.Metrics.Path != DefaultMetricsPath {
		t.Errorf("metrics defaults = %v/%q", cfg.Telemetry.Metrics.Enabled, cfg.Telemetry.Metrics.Path)
	}
}

func TestLoadConfig_FullOverrides(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
server:
  listen_address: "0.0.0.0:9000"
  read_timeout: 5s
nonce:
  mode: "auto"
  backend: "sqlite"
  sqlite_path: "/tmp/nonces.db"
  ttl: 2m
  sweep_schedule: "0 * * * *"
  sweep_enabled: false
ledger:
  backend: "memory"
signing:
  active_key_id: "k2"
  secret: "s"
  retired_keys:
    - id: "k1"
      secret: "old"
telemetry:
  logging:
    level: "debug"
    format: "text"
`))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9000" {
		t.Errorf("ListenAddress = %q", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v, want 5s", cfg.Server.ReadTimeout)
	}
	if cfg.Nonce.Mode != "auto" || cfg.Nonce.Backend != "sqlite" {
		t.Errorf("nonce = %q/%q", cfg.Nonce.Mode, cfg.Nonce.Backend)
	}
	if cfg.Nonce.TTL != 2*time.Minute {
		t.Errorf("TTL = %v, want 2m", cfg.Nonce.TTL)
	}
	if cfg.Nonce.SweepEnabled {
		t.Error("explicit sweep_enabled: false was overridden")
	}
	if cfg.Ledger.Backend != "memory" {
		t.Errorf("Ledger.Backend = %q", cfg.Ledger.Backend)
	}
	if len(cfg.Signing.RetiredKeys) != 1 || cfg.Signing.RetiredKeys[0].ID != "k1" {
		t.Errorf("RetiredKeys = %+v", cfg.Signing.RetiredKeys)
	}
	if cfg.Telemetry.Logging.Level != "debug" || cfg.Telemetry.Logging.Format != "text" {
		t.Errorf("logging = %q/%q", cfg.Telemetry.Logging.Level, cfg.Telemetry.Logging.Format)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		if _, err := LoadConfig(writeConfig(t, "signing: [")); err == nil {
			t.Error("expected error for malformed yaml")
		}
	})

	t.Run("missing secret fails validation", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, `
signing:
  active_key_id: "k1"
`))
		if err == nil {
			t.Fatal("expected validation error")
		}
		if !strings.Contains(err.Error(), "ARBITER_SIGNING_KEY") {
			t.Errorf("error should point at the environment variable, got: %v", err)
		}
	})
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	t.Setenv("ARBITER_SERVER_LISTEN_ADDRESS", "127.0.0.1:7000")
	t.Setenv("ARBITER_NONCE_MODE", "auto")
	t.Setenv("ARBITER_NONCE_TTL", "90s")
	t.Setenv("ARBITER_SIGNING_KEY", "env-secret")
	t.Setenv("ARBITER_METRICS_ENABLED", "false")

	cfg, err := LoadConfigWithEnvOverrides(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}

	if cfg.Server.ListenAddress != "127.0.0.1:7000" {
		t.Errorf("ListenAddress = %q, env override not applied", cfg.Server.ListenAddress)
	}
	if cfg.Nonce.Mode != "auto" {
		t.Errorf("Nonce.Mode = %q, env override not applied", cfg.Nonce.Mode)
	}
	if cfg.Nonce.TTL != 90*time.Second {
		t.Errorf("Nonce.TTL = %v, want 90s", cfg.Nonce.TTL)
	}
	if cfg.Signing.Secret != "env-secret" {
		t.Error("signing secret from environment not applied")
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("ARBITER_METRICS_ENABLED=false not applied")
	}
}

func TestDefaultConfigWithEnvOverrides(t *testing.T) {
	t.Setenv("ARBITER_SIGNING_KEY", "env-secret")

	cfg, err := DefaultConfigWithEnvOverrides()
	if err != nil {
		t.Fatalf("DefaultConfigWithEnvOverrides() error = %v", err)
	}
	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("ListenAddress = %q", cfg.Server.ListenAddress)
	}
	if cfg.Signing.Secret != "env-secret" {
		t.Error("signing secret from environment not applied")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		ApplyDefaults(cfg)
		cfg.Signing.Secret = "s"
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad listen address", func(c *Config) { c.Server.ListenAddress = "no-port" }, "server.listen_address"},
		{"bad nonce mode", func(c *Config) { c.Nonce.Mode = "optional" }, "nonce.mode"},
		{"bad nonce backend", func(c *Config) { c.Nonce.Backend = "redis" }, "nonce.backend"},
		{"zero ttl", func(c *Config) { c.Nonce.TTL = 0 }, "nonce.ttl"},
		{"bad cron", func(c *Config) { c.Nonce.SweepSchedule = "not-cron" }, "nonce.sweep_schedule"},
		{"bad ledger backend", func(c *Config) { c.Ledger.Backend = "postgres" }, "ledger.backend"},
		{"empty key id", func(c *Config) { c.Signing.ActiveKeyID = "" }, "signing.active_key_id"},
		{"empty secret", func(c *Config) { c.Signing.Secret = "" }, "signing.secret"},
		{
			"retired key duplicates active",
			func(c *Config) {
				c.Signing.RetiredKeys = []RetiredKey{{ID: c.Signing.ActiveKeyID, Secret: "x"}}
			},
			"signing.retired_keys[0].id",
		},
		{"bad log level", func(c *Config) { c.Telemetry.Logging.Level = "trace" }, "telemetry.logging.level"},
		{"bad log format", func(c *Config) { c.Telemetry.Logging.Format = "xml" }, "telemetry.logging.format"},
		{"bad metrics path", func(c *Config) { c.Telemetry.Metrics.Path = "metrics" }, "telemetry.metrics.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error type = %T, want ValidationError", err)
			}
			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("no error for field %q in %v", tt.field, verr.Errors)
			}
		})
	}

	t.Run("valid config passes", func(t *testing.T) {
		if err := Validate(valid()); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})

	t.Run("errors accumulate", func(t *testing.T) {
		cfg := valid()
		cfg.Server.ListenAddress = ""
		cfg.Signing.Secret = ""

		err := Validate(cfg)
		var verr ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("error type = %T", err)
		}
		if len(verr.Errors) < 2 {
			t.Errorf("len(Errors) = %d, want at least 2", len(verr.Errors))
		}
	})
}
