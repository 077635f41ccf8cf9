package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  address: 127.0.0.1
  port: 9090
  db_path: /tmp/forum-db
session:
  expiry: 48h
board:
  max_content_size: 64KB
  root_content: "hello"
sweeper:
  enabled: true
  cron: "*/5 * * * *"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Addr() != "127.0.0.1:9090" {
		t.Fatalf("Addr = %q", cfg.Addr())
	}
	if cfg.Session.Expiry.Duration() != 48*time.Hour {
		t.Fatalf("expiry = %v", cfg.Session.Expiry.Duration())
	}
	if cfg.Board.MaxContentSize.Int64() != 64000 {
		t.Fatalf("max content size = %d", cfg.Board.MaxContentSize.Int64())
	}
	if !cfg.Sweeper.Enabled || cfg.Sweeper.Cron != "*/5 * * * *" {
		t.Fatalf("sweeper config = %+v", cfg.Sweeper)
	}
}

func TestExpiryNumericSeconds(t *testing.T) {
	path := writeConfig(t, "session:\n  expiry: 3600\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Session.Expiry.Duration() != time.Hour {
		t.Fatalf("numeric expiry = %v, want 1h", cfg.Session.Expiry.Duration())
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FORUM_ADDR", "0.0.0.0:7777")
	t.Setenv("FORUM_DB_PATH", "/tmp/env-db")
	t.Setenv("FORUM_SESSION_EXPIRY", "7200")
	t.Setenv("FORUM_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg := &Config{}
	if !LoadEnvOverrides(cfg) {
		t.Fatalf("env overrides not detected")
	}
	if cfg.Addr() != "0.0.0.0:7777" {
		t.Fatalf("Addr = %q", cfg.Addr())
	}
	if cfg.Server.DBPath != "/tmp/env-db" {
		t.Fatalf("db path = %q", cfg.Server.DBPath)
	}
	if cfg.Session.Expiry.Duration() != 2*time.Hour {
		t.Fatalf("expiry = %v", cfg.Session.Expiry.Duration())
	}
	if len(cfg.Security.CORS.AllowedOrigins) != 2 {
		t.Fatalf("origins = %v", cfg.Security.CORS.AllowedOrigins)
	}
}

func TestEnvExpiryDurationString(t *testing.T) {
	t.Setenv("FORUM_SESSION_EXPIRY", "90m")
	cfg := &Config{}
	LoadEnvOverrides(cfg)
	if cfg.Session.Expiry.Duration() != 90*time.Minute {
		t.Fatalf("expiry = %v", cfg.Session.Expiry.Duration())
	}
}

func TestEnvExpiryInvalidIsFatalViaValidate(t *testing.T) {
	t.Setenv("FORUM_SESSION_EXPIRY", "soon")
	cfg := &Config{}
	LoadEnvOverrides(cfg)
	if err := cfg.Validate(); err == nil {
		t.Fatalf("invalid expiry passed validation")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("missing expiry passed validation")
	}

	cfg.Session.Expiry = Duration(time.Hour)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cfg.Server.TLS.CertFile = "cert.pem"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("cert without key passed validation")
	}
	cfg.Server.TLS.KeyFile = "key.pem"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("paired TLS rejected: %v", err)
	}
}
