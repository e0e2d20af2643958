package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("listen addr = %q", cfg.Server.ListenAddr)
	}
	if cfg.Assign.DefaultMaxConcurrent != 5 {
		t.Errorf("default max concurrent = %d", cfg.Assign.DefaultMaxConcurrent)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  listen_addr: ":9090"
  read_timeout: 30s
redis:
  addr: "redis-1:6379"
auth:
  jwt_secret: "file-secret"
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.ListenAddr != ":9090" {
		t.Errorf("listen addr = %q, want :9090", cfg.Server.ListenAddr)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("read timeout = %v, want 30s", cfg.Server.ReadTimeout)
	}
	if cfg.Redis.Addr != "redis-1:6379" {
		t.Errorf("redis addr = %q", cfg.Redis.Addr)
	}
	if cfg.Auth.JWTSecret != "file-secret" {
		t.Errorf("jwt secret = %q", cfg.Auth.JWTSecret)
	}
	// Untouched sections keep their defaults.
	if cfg.NATS.URL != "nats://localhost:4222" {
		t.Errorf("nats url = %q", cfg.NATS.URL)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("redis:\n  addr: \"from-file:6379\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("REDIS_ADDR", "from-env:6379")
	t.Setenv("JWT_SECRET", "env-secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Redis.Addr != "from-env:6379" {
		t.Errorf("redis addr = %q, want env override", cfg.Redis.Addr)
	}
	if cfg.Auth.JWTSecret != "env-secret" {
		t.Errorf("jwt secret = %q, want env override", cfg.Auth.JWTSecret)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
