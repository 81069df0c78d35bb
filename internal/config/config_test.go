package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
server:
  port: "9090"
redis:
  addr: localhost:6379
bus:
  kind: redis
  room: room-7
client:
  participant_id: p1
  fallback_delay: 3s
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Bus.Kind != "redis" || cfg.Bus.Room != "room-7" {
		t.Fatalf("unexpected bus config: %+v", cfg.Bus)
	}
	if got := Duration(cfg.Client.FallbackDelay, time.Second); got != 3*time.Second {
		t.Fatalf("expected 3s fallback delay, got %s", got)
	}
	if cfg.Log.Level != "debug" || cfg.Avatar.Size != 64 || cfg.NATS.MaxReconnects != -1 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestLoadMissingFileUsesDefaultsAndEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("PARTICIPANT_ID", "p9")
	t.Setenv("AVATAR_API_KEY", "k1")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Log.Level != "warn" || cfg.Client.ParticipantID != "p9" || cfg.Avatar.APIKey != "k1" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.Bus.Kind != "memory" || cfg.Bus.Room != "default" {
		t.Fatalf("unexpected bus defaults: %+v", cfg.Bus)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unterminated"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected yaml error")
	}
}

func TestDuration(t *testing.T) {
	if got := Duration("", time.Minute); got != time.Minute {
		t.Fatalf("empty should fall back, got %s", got)
	}
	if got := Duration("nope", time.Minute); got != time.Minute {
		t.Fatalf("invalid should fall back, got %s", got)
	}
	if got := Duration("250ms", time.Minute); got != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %s", got)
	}
}
