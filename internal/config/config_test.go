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
catalog:
  dir: ./data
  ttl: 30s
redis:
  addr: localhost:6379
quiz:
  timeLimit: 300
  autoAdvanceDelay: 250ms
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Catalog.Dir != "./data" || cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Quiz.TimeLimit != 300 {
		t.Fatalf("expected time limit 300, got %d", cfg.Quiz.TimeLimit)
	}
	if d := TTLDuration(cfg.Quiz.AutoAdvanceDelay, time.Second); d != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %v", d)
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if d := TTLDuration("", time.Minute); d != time.Minute {
		t.Fatalf("expected fallback, got %v", d)
	}
	if d := TTLDuration("soon", time.Minute); d != time.Minute {
		t.Fatalf("expected fallback for garbage, got %v", d)
	}
	if IntOr(0, 20) != 20 || IntOr(5, 20) != 5 {
		t.Fatalf("unexpected IntOr results")
	}
}
