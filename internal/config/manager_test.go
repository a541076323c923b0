package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
logging:
  level: debug
  console: true
store:
  driver: sqlite
  path: ./tasks.db
  capacity: 128
  busy_timeout: 5s
scheduler:
  poll_interval: 3s
notifier:
  rate_per_sec: 5
  countdown: ["10s", "20s"]
digest:
  enabled: true
  schedule: "@every 1h"
  limit: 10
`)

	m := NewManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "debug" || !cfg.Logging.Console {
		t.Fatalf("logging = %+v", cfg.Logging)
	}
	if cfg.Store.Driver != "sqlite" || cfg.Store.Capacity != 128 {
		t.Fatalf("store = %+v", cfg.Store)
	}
	if cfg.Scheduler.PollInterval != "3s" {
		t.Fatalf("scheduler = %+v", cfg.Scheduler)
	}
	if len(cfg.Notifier.Countdown) != 2 || cfg.Notifier.Countdown[1] != "20s" {
		t.Fatalf("notifier = %+v", cfg.Notifier)
	}
	if cfg.Digest == nil || !cfg.Digest.Enabled || cfg.Digest.Limit != 10 {
		t.Fatalf("digest = %+v", cfg.Digest)
	}
	if got := m.Get(); got != cfg {
		t.Fatal("Get did not return the committed config")
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
logging:
  level: info
stoer:
  path: ./tasks.txt
`)
	if _, err := NewManager(path).Load(); err == nil {
		t.Fatal("typoed section accepted")
	}
}

func TestLoadOmittedSectionsDefaultToZero(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
logging:
  level: info
  console: true
store:
  path: ./tasks.txt
`)
	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scheduler.PollInterval != "" || cfg.Notifier.RatePerSec != 0 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Digest != nil {
		t.Fatalf("digest should be nil when omitted, got %+v", cfg.Digest)
	}
}

func TestParseDurationField(t *testing.T) {
	cases := []struct {
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{"", 0, false},
		{"2s", 2 * time.Second, false},
		{"1m30s", 90 * time.Second, false},
		{"  5s  ", 5 * time.Second, false},
		{"-1s", 0, true},
		{"fast", 0, true},
		{"30", 0, true}, // bare numbers are ambiguous
	}
	for _, tc := range cases {
		got, err := ParseDurationField("x", tc.raw)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseDurationField(%q): expected error", tc.raw)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseDurationField(%q): %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("ParseDurationField(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestParseDurationOrDefault(t *testing.T) {
	got, err := ParseDurationOrDefault("x", "", 2*time.Second)
	if err != nil || got != 2*time.Second {
		t.Fatalf("got %v, %v", got, err)
	}
	got, err = ParseDurationOrDefault("x", "5s", 2*time.Second)
	if err != nil || got != 5*time.Second {
		t.Fatalf("got %v, %v", got, err)
	}
}
