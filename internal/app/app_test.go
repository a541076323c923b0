package app

import (
	"testing"
	"time"

	"remindd/internal/config"
)

func TestNotifierConfigParsesOffsets(t *testing.T) {
	cfg := &config.Config{}
	cfg.Notifier.Countdown = []string{"10s", "30s", "1m"}

	got, err := notifierConfig(cfg)
	if err != nil {
		t.Fatalf("notifierConfig: %v", err)
	}
	want := []time.Duration{10 * time.Second, 30 * time.Second, time.Minute}
	if len(got.Countdown) != len(want) {
		t.Fatalf("countdown = %v", got.Countdown)
	}
	for i := range want {
		if got.Countdown[i] != want[i] {
			t.Fatalf("offset %d = %v, want %v", i, got.Countdown[i], want[i])
		}
	}
}

func TestNotifierConfigRejectsNonAscending(t *testing.T) {
	cfg := &config.Config{}
	cfg.Notifier.Countdown = []string{"30s", "10s"}
	if _, err := notifierConfig(cfg); err == nil {
		t.Fatal("descending offsets accepted")
	}

	cfg.Notifier.Countdown = []string{"30s", "30s"}
	if _, err := notifierConfig(cfg); err == nil {
		t.Fatal("duplicate offsets accepted")
	}

	cfg.Notifier.Countdown = []string{"fast"}
	if _, err := notifierConfig(cfg); err == nil {
		t.Fatal("malformed duration accepted")
	}
}

func TestNotifierConfigEmptyMeansDefault(t *testing.T) {
	got, err := notifierConfig(&config.Config{})
	if err != nil {
		t.Fatalf("notifierConfig: %v", err)
	}
	if got.Countdown != nil {
		t.Fatalf("expected nil countdown (component default), got %v", got.Countdown)
	}
}

func TestSchedulerConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Scheduler.PollInterval = "3s"
	got, err := schedulerConfig(cfg)
	if err != nil {
		t.Fatalf("schedulerConfig: %v", err)
	}
	if got.PollInterval != 3*time.Second {
		t.Fatalf("poll = %v", got.PollInterval)
	}

	cfg.Scheduler.PollInterval = "soon"
	if _, err := schedulerConfig(cfg); err == nil {
		t.Fatal("malformed poll interval accepted")
	}
}

func TestStorageConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Store = config.StoreConfig{Driver: "sqlite", Path: "./t.db", BusyTimeout: "5s"}
	got, err := storageConfig(cfg)
	if err != nil {
		t.Fatalf("storageConfig: %v", err)
	}
	if got.Driver != "sqlite" || got.BusyTimeout != 5*time.Second {
		t.Fatalf("got %+v", got)
	}

	cfg.Store.BusyTimeout = "later"
	if _, err := storageConfig(cfg); err == nil {
		t.Fatal("malformed busy_timeout accepted")
	}
}

func TestDigestConfigNilSection(t *testing.T) {
	got := digestConfig(&config.Config{})
	if got.Enabled {
		t.Fatal("digest enabled with no section")
	}

	cfg := &config.Config{Digest: &config.DigestConfig{Enabled: true, Schedule: "@every 1h", Limit: 3}}
	got = digestConfig(cfg)
	if !got.Enabled || got.Schedule != "@every 1h" || got.Limit != 3 {
		t.Fatalf("got %+v", got)
	}
}

func TestNewFailsOnMissingConfig(t *testing.T) {
	if _, err := New("/does/not/exist.yaml"); err == nil {
		t.Fatal("missing config accepted")
	}
}
