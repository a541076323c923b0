package config

type Config struct {
	Logging LoggingConfig `json:"logging"`

	// Store controls the task store and its persistence collaborator.
	Store StoreConfig `json:"store"`

	// Scheduler controls the deadline loop.
	Scheduler SchedulerConfig `json:"scheduler,omitempty"`

	// Notifier controls the countdown cadence and sink throttling.
	Notifier NotifierConfig `json:"notifier,omitempty"`

	// Digest is an optional cron-scheduled summary of pending tasks.
	Digest *DigestConfig `json:"digest,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// StoreConfig controls the task store.
//
// Driver values:
//   - "file": one pipe-delimited record per task (default)
//   - "sqlite": SQLite database file
//
// Defaults (when fields are omitted/zero):
//   - driver: "file"
//   - path: "./tasks.txt" (file) — sqlite requires an explicit path
//   - capacity: 256
type StoreConfig struct {
	Driver   string `json:"driver,omitempty"`
	Path     string `json:"path,omitempty"`
	Capacity int    `json:"capacity,omitempty"`

	// BusyTimeout is a Go duration string (sqlite only).
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

// SchedulerConfig controls the deadline loop.
//
// PollInterval is the bounded sleep used while the store is empty, so newly
// added tasks are noticed even if no wake event is delivered. Go duration
// string; default "2s".
type SchedulerConfig struct {
	PollInterval string `json:"poll_interval,omitempty"`
}

// NotifierConfig controls the countdown cadence.
//
// Countdown lists cumulative offsets (Go duration strings) from countdown
// start. Each offset except the last emits a "closing in Ns" line where N is
// the time remaining to the final offset; the last offset emits the
// "deadline reached" line. Default: ["30s","50s","55s","59s","60s"].
type NotifierConfig struct {
	RatePerSec int      `json:"rate_per_sec,omitempty"`
	Countdown  []string `json:"countdown,omitempty"`
}

// DigestConfig controls the optional pending-task summary.
//
// Schedule is a cron spec or "@every <duration>". If the whole section is
// omitted the digest is disabled.
type DigestConfig struct {
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule,omitempty"`
	Timezone string `json:"timezone,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}
