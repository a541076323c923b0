package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"remindd/internal/task"
	logx "remindd/pkg/logx"
)

// Config configures the persistence backend.
//
// Driver values:
//   - "file": pipe-delimited text file, one task per line (default)
//   - "sqlite": SQLite database file
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Backend is the whole-state persistence API consumed by the task store.
// It satisfies task.Persister; Close is owned by the app layer.
type Backend interface {
	LoadAll(ctx context.Context) ([]task.Task, error)
	SaveAll(ctx context.Context, tasks []task.Task) error
	Close() error
}

// Open initializes the configured backend.
func Open(cfg Config, log logx.Logger) (Backend, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
