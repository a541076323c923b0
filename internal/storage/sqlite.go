package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"remindd/internal/task"
	logx "remindd/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteBackend struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Backend, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	b := &sqliteBackend{db: db, log: log}

	// Basic pragmas.
	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := b.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return b, nil
}

func (b *sqliteBackend) migrate(ctx context.Context) error {
	sqlBytes, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = b.db.ExecContext(ctx, string(sqlBytes))
	return err
}

func (b *sqliteBackend) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *sqliteBackend) LoadAll(ctx context.Context) ([]task.Task, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT id, title, category, priority, deadline FROM tasks ORDER BY pos`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []task.Task
	for rows.Next() {
		var t task.Task
		var epoch int64
		if err := rows.Scan(&t.ID, &t.Title, &t.Category, &t.Priority, &epoch); err != nil {
			b.log.Warn("skipping unreadable task row", logx.Err(err))
			continue
		}
		t.Deadline = time.Unix(epoch, 0)
		out = append(out, t)
	}
	return out, rows.Err()
}

// SaveAll replaces the whole table in one transaction, preserving store order
// via the pos column. This mirrors the file backend's overwrite-whole-state
// contract.
func (b *sqliteBackend) SaveAll(ctx context.Context, tasks []task.Task) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO tasks(pos, id, title, category, priority, deadline) VALUES(?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, t := range tasks {
		if _, err := stmt.ExecContext(ctx, i, t.ID, t.Title, t.Category, t.Priority, t.Deadline.Unix()); err != nil {
			return err
		}
	}
	return tx.Commit()
}
