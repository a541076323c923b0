package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"remindd/internal/task"
	logx "remindd/pkg/logx"
)

// fileBackend persists tasks as one pipe-delimited record per line:
//
//	id|title|category|priority|deadline
//
// with the deadline stored as epoch seconds. Malformed lines are skipped on
// load, never fatal. Saves go through a temp file + rename so a crash
// mid-write cannot truncate the previous state.
type fileBackend struct {
	log  logx.Logger
	path string
}

func openFile(cfg Config, log logx.Logger) (Backend, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		path = "./tasks.txt"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &fileBackend{log: log, path: path}, nil
}

func (b *fileBackend) Close() error { return nil }

func (b *fileBackend) LoadAll(ctx context.Context) ([]task.Task, error) {
	_ = ctx
	f, err := os.Open(b.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// First run: no file yet.
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var out []task.Task
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		t, ok := parseRecord(sc.Text())
		if !ok {
			b.log.Warn("skipping malformed task record", logx.String("path", b.path), logx.Int("line", line))
			continue
		}
		out = append(out, t)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *fileBackend) SaveAll(ctx context.Context, tasks []task.Task) error {
	_ = ctx
	tmp := b.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, t := range tasks {
		if _, err := w.WriteString(formatRecord(t)); err != nil {
			_ = f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, b.path)
}

func formatRecord(t task.Task) string {
	return fmt.Sprintf("%d|%s|%s|%d|%d\n",
		t.ID, sanitizeField(t.Title), sanitizeField(t.Category), t.Priority, t.Deadline.Unix())
}

// sanitizeField keeps the record parseable: the field separator and newlines
// cannot appear inside a stored field.
func sanitizeField(s string) string {
	s = strings.ReplaceAll(s, "|", "/")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}

func parseRecord(line string) (task.Task, bool) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return task.Task{}, false
	}
	parts := strings.Split(line, "|")
	if len(parts) != 5 {
		return task.Task{}, false
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		return task.Task{}, false
	}
	prio, err := strconv.Atoi(parts[3])
	if err != nil {
		return task.Task{}, false
	}
	epoch, err := strconv.ParseInt(parts[4], 10, 64)
	if err != nil {
		return task.Task{}, false
	}
	return task.Task{
		ID:       id,
		Title:    parts[1],
		Category: parts[2],
		Priority: prio,
		Deadline: time.Unix(epoch, 0),
	}, true
}
