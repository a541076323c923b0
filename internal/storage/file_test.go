package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"remindd/internal/task"
	logx "remindd/pkg/logx"
)

func openTestFile(t *testing.T) (Backend, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.txt")
	b, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b, path
}

func TestFileRoundTrip(t *testing.T) {
	b, _ := openTestFile(t)
	ctx := context.Background()

	in := []task.Task{
		{ID: 1, Title: "pay rent", Category: "bills", Priority: 3, Deadline: time.Unix(1767225600, 0)},
		{ID: 2, Title: "review", Category: "work", Priority: 1, Deadline: time.Unix(1767312000, 0)},
	}
	if err := b.SaveAll(ctx, in); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	out, err := b.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("loaded %d tasks, want %d", len(out), len(in))
	}
	for i := range in {
		if !out[i].Deadline.Equal(in[i].Deadline) {
			t.Fatalf("task %d deadline = %v, want %v", i, out[i].Deadline, in[i].Deadline)
		}
		out[i].Deadline = in[i].Deadline
		if out[i] != in[i] {
			t.Fatalf("task %d = %+v, want %+v", i, out[i], in[i])
		}
	}
}

func TestFileMissingIsEmpty(t *testing.T) {
	b, _ := openTestFile(t)
	out, err := b.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("loaded %d tasks from missing file", len(out))
	}
}

func TestFileSkipsMalformedLines(t *testing.T) {
	b, path := openTestFile(t)

	content := strings.Join([]string{
		"1|good|cat|2|1767225600",
		"not a record",
		"2|too|few|fields",
		"0|bad id|cat|1|1767225600",
		"3|also good|cat|1|1767225601",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	out, err := b.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("loaded %d tasks, want 2: %+v", len(out), out)
	}
	if out[0].ID != 1 || out[1].ID != 3 {
		t.Fatalf("wrong tasks survived: %+v", out)
	}
}

func TestFileSanitizesSeparator(t *testing.T) {
	b, _ := openTestFile(t)
	ctx := context.Background()

	in := []task.Task{{ID: 1, Title: "a|b\nc", Category: "x|y", Priority: 1, Deadline: time.Unix(1767225600, 0)}}
	if err := b.SaveAll(ctx, in); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	out, err := b.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("loaded %d tasks, want 1", len(out))
	}
	if out[0].Title != "a/b c" || out[0].Category != "x/y" {
		t.Fatalf("fields not sanitized: %+v", out[0])
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(Config{Driver: "postgres"}, logx.Nop()); err == nil {
		t.Fatal("unknown driver accepted")
	}
}
