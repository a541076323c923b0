package menu

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"remindd/internal/task"
	logx "remindd/pkg/logx"
)

func runScript(t *testing.T, store *task.Store, script string) string {
	t.Helper()
	var out bytes.Buffer
	m := New(strings.NewReader(script), &out, store, logx.Nop())
	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return out.String()
}

func TestAddThenExit(t *testing.T) {
	store := task.NewStore(10, nil, nil, logx.Nop())

	script := strings.Join([]string{
		"2",
		"Pay rent",
		"bills",
		"3",
		"2030-01-02 15:04",
		"4",
	}, "\n") + "\n"

	out := runScript(t, store, script)

	if store.Len() != 1 {
		t.Fatalf("store len = %d", store.Len())
	}
	got := store.List()[0]
	if got.Title != "Pay rent" || got.Category != "bills" || got.Priority != 3 {
		t.Fatalf("task = %+v", got)
	}
	want := time.Date(2030, 1, 2, 15, 4, 0, 0, time.Local)
	if !got.Deadline.Equal(want) {
		t.Fatalf("deadline = %v, want %v", got.Deadline, want)
	}
	if !strings.Contains(out, "added") {
		t.Fatalf("output missing confirmation: %q", out)
	}
}

func TestAddRejectsBadInput(t *testing.T) {
	store := task.NewStore(10, nil, nil, logx.Nop())

	cases := []struct {
		name   string
		script []string
		want   string
	}{
		{
			name:   "empty title",
			script: []string{"2", "", "", "", "", "4"},
			want:   "title is required",
		},
		{
			name:   "priority out of range",
			script: []string{"2", "x", "c", "9", "", "4"},
			want:   "priority must be",
		},
		{
			name:   "bad deadline format",
			script: []string{"2", "x", "c", "3", "tomorrow", "4"},
			want:   "invalid deadline",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := runScript(t, store, strings.Join(tc.script, "\n")+"\n")
			if !strings.Contains(out, tc.want) {
				t.Fatalf("output %q missing %q", out, tc.want)
			}
			if store.Len() != 0 {
				t.Fatalf("task added from bad input")
			}
		})
	}
}

func TestViewAndDelete(t *testing.T) {
	store := task.NewStore(10, nil, nil, logx.Nop())
	id, err := store.Add(context.Background(), "Standup", "work", 2, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	out := runScript(t, store, "1\n3\n1\n1\n4\n")

	if !strings.Contains(out, "Standup") {
		t.Fatalf("view output missing task: %q", out)
	}
	if !strings.Contains(out, "deleted") {
		t.Fatalf("delete confirmation missing: %q", out)
	}
	if !strings.Contains(out, "No pending tasks") {
		t.Fatalf("second view should be empty: %q", out)
	}
	if store.Remove(context.Background(), id) {
		t.Fatal("task still present after menu delete")
	}
}

func TestDeleteUnknownID(t *testing.T) {
	store := task.NewStore(10, nil, nil, logx.Nop())
	out := runScript(t, store, "3\n99\n4\n")
	if !strings.Contains(out, "no task with id 99") {
		t.Fatalf("output = %q", out)
	}
}

func TestEOFExitsCleanly(t *testing.T) {
	store := task.NewStore(10, nil, nil, logx.Nop())
	var out bytes.Buffer
	m := New(strings.NewReader(""), &out, store, logx.Nop())
	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run on EOF: %v", err)
	}
}

func TestInvalidChoice(t *testing.T) {
	store := task.NewStore(10, nil, nil, logx.Nop())
	out := runScript(t, store, "7\n4\n")
	if !strings.Contains(out, "Invalid choice") {
		t.Fatalf("output = %q", out)
	}
}
