package task

import (
	"testing"
	"time"
)

func TestNextWake(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		tasks    []Task
		wantAt   time.Time
		wantWake Wake
	}{
		{
			name:     "empty",
			wantWake: WakeNone,
		},
		{
			name: "single future",
			tasks: []Task{
				{ID: 1, Deadline: now.Add(time.Minute)},
			},
			wantAt:   now.Add(time.Minute),
			wantWake: WakeAt,
		},
		{
			name: "nearest of several",
			tasks: []Task{
				{ID: 1, Deadline: now.Add(time.Hour)},
				{ID: 2, Deadline: now.Add(time.Minute)},
				{ID: 3, Deadline: now.Add(30 * time.Minute)},
			},
			wantAt:   now.Add(time.Minute),
			wantWake: WakeAt,
		},
		{
			name: "already due wins over nearer future",
			tasks: []Task{
				{ID: 1, Deadline: now.Add(time.Second)},
				{ID: 2, Deadline: now.Add(-time.Hour)},
			},
			wantAt:   now,
			wantWake: WakeNow,
		},
		{
			name: "deadline exactly now is due",
			tasks: []Task{
				{ID: 1, Deadline: now},
			},
			wantAt:   now,
			wantWake: WakeNow,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			at, wake := NextWake(tc.tasks, now)
			if wake != tc.wantWake {
				t.Fatalf("wake = %v, want %v", wake, tc.wantWake)
			}
			if wake == WakeAt && !at.Equal(tc.wantAt) {
				t.Fatalf("at = %v, want %v", at, tc.wantAt)
			}
		})
	}
}

func TestDue(t *testing.T) {
	now := time.Now()
	if (Task{Deadline: now.Add(time.Second)}).Due(now) {
		t.Fatal("future deadline reported due")
	}
	if !(Task{Deadline: now}).Due(now) {
		t.Fatal("deadline == now not reported due")
	}
	if !(Task{Deadline: now.Add(-time.Second)}).Due(now) {
		t.Fatal("past deadline not reported due")
	}
}
