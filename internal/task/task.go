// Package task holds the task model and the in-memory store that is the only
// shared mutable state in the system. All store reads and mutations happen
// under a single mutex, and mutations persist the whole store before the
// mutex is released, so on-disk state never lags behind a superseded
// in-memory state.
package task

import (
	"errors"
	"time"
)

// DefaultCapacity bounds the store when no capacity is configured.
const DefaultCapacity = 256

var (
	// ErrCapacity is returned by Add when the store is full; the store is unchanged.
	ErrCapacity = errors.New("task store at capacity")
	// ErrNotFound is returned when a task id does not exist.
	ErrNotFound = errors.New("task not found")
	// ErrInvalidDeadline is returned for a missing or malformed deadline.
	ErrInvalidDeadline = errors.New("invalid deadline")
)

// Task is a single reminder entry.
//
// IDs are unique and monotonically assigned; an id is never reused within a
// process lifetime, even after the task is deleted. Deadlines have second
// resolution.
type Task struct {
	ID       int64
	Title    string
	Category string
	Priority int
	Deadline time.Time
}

// Due reports whether the task's deadline has reached or passed now.
func (t Task) Due(now time.Time) bool {
	return !t.Deadline.After(now)
}

// DeadlineFormat is the human-facing deadline layout used by the menu and the
// countdown announcements.
const DeadlineFormat = "2006-01-02 15:04"
