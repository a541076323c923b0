package task

import "time"

// Wake classifies the scheduler's next wake-up.
type Wake int

const (
	// WakeNone means the store holds no tasks; poll at the idle interval.
	WakeNone Wake = iota
	// WakeNow means at least one task is already due; fire immediately.
	WakeNow
	// WakeAt means the returned instant is the nearest future deadline.
	WakeAt
)

// NextWake computes the scheduler's next wake-up from a task snapshot.
//
// If any deadline has already reached or passed now, the result is WakeNow
// regardless of the other deadlines: the scheduler should not wait for the
// minimum of already-due tasks, it should extract the whole due set at once.
func NextWake(tasks []Task, now time.Time) (time.Time, Wake) {
	if len(tasks) == 0 {
		return time.Time{}, WakeNone
	}
	var nearest time.Time
	for _, t := range tasks {
		if t.Due(now) {
			return now, WakeNow
		}
		if nearest.IsZero() || t.Deadline.Before(nearest) {
			nearest = t.Deadline
		}
	}
	return nearest, WakeAt
}
