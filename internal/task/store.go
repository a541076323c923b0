package task

import (
	"context"
	"sync"
	"time"

	"remindd/internal/eventbus"
	logx "remindd/pkg/logx"
)

// Persister is the external persistence collaborator.
//
// Failures are non-fatal to the store: a failed load starts empty, a failed
// save is logged and the in-memory state stays authoritative.
type Persister interface {
	LoadAll(ctx context.Context) ([]Task, error)
	SaveAll(ctx context.Context, tasks []Task) error
}

// Store is the bounded, mutex-guarded task collection.
//
// Locking contract: every mutating operation holds mu for its full duration,
// including the persistence write, so no two saves interleave and no reader
// observes a torn write. The persister itself is only ever invoked with mu
// held.
type Store struct {
	mu sync.Mutex

	log     logx.Logger
	persist Persister    // may be nil (in-memory only)
	bus     eventbus.Bus // may be nil

	capacity int
	tasks    []Task
	nextID   int64
}

func NewStore(capacity int, persist Persister, bus eventbus.Bus, log logx.Logger) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Store{
		log:      log,
		persist:  persist,
		bus:      bus,
		capacity: capacity,
		nextID:   1,
	}
}

// Load replaces the store contents from the persister and resets the id
// allocator to max(existing ids)+1 (1 if empty). A load failure leaves the
// store empty and is returned for the caller to report; it is not fatal.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	s.tasks = nil
	s.nextID = 1
	if s.persist == nil {
		s.mu.Unlock()
		return nil
	}
	loaded, err := s.persist.LoadAll(ctx)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.tasks = loaded
	for _, t := range loaded {
		if t.ID >= s.nextID {
			s.nextID = t.ID + 1
		}
	}
	n := len(loaded)
	s.mu.Unlock()

	s.publish(eventbus.TypeStoreLoaded, n)
	return nil
}

// Save persists the full store contents. Used at shutdown; regular mutations
// already save inside their own critical section.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.persist == nil {
		return nil
	}
	return s.persist.SaveAll(ctx, s.snapshotLocked())
}

// Add appends a new task and returns its id. It fails with ErrCapacity when
// the store is full and ErrInvalidDeadline when the deadline is zero; in both
// cases the store is unchanged.
func (s *Store) Add(ctx context.Context, title, category string, priority int, deadline time.Time) (int64, error) {
	if deadline.IsZero() {
		return 0, ErrInvalidDeadline
	}

	s.mu.Lock()
	if len(s.tasks) >= s.capacity {
		s.mu.Unlock()
		return 0, ErrCapacity
	}
	id := s.nextID
	s.nextID++
	s.tasks = append(s.tasks, Task{
		ID:       id,
		Title:    title,
		Category: category,
		Priority: priority,
		Deadline: deadline.Truncate(time.Second),
	})
	s.saveLocked(ctx)
	s.mu.Unlock()

	s.publish(eventbus.TypeTaskAdded, id)
	return id, nil
}

// List returns a snapshot copy in store order; safe for concurrent use.
func (s *Store) List() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Len returns the current number of tasks.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Remove deletes the task with the given id. It reports whether a task was
// found; removing an unknown id is a no-op.
func (s *Store) Remove(ctx context.Context, id int64) bool {
	s.mu.Lock()
	idx := -1
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.tasks = append(s.tasks[:idx], s.tasks[idx+1:]...)
	s.saveLocked(ctx)
	s.mu.Unlock()

	s.publish(eventbus.TypeTaskRemoved, id)
	return true
}

// ExtractDue atomically removes and returns every task whose deadline has
// reached or passed now, compacting the remainder in place. The persistence
// write happens inside the same critical section. Ownership of the returned
// batch transfers to the caller; the store holds no reference to it.
func (s *Store) ExtractDue(ctx context.Context, now time.Time) []Task {
	s.mu.Lock()
	var due []Task
	keep := s.tasks[:0]
	for _, t := range s.tasks {
		if t.Due(now) {
			due = append(due, t)
		} else {
			keep = append(keep, t)
		}
	}
	if len(due) == 0 {
		s.mu.Unlock()
		return nil
	}
	s.tasks = keep
	s.saveLocked(ctx)
	s.mu.Unlock()

	s.publish(eventbus.TypeTaskExtracted, len(due))
	return due
}

// snapshotLocked copies the task slice. Call with mu held.
func (s *Store) snapshotLocked() []Task {
	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// saveLocked writes the full store through the persister. Call with mu held.
// Failures are reported, not propagated: the in-memory state stays authoritative.
func (s *Store) saveLocked(ctx context.Context) {
	if s.persist == nil {
		return
	}
	if err := s.persist.SaveAll(ctx, s.snapshotLocked()); err != nil {
		s.log.Warn("task save failed; continuing with in-memory state", logx.Err(err))
	}
}

func (s *Store) publish(typ string, data any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventbus.Event{Type: typ, Data: data})
}
