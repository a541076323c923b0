// Package scheduler runs the deadline loop: sleep until the nearest
// deadline, wake, extract every due task in one atomic pass, and hand the
// batch to the notifier.
//
// The wake-up path is deliberately not signal-based. The loop blocks on a
// cancellable timer and on the store's event stream; adding a task with an
// earlier deadline simply interrupts the wait and the loop recomputes. A
// "fire after the fact" (deadline already past when checked) is handled by
// the recomputation itself, so nothing depends on exact timer delivery.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"remindd/internal/eventbus"
	"remindd/internal/task"
	logx "remindd/pkg/logx"
)

// State is the loop's current mode, exposed for tests and introspection.
type State int32

const (
	// StateIdle: no tasks; poll at the bounded interval for new ones.
	StateIdle State = iota
	// StateArmed: timer set for the nearest future deadline.
	StateArmed
	// StateFiring: extracting due tasks.
	StateFiring
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateFiring:
		return "firing"
	default:
		return "unknown"
	}
}

const defaultPollInterval = 2 * time.Second

// Config controls the deadline loop.
type Config struct {
	// PollInterval bounds the sleep while the store is empty, so newly added
	// tasks are noticed even without a wake event. Default 2s.
	PollInterval time.Duration
}

// Dispatcher receives ownership of each extracted due batch.
type Dispatcher interface {
	Dispatch(batch []task.Task)
}

type Service struct {
	mu  sync.Mutex
	cfg Config

	log      logx.Logger
	store    *task.Store
	dispatch Dispatcher
	bus      eventbus.Bus

	state atomic.Int32
}

func New(cfg Config, store *task.Store, dispatch Dispatcher, bus eventbus.Bus, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{
		log:      log,
		store:    store,
		dispatch: dispatch,
		bus:      bus,
	}
	s.applyLocked(cfg)
	return s
}

func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	s.applyLocked(cfg)
	s.mu.Unlock()
}

func (s *Service) applyLocked(cfg Config) {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	s.cfg = cfg
}

func (s *Service) pollInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.PollInterval
}

// State returns the loop's current mode.
func (s *Service) State() State { return State(s.state.Load()) }

func (s *Service) setState(st State) {
	if s.state.Swap(int32(st)) != int32(st) {
		s.log.Debug("scheduler state", logx.String("state", st.String()))
	}
}

// Run is the long-lived deadline loop. It only returns when ctx is canceled
// (process shutdown); every other condition recomputes and re-arms.
func (s *Service) Run(ctx context.Context) error {
	var events <-chan eventbus.Event
	if s.bus != nil {
		ch, unsub := s.bus.Subscribe(16)
		defer unsub()
		events = ch
	}

	timer := time.NewTimer(time.Hour)
	stopTimer(timer)
	defer stopTimer(timer)

	s.log.Info("scheduler started", logx.Duration("poll_interval", s.pollInterval()))

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		now := time.Now()
		at, wake := task.NextWake(s.store.List(), now)

		var wait time.Duration
		switch wake {
		case task.WakeNow:
			// Nearest deadline already in the past: skip arming entirely.
			s.setState(StateFiring)
			s.fire(ctx)
			continue
		case task.WakeNone:
			s.setState(StateIdle)
			wait = s.pollInterval()
		case task.WakeAt:
			s.setState(StateArmed)
			wait = at.Sub(now)
			s.log.Debug("armed", logx.Time("deadline", at), logx.Duration("in", wait))
		}

		resetTimer(timer, wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			if wake == task.WakeAt {
				s.setState(StateFiring)
				s.fire(ctx)
			}
			// Idle poll elapsed: just recompute.
		case _, ok := <-events:
			if !ok {
				// Bus gone; fall back to pure polling.
				events = nil
				continue
			}
			// Store changed; coalesce any burst and recompute the wake time.
			drain(events)
		}
	}
}

// fire extracts the due set in one locked pass and hands it off. An empty
// extraction (spurious wake, or the task was deleted between arming and
// firing) is a normal, non-error condition.
func (s *Service) fire(ctx context.Context) {
	batch := s.store.ExtractDue(ctx, time.Now())
	if len(batch) == 0 {
		s.log.Debug("woke with no due tasks; re-arming")
		return
	}
	s.log.Info("due tasks extracted", logx.Int("count", len(batch)))
	s.dispatch.Dispatch(batch)
}

func drain(ch <-chan eventbus.Event) {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	stopTimer(t)
	t.Reset(d)
}
