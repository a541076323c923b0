// Package notify runs the timed countdown for a batch of due tasks.
//
// Each batch gets its own runner goroutine which owns the batch outright:
// the tasks were already extracted from the store, no lock is shared, and
// once the final line is emitted the batch is simply discarded. In-flight
// countdowns are deliberately not cancellable; once a task's reminder starts
// it runs to completion (or process exit).
package notify

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"remindd/internal/task"
	logx "remindd/pkg/logx"
)

// DefaultCountdown is the canonical cadence: cumulative offsets from
// countdown start. Offsets before the last emit "closing in Ns" (N = time
// remaining to the final offset); the last offset emits the clearing line.
var DefaultCountdown = []time.Duration{
	30 * time.Second,
	50 * time.Second,
	55 * time.Second,
	59 * time.Second,
	60 * time.Second,
}

// Config controls the countdown cadence. Offsets must be ascending and
// non-empty; Apply falls back to DefaultCountdown otherwise.
type Config struct {
	Countdown []time.Duration
}

type stage struct {
	wait      time.Duration // delta from the previous stage
	remaining time.Duration // time left at this stage
	final     bool
}

type Service struct {
	mu  sync.Mutex
	cfg Config

	log  logx.Logger
	sink Sink

	// sleep is swappable so tests can run countdowns instantly.
	sleep func(d time.Duration)

	active atomic.Int64
	wg     sync.WaitGroup
}

func New(cfg Config, sink Sink, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{
		log:   log,
		sink:  sink,
		sleep: time.Sleep,
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
	if !validCountdown(cfg.Countdown) {
		cfg.Countdown = DefaultCountdown
	}
	s.cfg = cfg
}

func validCountdown(offsets []time.Duration) bool {
	if len(offsets) == 0 {
		return false
	}
	prev := time.Duration(-1)
	for _, off := range offsets {
		if off <= prev {
			return false
		}
		prev = off
	}
	return offsets[0] >= 0
}

// Active returns the number of countdowns currently running.
func (s *Service) Active() int64 { return s.active.Load() }

// Dispatch takes ownership of a due batch and starts its countdown in a new
// goroutine. An empty batch is a no-op.
func (s *Service) Dispatch(batch []task.Task) {
	if len(batch) == 0 {
		return
	}
	s.mu.Lock()
	stages := buildStages(s.cfg.Countdown)
	s.mu.Unlock()

	s.wg.Add(1)
	s.active.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.active.Add(-1)
		s.run(batch, stages)
	}()
}

// Stop waits for in-flight countdowns until ctx expires, then abandons them
// to process exit. It does not cancel them.
func (s *Service) Stop(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		if n := s.Active(); n > 0 {
			s.log.Warn("abandoning in-flight countdowns", logx.Int64("active", n))
		}
	}
}

func buildStages(offsets []time.Duration) []stage {
	total := offsets[len(offsets)-1]
	out := make([]stage, 0, len(offsets))
	prev := time.Duration(0)
	for i, off := range offsets {
		out = append(out, stage{
			wait:      off - prev,
			remaining: total - off,
			final:     i == len(offsets)-1,
		})
		prev = off
	}
	return out
}

func (s *Service) run(batch []task.Task, stages []stage) {
	start := time.Now()
	s.announce(batch)

	for _, st := range stages {
		if st.wait > 0 {
			s.sleep(st.wait)
		}
		for _, t := range batch {
			if st.final {
				s.sink.Emit(fmt.Sprintf("Final reminder: %q deadline reached! Clearing now.", t.Title))
			} else {
				s.sink.Emit(fmt.Sprintf("Reminder: %q is closing in %d seconds...", t.Title, int(st.remaining/time.Second)))
			}
		}
	}

	s.log.Info("reminder finished",
		logx.Int("tasks", len(batch)),
		logx.Duration("took", time.Since(start)),
	)
}

func (s *Service) announce(batch []task.Task) {
	s.sink.Emit(fmt.Sprintf("====== REMINDER: %d task(s) due ======", len(batch)))
	for _, t := range batch {
		s.sink.Emit(fmt.Sprintf("  - [%s] %s (priority %d) due at %s",
			t.Category, t.Title, t.Priority, t.Deadline.Format(task.DeadlineFormat)))
	}
}
