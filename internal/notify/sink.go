package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"golang.org/x/time/rate"
)

// Sink delivers one reminder line. Best-effort: no acknowledgement, no retry.
type Sink interface {
	Emit(line string)
}

// ConsoleSink writes lines to a writer, throttled by a token bucket so a
// large due batch cannot flood the terminal. Writes are serialized so lines
// from concurrent countdowns do not interleave mid-line.
type ConsoleSink struct {
	mu      sync.Mutex
	w       io.Writer
	limiter *rate.Limiter
}

func NewConsoleSink(w io.Writer, ratePerSec int) *ConsoleSink {
	if ratePerSec <= 0 {
		ratePerSec = 10
	}
	return &ConsoleSink{
		w: w,
		// Token bucket: burst = rate per sec, so short spikes don't block too hard.
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec),
	}
}

// SetRate swaps the throttle at runtime (config hot reload).
func (s *ConsoleSink) SetRate(ratePerSec int) {
	if ratePerSec <= 0 {
		ratePerSec = 10
	}
	s.mu.Lock()
	s.limiter = rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec)
	s.mu.Unlock()
}

func (s *ConsoleSink) Emit(line string) {
	s.mu.Lock()
	lim := s.limiter
	s.mu.Unlock()

	_ = lim.Wait(context.Background())

	s.mu.Lock()
	fmt.Fprintln(s.w, line)
	s.mu.Unlock()
}
