package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestGoCapturesFirstError(t *testing.T) {
	s := New(context.Background())
	want := errors.New("boom")
	s.Go("worker", func(ctx context.Context) error { return want })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := s.Stop(ctx)
	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
}

func TestGoRecoversPanic(t *testing.T) {
	s := New(context.Background())
	s.Go("panicky", func(ctx context.Context) error { panic("kaboom") })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := s.Stop(ctx)
	if err == nil {
		t.Fatal("panic not surfaced as error")
	}
}

func TestCancelOnErrorStopsSiblings(t *testing.T) {
	s := New(context.Background(), WithCancelOnError(true))

	blocked := make(chan struct{})
	s.Go("blocker", func(ctx context.Context) error {
		<-ctx.Done()
		close(blocked)
		return nil
	})
	s.Go("failer", func(ctx context.Context) error { return errors.New("fail") })

	select {
	case <-blocked:
	case <-time.After(time.Second):
		t.Fatal("sibling not canceled after error")
	}
}

func TestGoRestartStopsOnCleanExit(t *testing.T) {
	s := New(context.Background())
	var runs atomic.Int32
	s.GoRestart("once", func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if got := runs.Load(); got != 1 {
		t.Fatalf("runs = %d, want 1", got)
	}
}

func TestGoRestartRetriesOnError(t *testing.T) {
	s := New(context.Background())
	var runs atomic.Int32
	done := make(chan struct{})
	s.GoRestart("flaky", func(ctx context.Context) error {
		if runs.Add(1) < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}, WithRestartBackoff(time.Millisecond, 5*time.Millisecond))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("loop not restarted; runs = %d", runs.Load())
	}
}

func TestGoRestartGivesUpAfterMaxRestarts(t *testing.T) {
	s := New(context.Background())
	var runs atomic.Int32
	s.GoRestart("hopeless", func(ctx context.Context) error {
		runs.Add(1)
		return errors.New("always")
	},
		WithRestartBackoff(time.Millisecond, 2*time.Millisecond),
		WithMaxRestarts(2),
		WithFatalOnFinalError(true),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := s.Wait(ctx)
	if err == nil {
		t.Fatal("final error not surfaced")
	}
	// Initial run + 2 restarts.
	if got := runs.Load(); got != 3 {
		t.Fatalf("runs = %d, want 3", got)
	}
}

func TestActiveCount(t *testing.T) {
	s := New(context.Background())
	release := make(chan struct{})
	s.Go0("held", func(ctx context.Context) { <-release })

	deadline := time.Now().Add(time.Second)
	for s.Active() != 1 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if s.Active() != 1 {
		t.Fatalf("active = %d, want 1", s.Active())
	}
	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if s.Active() != 0 {
		t.Fatalf("active = %d after stop", s.Active())
	}
}
