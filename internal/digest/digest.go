// Package digest periodically emits a summary of pending tasks through the
// notification sink. It is a status report, not a reminder: it never touches
// task lifecycle, and it is disabled unless configured.
package digest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"remindd/internal/notify"
	"remindd/internal/task"
	logx "remindd/pkg/logx"
)

// Config controls the digest schedule.
type Config struct {
	Enabled  bool
	Schedule string // cron spec or "@every <duration>"
	Timezone string // IANA TZ; empty means local
	Limit    int    // max tasks listed per digest; 0 means all
}

type Service struct {
	mu  sync.Mutex
	cfg Config

	log   logx.Logger
	store *task.Store
	sink  notify.Sink

	parser cron.Parser
	c      *cron.Cron
}

func New(cfg Config, store *task.Store, sink notify.Sink, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:    cfg,
		log:    log,
		store:  store,
		sink:   sink,
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

func (s *Service) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Enabled && strings.TrimSpace(s.cfg.Schedule) != ""
}

// Validate checks a schedule spec without starting anything. Used by the
// config validator so a bad hot-reload is rejected before commit.
func (s *Service) Validate(cfg Config) error {
	if !cfg.Enabled {
		return nil
	}
	spec := strings.TrimSpace(cfg.Schedule)
	if spec == "" {
		return fmt.Errorf("digest.schedule is required when digest is enabled")
	}
	if _, err := s.parser.Parse(spec); err != nil {
		return fmt.Errorf("digest.schedule: invalid %q: %w", spec, err)
	}
	if tz := strings.TrimSpace(cfg.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("digest.timezone: invalid %q: %w", tz, err)
		}
	}
	return nil
}

func (s *Service) Start(ctx context.Context) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil || !s.cfg.Enabled {
		return
	}
	s.startLocked()
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
	s.log.Info("digest stopped")
}

// Apply updates the config; a schedule/timezone change restarts the cron.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.cfg
	s.cfg = cfg

	if s.c == nil {
		if cfg.Enabled {
			s.startLocked()
		}
		return
	}
	if !cfg.Enabled {
		c := s.c
		s.c = nil
		go func() { <-c.Stop().Done() }()
		s.log.Info("digest disabled via config")
		return
	}
	if old.Schedule != cfg.Schedule || old.Timezone != cfg.Timezone {
		c := s.c
		s.c = nil
		go func() { <-c.Stop().Done() }()
		s.startLocked()
	}
}

// startLocked arms the cron. Call with mu held and cfg validated.
func (s *Service) startLocked() {
	loc := s.locationLocked()
	c := cron.New(cron.WithParser(s.parser), cron.WithLocation(loc))
	spec := strings.TrimSpace(s.cfg.Schedule)
	if _, err := c.AddFunc(spec, s.emit); err != nil {
		s.log.Error("digest schedule register failed", logx.String("spec", spec), logx.Err(err))
		return
	}
	c.Start()
	s.c = c
	s.log.Info("digest started", logx.String("spec", spec), logx.String("tz", loc.String()))
}

func (s *Service) locationLocked() *time.Location {
	tz := strings.TrimSpace(s.cfg.Timezone)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.log.Warn("invalid timezone; falling back to Local", logx.String("tz", tz), logx.Err(err))
		return time.Local
	}
	return loc
}

func (s *Service) emit() {
	tasks := s.store.List()
	if len(tasks) == 0 {
		s.sink.Emit("Digest: no pending tasks.")
		return
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Deadline.Before(tasks[j].Deadline) })

	s.mu.Lock()
	limit := s.cfg.Limit
	s.mu.Unlock()

	total := len(tasks)
	if limit > 0 && len(tasks) > limit {
		tasks = tasks[:limit]
	}
	s.sink.Emit(fmt.Sprintf("Digest: %d pending task(s), nearest first:", total))
	for _, t := range tasks {
		s.sink.Emit(fmt.Sprintf("  - [%s] %s (priority %d) due at %s",
			t.Category, t.Title, t.Priority, t.Deadline.Format(task.DeadlineFormat)))
	}
	if total > len(tasks) {
		s.sink.Emit(fmt.Sprintf("  ... and %d more", total-len(tasks)))
	}
}
