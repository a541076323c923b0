// Package app wires the daemon together: config, logging, storage, the task
// store, the deadline loop, the notifier and the optional digest. The
// interactive menu runs in the foreground while everything else lives under a
// supervisor.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"remindd/internal/config"
	"remindd/internal/digest"
	"remindd/internal/eventbus"
	"remindd/internal/menu"
	"remindd/internal/notify"
	"remindd/internal/runtime/supervisor"
	"remindd/internal/storage"
	"remindd/internal/task"
	"remindd/internal/task/scheduler"
	logx "remindd/pkg/logx"
)

type App struct {
	cfgMgr *config.Manager
	logSvc *logx.Service
	log    logx.Logger

	bus     eventbus.Bus
	backend storage.Backend
	store   *task.Store
	sink    *notify.ConsoleSink
	notif   *notify.Service
	sched   *scheduler.Service
	dig     *digest.Service

	sup *supervisor.Supervisor

	// bootStore is the store config the backend was opened with; a reload
	// that changes it cannot be applied live.
	bootStore config.StoreConfig
}

// New loads the config and builds every component. Nothing runs yet; call
// Start. A persistence load failure is reported and the store starts empty.
func New(configPath string) (*App, error) {
	cfgMgr := config.NewManager(configPath)
	cfg, err := cfgMgr.Load()
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", configPath, err)
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	cfgMgr.SetLogger(log.With(logx.String("comp", "config")))

	a := &App{
		cfgMgr: cfgMgr,
		logSvc: logSvc,
		log:    log,
		bus:    eventbus.New(),
	}
	cfgMgr.SetValidator(a.validate)

	storeCfg, err := storageConfig(cfg)
	if err != nil {
		logSvc.Close()
		return nil, err
	}
	backend, err := storage.Open(storeCfg, log.With(logx.String("comp", "storage")))
	if err != nil {
		logSvc.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}
	a.backend = backend
	a.bootStore = cfg.Store

	a.store = task.NewStore(cfg.Store.Capacity, backend, a.bus, log.With(logx.String("comp", "store")))
	if err := a.store.Load(context.Background()); err != nil {
		log.Warn("loading saved tasks failed; starting empty", logx.Err(err))
	} else {
		log.Info("tasks loaded", logx.Int("count", a.store.Len()))
	}

	a.sink = notify.NewConsoleSink(os.Stdout, cfg.Notifier.RatePerSec)

	notifCfg, err := notifierConfig(cfg)
	if err != nil {
		backend.Close()
		logSvc.Close()
		return nil, err
	}
	a.notif = notify.New(notifCfg, a.sink, log.With(logx.String("comp", "notify")))

	schedCfg, err := schedulerConfig(cfg)
	if err != nil {
		backend.Close()
		logSvc.Close()
		return nil, err
	}
	a.sched = scheduler.New(schedCfg, a.store, a.notif, a.bus, log.With(logx.String("comp", "scheduler")))

	a.dig = digest.New(digestConfig(cfg), a.store, a.sink, log.With(logx.String("comp", "digest")))
	if err := a.dig.Validate(digestConfig(cfg)); err != nil {
		backend.Close()
		logSvc.Close()
		return nil, err
	}

	return a, nil
}

// Start launches the background services: the deadline loop, the config
// watcher and the reload fanout.
func (a *App) Start(ctx context.Context) {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log.With(logx.String("comp", "supervisor"))))

	a.sup.GoRestart("scheduler", a.sched.Run,
		supervisor.WithRestartBackoff(250*time.Millisecond, 10*time.Second),
	)
	a.sup.GoRestart("config-watch", func(ctx context.Context) error {
		return a.cfgMgr.Watch(ctx)
	})
	a.sup.Go0("config-reload", a.reloadLoop)

	a.dig.Start(a.sup.Context())
	a.log.Info("started")
}

// RunMenu drives the interactive prompt until the user exits or ctx is
// canceled. in/out default to stdin/stdout when nil.
func (a *App) RunMenu(ctx context.Context, in io.Reader, out io.Writer) error {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	m := menu.New(in, out, a.store, a.log.With(logx.String("comp", "menu")))
	err := m.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Stop shuts everything down in order: stop the supervisor (scheduler and
// watcher), stop the digest, wait briefly for in-flight countdowns, persist
// the final state, then release storage and logging.
func (a *App) Stop() {
	a.log.Info("shutting down")

	if a.sup != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.sup.Stop(stopCtx); err != nil && !errors.Is(err, context.Canceled) {
			a.log.Warn("supervisor stopped with error", logx.Err(err))
		}
		cancel()
	}

	digCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	a.dig.Stop(digCtx)
	cancel()

	notifCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	a.notif.Stop(notifCtx)
	cancel()

	saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := a.store.Save(saveCtx); err != nil {
		a.log.Warn("final save failed", logx.Err(err))
	}
	cancel()

	if err := a.backend.Close(); err != nil {
		a.log.Warn("storage close failed", logx.Err(err))
	}
	a.log.Info("bye")
	_ = a.logSvc.Close()
}

// reloadLoop applies validated config updates to the running components.
// Storage changes need a restart and only produce a warning.
func (a *App) reloadLoop(ctx context.Context) {
	sub := a.cfgMgr.Subscribe(4)
	defer a.cfgMgr.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-sub:
			if !ok {
				return
			}
			if cfg == nil {
				continue
			}
			a.applyConfig(cfg)
		}
	}
}

func (a *App) applyConfig(cfg *config.Config) {
	a.logSvc.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})

	// Validator already ran; parse errors here mean a bug, not bad input.
	if schedCfg, err := schedulerConfig(cfg); err == nil {
		a.sched.Apply(schedCfg)
	}
	if notifCfg, err := notifierConfig(cfg); err == nil {
		a.notif.Apply(notifCfg)
	}
	a.sink.SetRate(cfg.Notifier.RatePerSec)
	a.dig.Apply(digestConfig(cfg))

	if cfg.Store != a.bootStore {
		a.log.Warn("store config changed; restart required to take effect")
	}

	a.log.Info("config applied")
}

// validate runs before a hot-reload is committed. It rejects configs the
// running components could not apply.
func (a *App) validate(ctx context.Context, cfg *config.Config) error {
	_ = ctx
	if cfg.Store.Capacity < 0 {
		return errors.New("store.capacity must be >= 0")
	}
	if _, err := storageConfig(cfg); err != nil {
		return err
	}
	if _, err := schedulerConfig(cfg); err != nil {
		return err
	}
	if _, err := notifierConfig(cfg); err != nil {
		return err
	}
	return a.dig.Validate(digestConfig(cfg))
}

// ---- config translation ----

func storageConfig(cfg *config.Config) (storage.Config, error) {
	busy, err := config.ParseDurationField("store.busy_timeout", cfg.Store.BusyTimeout)
	if err != nil {
		return storage.Config{}, err
	}
	return storage.Config{
		Driver:      cfg.Store.Driver,
		Path:        cfg.Store.Path,
		BusyTimeout: busy,
	}, nil
}

func schedulerConfig(cfg *config.Config) (scheduler.Config, error) {
	poll, err := config.ParseDurationField("scheduler.poll_interval", cfg.Scheduler.PollInterval)
	if err != nil {
		return scheduler.Config{}, err
	}
	return scheduler.Config{PollInterval: poll}, nil
}

func notifierConfig(cfg *config.Config) (notify.Config, error) {
	if len(cfg.Notifier.Countdown) == 0 {
		return notify.Config{}, nil
	}
	offsets := make([]time.Duration, 0, len(cfg.Notifier.Countdown))
	prev := time.Duration(-1)
	for i, raw := range cfg.Notifier.Countdown {
		d, err := config.ParseDurationField(fmt.Sprintf("notifier.countdown[%d]", i), raw)
		if err != nil {
			return notify.Config{}, err
		}
		if d <= prev {
			return notify.Config{}, fmt.Errorf("notifier.countdown: offsets must be strictly ascending")
		}
		prev = d
		offsets = append(offsets, d)
	}
	return notify.Config{Countdown: offsets}, nil
}

func digestConfig(cfg *config.Config) digest.Config {
	if cfg.Digest == nil {
		return digest.Config{}
	}
	return digest.Config{
		Enabled:  cfg.Digest.Enabled,
		Schedule: cfg.Digest.Schedule,
		Timezone: cfg.Digest.Timezone,
		Limit:    cfg.Digest.Limit,
	}
}
