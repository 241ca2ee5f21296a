// Package schedule implements daemon mode: a periodic rebuild of one
// configured target, with the configuration file watched for changes.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"git.home.luguber.info/inful/docmake/internal/config"
	"git.home.luguber.info/inful/docmake/internal/dispatch"
)

// DispatcherFactory builds a dispatcher for a (re)loaded configuration.
type DispatcherFactory func(cfg *config.Config) (*dispatch.Dispatcher, error)

// Daemon periodically re-runs a configured target.
type Daemon struct {
	configPath string
	factory    DispatcherFactory

	mu         sync.RWMutex
	cfg        *config.Config
	dispatcher *dispatch.Dispatcher
	scheduler  gocron.Scheduler
	jobID      uuid.UUID
	runs       int64
	failures   int64
}

// NewDaemon creates a daemon from an initial configuration.
func NewDaemon(cfg *config.Config, configPath string, factory DispatcherFactory) (*Daemon, error) {
	dispatcher, err := factory(cfg)
	if err != nil {
		return nil, err
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Daemon{
		configPath: configPath,
		factory:    factory,
		cfg:        cfg,
		dispatcher: dispatcher,
		scheduler:  scheduler,
	}, nil
}

// Start schedules the periodic build and begins watching the config file.
// It returns immediately; jobs run on scheduler goroutines.
func (d *Daemon) Start(ctx context.Context) error {
	interval, err := time.ParseDuration(d.cfg.Daemon.Interval)
	if err != nil {
		return fmt.Errorf("parse daemon interval: %w", err)
	}

	if err := d.schedule(ctx, interval); err != nil {
		return err
	}
	d.scheduler.Start()

	slog.Info("Daemon started",
		"target", d.cfg.Daemon.Target,
		"interval", interval.String(),
		"config", d.configPath)

	if d.configPath != "" {
		watcher, err := NewConfigWatcher(d.configPath, d)
		if err != nil {
			return err
		}
		if err := watcher.Start(ctx); err != nil {
			return err
		}
	}

	return nil
}

// Stop shuts the scheduler down gracefully.
func (d *Daemon) Stop(_ context.Context) error {
	slog.Info("Stopping daemon scheduler")
	return d.scheduler.Shutdown()
}

// RunOnce executes the configured target immediately, outside the schedule.
func (d *Daemon) RunOnce(ctx context.Context) error {
	d.mu.RLock()
	dispatcher := d.dispatcher
	target := d.cfg.Daemon.Target
	d.mu.RUnlock()

	return dispatcher.Run(ctx, target, nil)
}

// Runs returns how many scheduled builds have executed and failed.
func (d *Daemon) Runs() (runs, failures int64) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.runs, d.failures
}

func (d *Daemon) schedule(ctx context.Context, interval time.Duration) error {
	job, err := d.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(d.executeScheduledBuild, ctx),
		gocron.WithName(fmt.Sprintf("%s-build", d.cfg.Daemon.Target)),
	)
	if err != nil {
		return fmt.Errorf("failed to create periodic build job: %w", err)
	}

	d.mu.Lock()
	d.jobID = job.ID()
	d.mu.Unlock()
	return nil
}

// executeScheduledBuild runs one scheduled build. Failures are logged and
// counted; the schedule keeps going.
func (d *Daemon) executeScheduledBuild(ctx context.Context) {
	d.mu.RLock()
	dispatcher := d.dispatcher
	target := d.cfg.Daemon.Target
	d.mu.RUnlock()

	slog.Info("Executing scheduled build", "target", target)

	err := dispatcher.Run(ctx, target, nil)

	d.mu.Lock()
	d.runs++
	if err != nil {
		d.failures++
	}
	d.mu.Unlock()

	if err != nil {
		slog.Warn("Scheduled build failed", "target", target, "error", err)
	}
}

// Reload swaps in a freshly loaded configuration and reschedules the
// periodic job when the interval or target changed.
func (d *Daemon) Reload(ctx context.Context) error {
	cfg, err := config.Load(d.configPath)
	if err != nil {
		return fmt.Errorf("reload config: %w", err)
	}

	dispatcher, err := d.factory(cfg)
	if err != nil {
		return fmt.Errorf("rebuild dispatcher: %w", err)
	}

	interval, err := time.ParseDuration(cfg.Daemon.Interval)
	if err != nil {
		return fmt.Errorf("parse daemon interval: %w", err)
	}

	d.mu.Lock()
	oldInterval := d.cfg.Daemon.Interval
	oldTarget := d.cfg.Daemon.Target
	d.cfg = cfg
	d.dispatcher = dispatcher
	jobID := d.jobID
	d.mu.Unlock()

	if cfg.Daemon.Interval != oldInterval || cfg.Daemon.Target != oldTarget {
		if err := d.scheduler.RemoveJob(jobID); err != nil {
			slog.Warn("Failed to remove stale job during reload", "error", err)
		}
		if err := d.schedule(ctx, interval); err != nil {
			return err
		}
	}

	slog.Info("Configuration reloaded",
		"target", cfg.Daemon.Target,
		"interval", cfg.Daemon.Interval)
	return nil
}
