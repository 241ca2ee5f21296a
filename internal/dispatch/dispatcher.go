package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docmake/internal/config"
	dmevents "git.home.luguber.info/inful/docmake/internal/events"
	"git.home.luguber.info/inful/docmake/internal/gitinfo"
	"git.home.luguber.info/inful/docmake/internal/history"
	"git.home.luguber.info/inful/docmake/internal/observability"
	"git.home.luguber.info/inful/docmake/internal/sphinx"
)

// Dispatcher executes resolved plans and records the outcome. History and
// events are optional collaborators; both are nil-safe.
type Dispatcher struct {
	cfg     *config.Config
	runner  sphinx.Runner
	history *history.Store
	events  *dmevents.Publisher
	metrics *observability.MetricsCollector
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithRunner injects a custom builder runner (for testing).
func WithRunner(r sphinx.Runner) Option {
	return func(d *Dispatcher) { d.runner = r }
}

// WithHistory attaches an invocation history store.
func WithHistory(s *history.Store) Option {
	return func(d *Dispatcher) { d.history = s }
}

// WithEvents attaches a build event publisher.
func WithEvents(p *dmevents.Publisher) Option {
	return func(d *Dispatcher) { d.events = p }
}

// WithMetrics attaches a metrics collector.
func WithMetrics(m *observability.MetricsCollector) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// New creates a Dispatcher for one configuration.
func New(cfg *config.Config, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		cfg:    cfg,
		runner: sphinx.NewRunner(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Config returns the dispatcher's configuration.
func (d *Dispatcher) Config() *config.Config { return d.cfg }

// Run resolves the target and executes its single builder command,
// returning the builder's failure unmasked. Live targets run their
// rebuild command once; the surrounding watch loop belongs to the caller.
func (d *Dispatcher) Run(ctx context.Context, target string, extra []string) error {
	plan := Resolve(target, extra, d.cfg)
	return d.RunPlan(ctx, plan)
}

// RunPlan executes one plan's invocation and records history and events.
func (d *Dispatcher) RunPlan(ctx context.Context, plan Plan) error {
	buildID := uuid.NewString()[:8]
	ctx = observability.WithBuildID(ctx, buildID)
	ctx = observability.WithTarget(ctx, plan.Target)

	commit := gitinfo.HeadCommit(d.cfg.SourceDir)

	observability.InfoContext(ctx, "Dispatching build",
		slog.String("command", plan.Invocation.String()))

	d.events.Publish(dmevents.BuildEvent{
		Type:    dmevents.TypeBuildStarted,
		BuildID: buildID,
		Target:  plan.Target,
		Commit:  commit,
	})

	start := time.Now()
	runErr := d.runner.Run(ctx, plan.Invocation)
	duration := time.Since(start)

	exitCode := 0
	recordable := runErr == nil
	var exitErr *sphinx.ExitError
	if errors.As(runErr, &exitErr) {
		exitCode = exitErr.ExitCode()
		recordable = true
	}

	if d.metrics != nil {
		d.metrics.IncrementCounter("builds_total")
		if runErr != nil {
			d.metrics.IncrementCounter("build_failures_total")
		}
		d.metrics.RecordBuildDuration(duration)
	}

	// Only invocations where the builder actually ran are recorded; a
	// missing binary is a dispatcher error, not a build.
	if recordable {
		d.record(ctx, history.Record{
			ID:        buildID,
			Target:    plan.Target,
			Argv:      append([]string{plan.Invocation.Binary}, plan.Invocation.Args...),
			ExitCode:  exitCode,
			Duration:  duration,
			StartedAt: start,
			Commit:    commit,
		})
	}

	d.events.Publish(dmevents.BuildEvent{
		Type:     dmevents.TypeBuildFinished,
		BuildID:  buildID,
		Target:   plan.Target,
		ExitCode: exitCode,
		Duration: duration.Milliseconds(),
		Commit:   commit,
	})

	if runErr != nil {
		observability.ErrorContext(ctx, "Build failed",
			slog.Int("exit_code", exitCode),
			slog.String("error", runErr.Error()))
		return runErr
	}

	observability.InfoContext(ctx, "Build finished",
		slog.Duration("duration", duration))
	return nil
}

func (d *Dispatcher) record(ctx context.Context, rec history.Record) {
	if d.history == nil {
		return
	}
	if err := d.history.Append(ctx, rec); err != nil {
		slog.Warn("Failed to record invocation history", "error", err)
	}
}
