package live

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"git.home.luguber.info/inful/docmake/internal/dispatch"
	"git.home.luguber.info/inful/docmake/internal/observability"
)

// Serve runs a live target: an initial build, then rebuilds on debounced
// filesystem changes, with the preview server up throughout. It blocks
// until ctx is cancelled. A failing rebuild never stops the loop; the
// last good output keeps being served and the error lands on /status.
func Serve(ctx context.Context, d *dispatch.Dispatcher, plan dispatch.Plan) error {
	if !plan.Live {
		return fmt.Errorf("target %q is not a live target", plan.Target)
	}

	cfg := d.Config()
	metrics := observability.NewMetricsCollector()
	state := newBuildState(plan.Target, plan.Invocation.String())
	hub := NewReloadHub(metrics)

	// Initial build. Failures are surfaced but not fatal; the watcher
	// gives the author a rebuild on their next save.
	runRebuild(ctx, d, plan, state, hub, metrics)

	siteDir := ""
	if plan.Target == dispatch.TargetLiveHTML {
		siteDir = filepath.Join(cfg.BuildDir, "html")
	}

	server := NewServer(
		fmt.Sprintf("%s:%d", cfg.Live.Host, cfg.Live.Port),
		siteDir,
		hub,
		state,
		newPromBridge(metrics, state),
	)
	if err := server.Start(ctx); err != nil {
		return err
	}

	watcher, err := NewWatcher(plan.Watch, plan.Ignore)
	if err != nil {
		stopServer(server)
		return err
	}
	defer func() { _ = watcher.Close() }()

	debouncer := NewDebouncer(DefaultDebounce)
	defer debouncer.Stop()

	worker := startRebuildWorker(ctx, d, plan, state, hub, metrics, debouncer.Requests())

	slog.Info("Watching for changes",
		"paths", plan.Watch,
		"ignore", plan.Ignore,
		"target", plan.Target)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Shutting down live preview")
			stopServer(server)
			worker.Wait()
			return nil
		case ev, ok := <-watcher.Events():
			if !ok {
				stopServer(server)
				return nil
			}
			if watcher.HandleEvent(ev) {
				debouncer.Trigger()
			}
		case err, ok := <-watcher.Errors():
			if !ok {
				stopServer(server)
				return nil
			}
			slog.Warn("watcher error", "error", err)
		}
	}
}

func stopServer(server *Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		slog.Warn("Preview server shutdown error", "error", err)
	}
}

// rebuildWorker serializes rebuilds: at most one runs at a time, and a
// request arriving mid-build queues exactly one follow-up.
type rebuildWorker struct {
	wg sync.WaitGroup
}

func (w *rebuildWorker) Wait() { w.wg.Wait() }

func startRebuildWorker(ctx context.Context, d *dispatch.Dispatcher, plan dispatch.Plan, state *buildState, hub *ReloadHub, metrics *observability.MetricsCollector, requests <-chan struct{}) *rebuildWorker {
	worker := &rebuildWorker{}
	worker.wg.Add(1)

	go func() {
		defer worker.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-requests:
				if !ok {
					return
				}
				slog.Info("Change detected; rebuilding", "target", plan.Target)
				runRebuild(ctx, d, plan, state, hub, metrics)
			}
		}
	}()

	return worker
}

// runRebuild executes one blocking builder run and updates state and
// connected clients.
func runRebuild(ctx context.Context, d *dispatch.Dispatcher, plan dispatch.Plan, state *buildState, hub *ReloadHub, metrics *observability.MetricsCollector) {
	start := time.Now()
	err := d.RunPlan(ctx, plan)
	duration := time.Since(start)

	metrics.IncrementCounter("builds_total")
	metrics.RecordBuildDuration(duration)

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		metrics.IncrementCounter("build_failures_total")
		slog.Warn("rebuild failed", "target", plan.Target, "error", err)
		state.setError(err, duration)
		return
	}

	state.setSuccess(duration)
	state.mu.RLock()
	gen := state.generation
	state.mu.RUnlock()
	hub.Broadcast(strconv.FormatInt(gen, 10))
}
