package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/docmake/internal/config"
	"git.home.luguber.info/inful/docmake/internal/dispatch"
	dmerrors "git.home.luguber.info/inful/docmake/internal/errors"
	"git.home.luguber.info/inful/docmake/internal/events"
	"git.home.luguber.info/inful/docmake/internal/history"
	"git.home.luguber.info/inful/docmake/internal/linkverify"
	"git.home.luguber.info/inful/docmake/internal/live"
	"git.home.luguber.info/inful/docmake/internal/schedule"
	"git.home.luguber.info/inful/docmake/internal/sphinx"
	"git.home.luguber.info/inful/docmake/internal/version"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"docmake.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Make struct {
		Target string   `arg:"" help:"Build target (help, html, test, spelling, linkcheck, livehtml, livetest, or any sphinx-build -M mode)"`
		Extra  []string `arg:"" optional:"" passthrough:"" help:"Extra options passed to the builder"`
	} `cmd:"" default:"withargs" help:"Run a documentation build target"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Verify struct {
		Dir string `short:"d" help:"Built site directory to scan (default: <build_dir>/html)"`
	} `cmd:"" help:"Check built HTML for broken internal links"`

	History struct {
		Limit int  `short:"n" help:"Number of invocations to show" default:"20"`
		Stats bool `help:"Show aggregate statistics instead"`
	} `cmd:"" help:"Show recent build invocations"`

	Daemon struct{} `cmd:"" help:"Rebuild the configured target on a schedule"`

	Version struct{} `cmd:"" help:"Show docmake and builder versions"`
}

func main() {
	// Best-effort .env loading before anything reads the environment.
	_ = godotenv.Load()

	ctx := kong.Parse(&CLI,
		kong.Name("docmake"),
		kong.Description("Documentation build dispatcher for Sphinx projects."))

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	adapter := dmerrors.NewCLIErrorAdapter(CLI.Verbose, logger)

	switch ctx.Command() {
	case "make <target>", "make <target> <extra>":
		adapter.HandleError(runMake(CLI.Make.Target, CLI.Make.Extra))
	case "init":
		adapter.HandleError(runInit())
	case "verify":
		adapter.HandleError(runVerify())
	case "history":
		adapter.HandleError(runHistory())
	case "daemon":
		adapter.HandleError(runDaemon())
	case "version":
		adapter.HandleError(runVersion())
	}
}

// newDispatcher assembles a dispatcher with the optional history and
// events collaborators the configuration enables.
func newDispatcher(cfg *config.Config) (*dispatch.Dispatcher, error) {
	opts := []dispatch.Option{}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			// History is a convenience; a broken store must not block builds.
			slog.Warn("History store unavailable; continuing without it", "path", cfg.History.Path, "error", err)
		} else {
			opts = append(opts, dispatch.WithHistory(store))
		}
	}

	publisher, err := events.NewPublisher(&cfg.Events)
	if err != nil {
		slog.Warn("Event publisher unavailable; continuing without it", "url", cfg.Events.NATSURL, "error", err)
	} else if publisher != nil {
		opts = append(opts, dispatch.WithEvents(publisher))
	}

	return dispatch.New(cfg, opts...), nil
}

func runMake(target string, extra []string) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}

	dispatcher, err := newDispatcher(cfg)
	if err != nil {
		return err
	}

	plan := dispatch.Resolve(target, extra, cfg)
	if plan.Live {
		runCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		return live.Serve(runCtx, dispatcher, plan)
	}

	return dispatcher.Run(context.Background(), target, extra)
}

func runInit() error {
	slog.Info("Initializing configuration", "path", CLI.Config, "force", CLI.Init.Force)
	return config.Init(CLI.Config, CLI.Init.Force)
}

func runVerify() error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}

	dir := CLI.Verify.Dir
	if dir == "" {
		dir = filepath.Join(cfg.BuildDir, "html")
	}

	result, err := linkverify.VerifyDir(dir)
	if err != nil {
		return err
	}

	slog.Info("Link verification finished",
		"pages", result.Pages,
		"links", result.Links,
		"broken", len(result.Broken))

	if len(result.Broken) == 0 {
		return nil
	}

	for _, b := range result.Broken {
		fmt.Fprintf(os.Stderr, "%s: broken link %q\n", b.Page, b.URL)
	}
	return dmerrors.New(dmerrors.CategoryValidation, dmerrors.SeverityError, "broken internal links found").
		WithContext("count", len(result.Broken))
}

func runHistory() error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return dmerrors.HistoryError("open", err)
	}
	defer func() { _ = store.Close() }()

	runCtx := context.Background()

	if CLI.History.Stats {
		stats, err := store.GetStats(runCtx)
		if err != nil {
			return dmerrors.HistoryError("stats", err)
		}
		fmt.Printf("total: %d  failed: %d\n", stats.Total, stats.Failed)
		for target, count := range stats.ByTarget {
			fmt.Printf("  %-12s %d\n", target, count)
		}
		return nil
	}

	records, err := store.Recent(runCtx, CLI.History.Limit)
	if err != nil {
		return dmerrors.HistoryError("recent", err)
	}

	for _, rec := range records {
		status := "ok"
		if rec.ExitCode != 0 {
			status = fmt.Sprintf("exit %d", rec.ExitCode)
		}
		commit := rec.Commit
		if commit == "" {
			commit = "-"
		}
		fmt.Printf("%s  %-10s %-8s %8s  %s\n",
			rec.StartedAt.Format(time.RFC3339),
			rec.Target,
			status,
			rec.Duration.Round(time.Millisecond),
			commit)
	}
	return nil
}

func runDaemon() error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}

	runCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	daemon, err := schedule.NewDaemon(cfg, CLI.Config, newDispatcher)
	if err != nil {
		return dmerrors.DaemonError(err)
	}

	if err := daemon.Start(runCtx); err != nil {
		return dmerrors.DaemonError(err)
	}

	slog.Info("Daemon started, waiting for shutdown signal...")
	<-runCtx.Done()
	slog.Info("Shutdown signal received, stopping daemon...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()

	if err := daemon.Stop(stopCtx); err != nil {
		return dmerrors.DaemonError(err)
	}

	slog.Info("Daemon stopped successfully")
	return nil
}

func runVersion() error {
	fmt.Printf("docmake %s\n", version.Version)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}

	probeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	builderVersion, err := sphinx.Version(probeCtx, cfg.Builder)
	if err != nil {
		return err
	}
	fmt.Println(builderVersion)
	return nil
}
