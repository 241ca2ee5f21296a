package schedule

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docmake/internal/config"
	"git.home.luguber.info/inful/docmake/internal/dispatch"
	"git.home.luguber.info/inful/docmake/internal/sphinx"
)

// countingRunner counts builder invocations across dispatcher rebuilds.
type countingRunner struct {
	count atomic.Int64
	err   error
}

func (c *countingRunner) Run(_ context.Context, _ sphinx.Invocation) error {
	c.count.Add(1)
	return c.err
}

func testDaemon(t *testing.T, runner sphinx.Runner, configPath string) *Daemon {
	t.Helper()
	cfg := config.Default()
	cfg.Daemon.Interval = "1m"

	factory := func(cfg *config.Config) (*dispatch.Dispatcher, error) {
		return dispatch.New(cfg, dispatch.WithRunner(runner)), nil
	}

	d, err := NewDaemon(cfg, configPath, factory)
	require.NoError(t, err)
	return d
}

func TestRunOnceExecutesConfiguredTarget(t *testing.T) {
	runner := &countingRunner{}
	d := testDaemon(t, runner, "")

	require.NoError(t, d.RunOnce(context.Background()))
	assert.Equal(t, int64(1), runner.count.Load())
}

func TestExecuteScheduledBuildCountsFailures(t *testing.T) {
	runner := &countingRunner{err: &sphinx.ExitError{Code: 1}}
	d := testDaemon(t, runner, "")

	d.executeScheduledBuild(context.Background())
	d.executeScheduledBuild(context.Background())

	runs, failures := d.Runs()
	assert.Equal(t, int64(2), runs)
	assert.Equal(t, int64(2), failures)
}

func TestReloadSwapsConfiguration(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "docmake.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("daemon:\n  target: html\n  interval: 30m\n"), 0o644))

	runner := &countingRunner{}
	d := testDaemon(t, runner, configPath)
	require.NoError(t, d.Start(context.Background()))
	defer func() { _ = d.Stop(context.Background()) }()

	require.NoError(t, os.WriteFile(configPath, []byte("daemon:\n  target: linkcheck\n  interval: 45m\n"), 0o644))
	require.NoError(t, d.Reload(context.Background()))

	d.mu.RLock()
	target := d.cfg.Daemon.Target
	interval := d.cfg.Daemon.Interval
	d.mu.RUnlock()

	assert.Equal(t, "linkcheck", target)
	assert.Equal(t, "45m", interval)
}

func TestReloadRejectsBrokenConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "docmake.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("daemon:\n  interval: 30m\n"), 0o644))

	runner := &countingRunner{}
	d := testDaemon(t, runner, configPath)
	require.NoError(t, d.Start(context.Background()))
	defer func() { _ = d.Stop(context.Background()) }()

	require.NoError(t, os.WriteFile(configPath, []byte("daemon:\n  interval: soon\n"), 0o644))
	assert.Error(t, d.Reload(context.Background()))

	// Previous configuration remains active.
	d.mu.RLock()
	interval := d.cfg.Daemon.Interval
	d.mu.RUnlock()
	assert.Equal(t, "30m", interval)
}

func TestConfigWatcherDebouncesReloads(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "docmake.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("daemon:\n  interval: 30m\n"), 0o644))

	runner := &countingRunner{}
	d := testDaemon(t, runner, configPath)

	cw, err := NewConfigWatcher(configPath, d)
	require.NoError(t, err)
	cw.debounceTime = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, cw.Start(ctx))
	defer func() { _ = cw.Stop() }()

	// A burst of writes coalesces into one reload.
	for range 3 {
		require.NoError(t, os.WriteFile(configPath, []byte("daemon:\n  interval: 45m\n"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		d.mu.RLock()
		defer d.mu.RUnlock()
		return d.cfg.Daemon.Interval == "45m"
	}, 3*time.Second, 50*time.Millisecond)
}
