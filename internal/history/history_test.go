package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(target string, exitCode int, startedAt time.Time) Record {
	return Record{
		ID:        uuid.NewString(),
		Target:    target,
		Argv:      []string{"sphinx-build", "-M", target, ".", "_build"},
		ExitCode:  exitCode,
		Duration:  2 * time.Second,
		StartedAt: startedAt,
		Commit:    "abc123def456",
	}
}

func TestAppendAndRecent(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	base := time.Now().Add(-time.Hour).Truncate(time.Second)

	require.NoError(t, store.Append(ctx, testRecord("html", 0, base)))
	require.NoError(t, store.Append(ctx, testRecord("spelling", 2, base.Add(time.Minute))))
	require.NoError(t, store.Append(ctx, testRecord("linkcheck", 1, base.Add(2*time.Minute))))

	records, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Newest first.
	assert.Equal(t, "linkcheck", records[0].Target)
	assert.Equal(t, "spelling", records[1].Target)
	assert.Equal(t, 2, records[1].ExitCode)
	assert.Equal(t, []string{"sphinx-build", "-M", "spelling", ".", "_build"}, records[1].Argv)
	assert.Equal(t, 2*time.Second, records[1].Duration)
	assert.Equal(t, base.Add(time.Minute).Unix(), records[1].StartedAt.Unix())
}

func TestGetStats(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Append(ctx, testRecord("html", 0, now)))
	require.NoError(t, store.Append(ctx, testRecord("html", 0, now.Add(time.Second))))
	require.NoError(t, store.Append(ctx, testRecord("test", 1, now.Add(2*time.Second))))

	stats, err := store.GetStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(2), stats.ByTarget["html"])
	assert.Equal(t, int64(1), stats.ByTarget["test"])
}

func TestOpenCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".docmake", "history.db")

	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Append(context.Background(), testRecord("html", 0, time.Now())))

	stats, err := store.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Total)
}
