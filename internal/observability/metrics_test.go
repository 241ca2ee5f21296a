package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCountersAndGauges(t *testing.T) {
	mc := NewMetricsCollector()

	mc.IncrementCounter("rebuilds_total")
	mc.IncrementCounter("rebuilds_total")
	mc.IncrementCounter("rebuild_failures_total")
	mc.SetGauge("livereload_clients", 3)

	assert.Equal(t, int64(2), mc.Counter("rebuilds_total"))
	assert.Equal(t, int64(1), mc.Counter("rebuild_failures_total"))
	assert.Equal(t, int64(3), mc.Gauge("livereload_clients"))
	assert.Equal(t, int64(0), mc.Counter("unknown"))
}

func TestSnapshotIsACopy(t *testing.T) {
	mc := NewMetricsCollector()
	mc.IncrementCounter("rebuilds_total")

	snap := mc.GetSnapshot()
	snap.Counters["rebuilds_total"] = 99

	assert.Equal(t, int64(1), mc.Counter("rebuilds_total"))
}

func TestDurationStats(t *testing.T) {
	mc := NewMetricsCollector()
	for _, d := range []time.Duration{time.Second, 2 * time.Second, 3 * time.Second, 4 * time.Second} {
		mc.RecordBuildDuration(d)
	}

	stats := mc.GetSnapshot().Builds
	assert.Equal(t, int64(4), stats.Count)
	assert.InDelta(t, 2.5, stats.MeanS, 0.001)
	assert.InDelta(t, 4.0, stats.MaxS, 0.001)
	assert.InDelta(t, 2.0, stats.P50S, 0.001)
}

func TestEmptyDurationStats(t *testing.T) {
	stats := NewMetricsCollector().GetSnapshot().Builds
	assert.Equal(t, int64(0), stats.Count)
	assert.Equal(t, 0.0, stats.MaxS)
}
