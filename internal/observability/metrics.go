package observability

import (
	"maps"
	"sort"
	"sync"
	"time"
)

// MetricsCollector aggregates build metrics for the preview server and
// the prometheus bridge.
type MetricsCollector struct {
	startTime time.Time
	mu        sync.RWMutex

	counters       map[string]int64
	gauges         map[string]int64
	buildDurations []time.Duration
}

// MetricSnapshot represents a point-in-time view of metrics.
type MetricSnapshot struct {
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Counters  map[string]int64 `json:"counters"`
	Gauges    map[string]int64 `json:"gauges"`
	Builds    DurationStats    `json:"builds"`
}

// DurationStats summarizes recorded build durations.
type DurationStats struct {
	Count int64   `json:"count"`
	MeanS float64 `json:"mean_s"`
	P50S  float64 `json:"p50_s"`
	P95S  float64 `json:"p95_s"`
	MaxS  float64 `json:"max_s"`
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		startTime: time.Now(),
		counters:  make(map[string]int64),
		gauges:    make(map[string]int64),
	}
}

// IncrementCounter increments a counter metric.
func (mc *MetricsCollector) IncrementCounter(name string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.counters[name]++
}

// SetGauge sets a gauge metric to a value.
func (mc *MetricsCollector) SetGauge(name string, value int64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.gauges[name] = value
}

// RecordBuildDuration records how long one build took.
func (mc *MetricsCollector) RecordBuildDuration(d time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.buildDurations = append(mc.buildDurations, d)
}

// Counter returns the current value of a counter (0 if never incremented).
func (mc *MetricsCollector) Counter(name string) int64 {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.counters[name]
}

// Gauge returns the current value of a gauge (0 if never set).
func (mc *MetricsCollector) Gauge(name string) int64 {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.gauges[name]
}

// GetSnapshot returns a point-in-time copy of all metrics.
func (mc *MetricsCollector) GetSnapshot() MetricSnapshot {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	snap := MetricSnapshot{
		Timestamp: time.Now(),
		Uptime:    time.Since(mc.startTime).Round(time.Second).String(),
		Counters:  make(map[string]int64, len(mc.counters)),
		Gauges:    make(map[string]int64, len(mc.gauges)),
		Builds:    summarizeDurations(mc.buildDurations),
	}
	maps.Copy(snap.Counters, mc.counters)
	maps.Copy(snap.Gauges, mc.gauges)

	return snap
}

func summarizeDurations(durations []time.Duration) DurationStats {
	stats := DurationStats{Count: int64(len(durations))}
	if len(durations) == 0 {
		return stats
	}

	sorted := make([]float64, len(durations))
	var sum float64
	for i, d := range durations {
		sorted[i] = d.Seconds()
		sum += d.Seconds()
	}
	sort.Float64s(sorted)

	stats.MeanS = sum / float64(len(sorted))
	stats.P50S = percentile(sorted, 0.50)
	stats.P95S = percentile(sorted, 0.95)
	stats.MaxS = sorted[len(sorted)-1]
	return stats
}

// percentile expects values sorted ascending.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}
