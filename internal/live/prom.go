package live

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"git.home.luguber.info/inful/docmake/internal/observability"
)

// promBridge exposes the in-memory collector as Prometheus metrics
// (scrape-time gauge funcs over the collector's counters).
type promBridge struct {
	registry *prom.Registry
}

func newPromBridge(mc *observability.MetricsCollector, state *buildState) *promBridge {
	registry := prom.NewRegistry()

	rebuilds := prom.NewGaugeFunc(prom.GaugeOpts{
		Namespace: "docmake", Name: "live_rebuilds_total",
		Help: "Rebuilds triggered in this live session",
	}, func() float64 { return float64(mc.Counter("builds_total")) })

	failures := prom.NewGaugeFunc(prom.GaugeOpts{
		Namespace: "docmake", Name: "live_rebuild_failures_total",
		Help: "Failed rebuilds in this live session",
	}, func() float64 { return float64(mc.Counter("build_failures_total")) })

	clients := prom.NewGaugeFunc(prom.GaugeOpts{
		Namespace: "docmake", Name: "livereload_clients",
		Help: "Currently connected livereload clients",
	}, func() float64 { return float64(mc.Gauge("livereload_clients")) })

	broadcasts := prom.NewGaugeFunc(prom.GaugeOpts{
		Namespace: "docmake", Name: "livereload_broadcasts_total",
		Help: "Reload broadcasts sent to clients",
	}, func() float64 { return float64(mc.Counter("livereload_broadcasts_total")) })

	lastDuration := prom.NewGaugeFunc(prom.GaugeOpts{
		Namespace: "docmake", Name: "live_last_build_seconds",
		Help: "Duration of the most recent rebuild",
	}, func() float64 {
		state.mu.RLock()
		defer state.mu.RUnlock()
		return state.lastDuration.Seconds()
	})

	registry.MustRegister(rebuilds, failures, clients, broadcasts, lastDuration)
	registry.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))

	return &promBridge{registry: registry}
}

// Handler returns the /metrics HTTP handler.
func (b *promBridge) Handler() http.Handler {
	return promhttp.HandlerFor(b.registry, promhttp.HandlerOpts{})
}
