package live

import (
	"bufio"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"git.home.luguber.info/inful/docmake/internal/observability"
)

// ReloadHub manages SSE clients for rebuild broadcasts. Each successful
// rebuild bumps a generation counter; connected pages reload when they
// see a generation newer than the one they loaded with.
type ReloadHub struct {
	mu      sync.RWMutex
	nextID  int
	clients map[int]*reloadClient
	metrics *observability.MetricsCollector
	closed  bool
	lastGen string
}

type reloadClient struct {
	id   int
	ch   chan string
	done chan struct{}
}

// NewReloadHub creates a hub; metrics may be nil.
func NewReloadHub(mc *observability.MetricsCollector) *ReloadHub {
	return &ReloadHub{clients: map[int]*reloadClient{}, metrics: mc}
}

// ServeHTTP implements the SSE endpoint at /livereload.
func (h *ReloadHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "livereload shutting down", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	client := &reloadClient{ch: make(chan string, 8), done: make(chan struct{})}
	h.mu.Lock()
	client.id = h.nextID
	h.nextID++
	h.clients[client.id] = client
	current := h.lastGen
	clientCount := len(h.clients)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.IncrementCounter("livereload_connections_total")
		h.metrics.SetGauge("livereload_clients", int64(clientCount))
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(": connected\n\n"); err != nil {
		slog.Debug("livereload write", "error", err)
		return
	}
	if current != "" {
		if _, err := bw.WriteString(sseEvent(current)); err != nil {
			slog.Debug("livereload write", "error", err)
			return
		}
	}
	if err := bw.Flush(); err == nil {
		flusher.Flush()
	}

	hb := time.NewTicker(30 * time.Second)
	defer hb.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			h.removeClient(client.id)
			return
		case <-client.done:
			return
		case <-hb.C:
			if _, err := bw.WriteString(": ping\n\n"); err == nil {
				bw.Flush()
				flusher.Flush()
			} else {
				slog.Debug("livereload ping write", "error", err)
				h.removeClient(client.id)
				return
			}
		case gen := <-client.ch:
			if _, err := bw.WriteString(sseEvent(gen)); err == nil {
				bw.Flush()
				flusher.Flush()
			} else {
				slog.Debug("livereload broadcast write", "error", err)
				h.removeClient(client.id)
				return
			}
		}
	}
}

func sseEvent(gen string) string {
	return fmt.Sprintf("data: {\"generation\":%q}\n\n", gen)
}

func (h *ReloadHub) removeClient(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.done)
		if h.metrics != nil {
			h.metrics.SetGauge("livereload_clients", int64(len(h.clients)))
		}
	}
}

// Broadcast sends a new generation to all clients; clients with full
// channels are dropped.
func (h *ReloadHub) Broadcast(gen string) {
	h.mu.Lock()
	if h.closed || gen == "" || gen == h.lastGen {
		h.mu.Unlock()
		return
	}
	h.lastGen = gen
	snapshot := make([]*reloadClient, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	for _, c := range snapshot {
		select {
		case c.ch <- gen:
		default:
			h.removeClient(c.id)
		}
	}
	if h.metrics != nil {
		h.metrics.IncrementCounter("livereload_broadcasts_total")
	}
}

// Close stops accepting clients and disconnects the current ones.
func (h *ReloadHub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	snapshot := make([]*reloadClient, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.clients = map[int]*reloadClient{}
	h.mu.Unlock()

	for _, c := range snapshot {
		close(c.done)
	}
}
