package live

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// reloadScript subscribes a served page to the SSE hub and reloads it on
// the first generation change after page load.
const reloadScript = `<script>
(function () {
  var loadedGen = null;
  var es = new EventSource("/livereload");
  es.onmessage = function (ev) {
    var gen = JSON.parse(ev.data).generation;
    if (loadedGen === null) { loadedGen = gen; return; }
    if (gen !== loadedGen) { location.reload(); }
  };
})();
</script>`

// Server is the preview HTTP server for live targets. It serves the built
// site (when one exists), the SSE reload endpoint, and the status, report,
// and metrics endpoints.
type Server struct {
	addr    string
	siteDir string // rendered output dir; empty for livetest
	hub     *ReloadHub
	state   *buildState
	prom    *promBridge
	httpSrv *http.Server
}

// NewServer creates a preview server. siteDir may be empty when the live
// target produces no rendered output; the root then serves the report.
func NewServer(addr, siteDir string, hub *ReloadHub, state *buildState, prom *promBridge) *Server {
	return &Server{
		addr:    addr,
		siteDir: siteDir,
		hub:     hub,
		state:   state,
		prom:    prom,
	}
}

// Start begins listening. It returns once the listener is bound so the
// caller can log the final address; serving continues in the background.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/livereload", s.hub)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/report", s.handleReport)
	if s.prom != nil {
		mux.Handle("/metrics", s.prom.Handler())
	}
	mux.HandleFunc("/", s.handleRoot)

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}

	s.httpSrv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Preview server failed", "error", err)
		}
	}()

	slog.Info("Preview server listening", "url", fmt.Sprintf("http://%s", listener.Addr()))
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.hub.Close()
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.state.snapshot()); err != nil {
		slog.Debug("status encode", "error", err)
	}
}

func (s *Server) handleReport(w http.ResponseWriter, _ *http.Request) {
	page, err := s.state.reportHTML()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

// handleRoot serves the built site with the reload script injected into
// HTML pages. Without a site dir (livetest) or before the first good
// build, it redirects to the report.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if s.siteDir == "" {
		http.Redirect(w, r, "/report", http.StatusFound)
		return
	}

	reqPath := filepath.Clean(strings.TrimPrefix(r.URL.Path, "/"))
	if reqPath == "." || reqPath == "" {
		reqPath = "index.html"
	}
	target := filepath.Join(s.siteDir, filepath.FromSlash(reqPath))

	// Stay inside the site root.
	if rel, err := filepath.Rel(s.siteDir, target); err != nil || strings.HasPrefix(rel, "..") {
		http.NotFound(w, r)
		return
	}

	st, err := os.Stat(target)
	if err != nil {
		if reqPath == "index.html" {
			http.Redirect(w, r, "/report", http.StatusFound)
			return
		}
		http.NotFound(w, r)
		return
	}
	if st.IsDir() {
		target = filepath.Join(target, "index.html")
		if _, err := os.Stat(target); err != nil {
			http.NotFound(w, r)
			return
		}
	}

	if strings.HasSuffix(target, ".html") {
		s.serveInjected(w, r, target)
		return
	}
	http.ServeFile(w, r, target)
}

// serveInjected serves an HTML file with the reload script appended
// before </body>, falling back to plain append when no closing tag exists.
func (s *Server) serveInjected(w http.ResponseWriter, r *http.Request, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if idx := bytes.LastIndex(data, []byte("</body>")); idx >= 0 {
		var buf bytes.Buffer
		buf.Write(data[:idx])
		buf.WriteString(reloadScript)
		buf.Write(data[idx:])
		data = buf.Bytes()
	} else {
		data = append(data, []byte(reloadScript)...)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(data)
}

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.addr }
