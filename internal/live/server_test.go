package live

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docmake/internal/observability"
)

func newTestServer(t *testing.T, siteDir string) (*Server, *buildState) {
	t.Helper()
	metrics := observability.NewMetricsCollector()
	state := newBuildState("livehtml", "sphinx-build -b html docs docs/_build/html")
	hub := NewReloadHub(metrics)
	t.Cleanup(hub.Close)
	return NewServer("127.0.0.1:0", siteDir, hub, state, newPromBridge(metrics, state)), state
}

func TestHandleStatus(t *testing.T) {
	server, state := newTestServer(t, "")
	state.setSuccess(2 * time.Second)
	state.setError(fmt.Errorf("rst parse error"), time.Second)

	rec := httptest.NewRecorder()
	server.handleStatus(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "livehtml", snap.Target)
	assert.Equal(t, int64(2), snap.Rebuilds)
	assert.Equal(t, int64(1), snap.Failures)
	assert.True(t, snap.HasGoodBuild)
	assert.Equal(t, "rst parse error", snap.LastError)
}

func TestHandleReportRendersHTML(t *testing.T) {
	server, state := newTestServer(t, "")
	state.setError(fmt.Errorf("undefined label: install"), time.Second)

	rec := httptest.NewRecorder()
	server.handleReport(rec, httptest.NewRequest(http.MethodGet, "/report", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<table>")
	assert.Contains(t, body, "undefined label: install")
	assert.Contains(t, body, "EventSource")
}

func TestHandleRootInjectsReloadScript(t *testing.T) {
	siteDir := t.TempDir()
	page := "<html><body><h1>Docs</h1></body></html>"
	require.NoError(t, os.WriteFile(filepath.Join(siteDir, "index.html"), []byte(page), 0o644))

	server, _ := newTestServer(t, siteDir)

	rec := httptest.NewRecorder()
	server.handleRoot(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<h1>Docs</h1>")
	assert.Contains(t, body, "EventSource")
	// Script lands before the closing body tag.
	assert.Less(t, strings.Index(body, "EventSource"), strings.Index(body, "</body>"))
}

func TestHandleRootServesAssetsVerbatim(t *testing.T) {
	siteDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(siteDir, "_static"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(siteDir, "_static", "custom.css"), []byte("body{}"), 0o644))

	server, _ := newTestServer(t, siteDir)

	rec := httptest.NewRecorder()
	server.handleRoot(rec, httptest.NewRequest(http.MethodGet, "/_static/custom.css", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "body{}", rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "EventSource")
}

func TestHandleRootBlocksTraversal(t *testing.T) {
	siteDir := t.TempDir()
	server, _ := newTestServer(t, siteDir)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.URL.Path = "/../secret"
	server.handleRoot(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleRootWithoutSiteRedirectsToReport(t *testing.T) {
	server, _ := newTestServer(t, "")

	rec := httptest.NewRecorder()
	server.handleRoot(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/report", rec.Header().Get("Location"))
}

func TestReloadHubBroadcast(t *testing.T) {
	hub := NewReloadHub(nil)
	defer hub.Close()

	srv := httptest.NewServer(hub)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// Wait for the client to register before broadcasting.
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients) == 1
	}, time.Second, 10*time.Millisecond)

	hub.Broadcast("1")

	buf := make([]byte, 256)
	deadline := time.Now().Add(2 * time.Second)
	var received strings.Builder
	for time.Now().Before(deadline) {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			received.Write(buf[:n])
			if strings.Contains(received.String(), `"generation":"1"`) {
				return
			}
		}
		if err != nil {
			break
		}
	}
	t.Fatalf("generation event not received, got %q", received.String())
}

func TestReloadHubDedupesGenerations(t *testing.T) {
	metrics := observability.NewMetricsCollector()
	hub := NewReloadHub(metrics)
	defer hub.Close()

	hub.Broadcast("1")
	hub.Broadcast("1")
	hub.Broadcast("2")

	assert.Equal(t, int64(2), metrics.Counter("livereload_broadcasts_total"))
}
