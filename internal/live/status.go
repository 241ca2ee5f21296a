package live

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// buildState tracks the most recent rebuild outcome for the status and
// report endpoints.
type buildState struct {
	mu           sync.RWMutex
	target       string
	command      string
	generation   int64
	rebuilds     int64
	failures     int64
	lastError    error
	lastDuration time.Duration
	lastFinished time.Time
	hasGoodBuild bool
}

func newBuildState(target, command string) *buildState {
	return &buildState{target: target, command: command}
}

func (bs *buildState) setSuccess(d time.Duration) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.generation++
	bs.rebuilds++
	bs.lastError = nil
	bs.lastDuration = d
	bs.lastFinished = time.Now()
	bs.hasGoodBuild = true
}

func (bs *buildState) setError(err error, d time.Duration) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.rebuilds++
	bs.failures++
	bs.lastError = err
	bs.lastDuration = d
	bs.lastFinished = time.Now()
}

// Snapshot is the JSON shape served at /status.
type Snapshot struct {
	Target       string `json:"target"`
	Command      string `json:"command"`
	Generation   int64  `json:"generation"`
	Rebuilds     int64  `json:"rebuilds"`
	Failures     int64  `json:"failures"`
	HasGoodBuild bool   `json:"has_good_build"`
	LastError    string `json:"last_error,omitempty"`
	LastDuration string `json:"last_duration,omitempty"`
	LastFinished string `json:"last_finished,omitempty"`
}

func (bs *buildState) snapshot() Snapshot {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	snap := Snapshot{
		Target:       bs.target,
		Command:      bs.command,
		Generation:   bs.generation,
		Rebuilds:     bs.rebuilds,
		Failures:     bs.failures,
		HasGoodBuild: bs.hasGoodBuild,
	}
	if bs.lastError != nil {
		snap.LastError = bs.lastError.Error()
	}
	if bs.lastDuration > 0 {
		snap.LastDuration = bs.lastDuration.Round(time.Millisecond).String()
	}
	if !bs.lastFinished.IsZero() {
		snap.LastFinished = bs.lastFinished.Format(time.RFC3339)
	}
	return snap
}

// reportMarkdown renders the last-build report as markdown.
func (bs *buildState) reportMarkdown() string {
	snap := bs.snapshot()

	var b strings.Builder
	fmt.Fprintf(&b, "# docmake live report\n\n")
	fmt.Fprintf(&b, "| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Target | `%s` |\n", snap.Target)
	fmt.Fprintf(&b, "| Command | `%s` |\n", snap.Command)
	fmt.Fprintf(&b, "| Rebuilds | %d |\n", snap.Rebuilds)
	fmt.Fprintf(&b, "| Failures | %d |\n", snap.Failures)
	if snap.LastDuration != "" {
		fmt.Fprintf(&b, "| Last duration | %s |\n", snap.LastDuration)
	}
	if snap.LastFinished != "" {
		fmt.Fprintf(&b, "| Last finished | %s |\n", snap.LastFinished)
	}

	if snap.LastError != "" {
		fmt.Fprintf(&b, "\n## Last error\n\n```\n%s\n```\n", snap.LastError)
		if snap.HasGoodBuild {
			b.WriteString("\nThe previously built site is still being served.\n")
		}
	} else if snap.HasGoodBuild {
		b.WriteString("\nLast build succeeded.\n")
	} else {
		b.WriteString("\nNo build has completed yet.\n")
	}

	return b.String()
}

var reportRenderer = goldmark.New(goldmark.WithExtensions(extension.Table))

// reportHTML renders the markdown report into a standalone HTML page.
func (bs *buildState) reportHTML() ([]byte, error) {
	var body bytes.Buffer
	if err := reportRenderer.Convert([]byte(bs.reportMarkdown()), &body); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>docmake live report</title></head><body>\n")
	page.Write(body.Bytes())
	page.WriteString(reloadScript)
	page.WriteString("</body></html>\n")
	return page.Bytes(), nil
}
