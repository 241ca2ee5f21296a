// Package events publishes build lifecycle events over NATS so other
// tooling (CI dashboards, notifiers) can react to documentation builds.
// Publishing is optional and best-effort: a nil Publisher is a no-op and
// publish failures never fail a build.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/docmake/internal/config"
)

const (
	TypeBuildStarted  = "build.started"
	TypeBuildFinished = "build.finished"
)

// BuildEvent is the wire payload for one build lifecycle event.
type BuildEvent struct {
	Type      string    `json:"type"`
	BuildID   string    `json:"build_id"`
	Target    string    `json:"target"`
	ExitCode  int       `json:"exit_code,omitempty"`
	Duration  int64     `json:"duration_ms,omitempty"`
	Commit    string    `json:"commit,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher publishes build events to a NATS subject.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// NewPublisher connects to NATS using the events configuration.
// Returns (nil, nil) when events are disabled.
func NewPublisher(cfg *config.EventsConfig) (*Publisher, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	conn, err := nats.Connect(cfg.NATSURL,
		nats.Name("docmake"),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	slog.Info("Event publisher connected", "url", cfg.NATSURL, "subject", cfg.Subject)

	return &Publisher{conn: conn, subject: cfg.Subject}, nil
}

// Publish sends one event. Safe to call on a nil Publisher.
func (p *Publisher) Publish(event BuildEvent) {
	if p == nil {
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		slog.Warn("Failed to marshal build event", "type", event.Type, "error", err)
		return
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		slog.Warn("Failed to publish build event", "subject", p.subject, "type", event.Type, "error", err)
	}
}

// Close flushes and closes the connection. Safe to call on a nil Publisher.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	if err := p.conn.Flush(); err != nil {
		slog.Debug("Flush on event publisher close", "error", err)
	}
	p.conn.Close()
}
