package config

import (
	"strings"
	"time"

	"git.home.luguber.info/inful/docmake/internal/errors"
)

// Validate checks configuration fields that would otherwise surface as
// confusing builder failures later.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SourceDir) == "" {
		return errors.ValidationFailed("source_dir", "must not be empty")
	}
	if strings.TrimSpace(c.BuildDir) == "" {
		return errors.ValidationFailed("build_dir", "must not be empty")
	}
	if strings.TrimSpace(c.Builder) == "" {
		return errors.ValidationFailed("builder", "must not be empty")
	}
	for _, opt := range c.Opts {
		if strings.TrimSpace(opt) == "" {
			return errors.ValidationFailed("opts", "contains an empty flag")
		}
	}

	if c.Live.Port < 0 || c.Live.Port > 65535 {
		return errors.ValidationFailed("live.port", "must be a valid TCP port")
	}

	if c.History.Enabled && strings.TrimSpace(c.History.Path) == "" {
		return errors.ValidationFailed("history.path", "required when history is enabled")
	}

	if c.Events.Enabled {
		if strings.TrimSpace(c.Events.NATSURL) == "" {
			return errors.ValidationFailed("events.nats_url", "required when events are enabled")
		}
		if strings.TrimSpace(c.Events.Subject) == "" {
			return errors.ValidationFailed("events.subject", "required when events are enabled")
		}
	}

	if c.Daemon.Interval != "" {
		if d, err := time.ParseDuration(c.Daemon.Interval); err != nil {
			return errors.ValidationFailed("daemon.interval", "not a valid duration: "+c.Daemon.Interval)
		} else if d < time.Minute {
			return errors.ValidationFailed("daemon.interval", "must be at least one minute")
		}
	}

	return nil
}
