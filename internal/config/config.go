// Package config holds the static build configuration for one dispatcher
// invocation: source and build directories, builder flags, watch paths and
// ignore patterns, plus the optional live/history/events/daemon sections.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration. It is constructed once
// per invocation and never mutated afterwards.
type Config struct {
	SourceDir string   `yaml:"source_dir"`
	BuildDir  string   `yaml:"build_dir"`
	Builder   string   `yaml:"builder"`
	Opts      []string `yaml:"opts,omitempty"`
	Watch     []string `yaml:"watch,omitempty"`
	Ignore    []string `yaml:"ignore,omitempty"`

	Live    LiveConfig    `yaml:"live,omitempty"`
	History HistoryConfig `yaml:"history,omitempty"`
	Events  EventsConfig  `yaml:"events,omitempty"`
	Daemon  DaemonConfig  `yaml:"daemon,omitempty"`
}

// LiveConfig controls the preview server used by the live targets.
type LiveConfig struct {
	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port,omitempty"`
}

// HistoryConfig controls the sqlite invocation history store.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// EventsConfig controls optional build event publishing over NATS.
type EventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// DaemonConfig controls scheduled rebuilds in daemon mode.
type DaemonConfig struct {
	Target   string `yaml:"target,omitempty"`
	Interval string `yaml:"interval,omitempty"` // Go duration string, e.g. "30m"
}

// Load reads configuration from a YAML file and applies environment
// overrides and defaults. A missing file yields the default configuration;
// an unreadable or malformed file is an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// No config file is the common case for small docs trees.
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}
