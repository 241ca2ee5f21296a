package config

// Defaults mirror a conventional Sphinx project layout: sources next to
// conf.py in the working directory, output under _build.
const (
	DefaultBuilder   = "sphinx-build"
	DefaultSourceDir = "."
	DefaultBuildDir  = "_build"

	DefaultLiveHost = "127.0.0.1"
	DefaultLivePort = 8000

	DefaultHistoryPath  = ".docmake/history.db"
	DefaultEventSubject = "docmake.builds"
	DefaultNATSURL      = "nats://127.0.0.1:4222"

	DefaultDaemonTarget   = "html"
	DefaultDaemonInterval = "30m"
)

// DefaultOpts are passed to every builder invocation unless overridden.
var DefaultOpts = []string{"-j", "auto"}

// DefaultIgnore covers editor droppings, notebook checkpoints, and the
// build tree itself so live rebuilds do not retrigger on their own output.
var DefaultIgnore = []string{
	"_build/*",
	"*.ipynb_checkpoints*",
	".git/*",
	".docmake/*",
	"*~",
	"*.swp",
	".#*",
}

// applyDefaults fills any unset field with its default value.
func (c *Config) applyDefaults() {
	if c.SourceDir == "" {
		c.SourceDir = DefaultSourceDir
	}
	if c.BuildDir == "" {
		c.BuildDir = DefaultBuildDir
	}
	if c.Builder == "" {
		c.Builder = DefaultBuilder
	}
	if c.Opts == nil {
		c.Opts = append([]string(nil), DefaultOpts...)
	}
	if len(c.Watch) == 0 {
		c.Watch = []string{c.SourceDir}
	}
	if c.Ignore == nil {
		c.Ignore = append([]string(nil), DefaultIgnore...)
	}

	if c.Live.Host == "" {
		c.Live.Host = DefaultLiveHost
	}
	if c.Live.Port == 0 {
		c.Live.Port = DefaultLivePort
	}

	if c.History.Path == "" {
		c.History.Path = DefaultHistoryPath
	}

	if c.Events.NATSURL == "" {
		c.Events.NATSURL = DefaultNATSURL
	}
	if c.Events.Subject == "" {
		c.Events.Subject = DefaultEventSubject
	}

	if c.Daemon.Target == "" {
		c.Daemon.Target = DefaultDaemonTarget
	}
	if c.Daemon.Interval == "" {
		c.Daemon.Interval = DefaultDaemonInterval
	}
}
