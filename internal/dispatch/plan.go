// Package dispatch maps a target name to exactly one external builder
// invocation and supervises its execution.
package dispatch

import (
	"path/filepath"

	"git.home.luguber.info/inful/docmake/internal/config"
	"git.home.luguber.info/inful/docmake/internal/sphinx"
)

// Well-known targets. Anything else is routed generically as a
// `-M <word>` make-mode build and left to the builder to accept or reject.
const (
	TargetHelp      = "help"
	TargetTest      = "test"
	TargetSpelling  = "spelling"
	TargetLinkcheck = "linkcheck"
	TargetLiveHTML  = "livehtml"
	TargetLiveTest  = "livetest"
)

// strictOpts turn builder warnings into errors without stopping at the first one.
var strictOpts = []string{"-W", "--keep-going"}

// Plan is the resolved routing decision for one target: the single command
// to run, and for live targets the watch loop parameters around it.
type Plan struct {
	Target     string
	Invocation sphinx.Invocation
	Live       bool
	Watch      []string
	Ignore     []string
}

// Resolve maps a target name to its plan. Resolution never fails for
// unknown targets; those become generic make-mode invocations and the
// builder itself reports unknown modes.
func Resolve(target string, extra []string, cfg *config.Config) Plan {
	switch target {
	case TargetHelp:
		return Plan{
			Target:     target,
			Invocation: makeMode(cfg, target, nil, nil),
		}
	case TargetTest:
		return Plan{
			Target:     target,
			Invocation: dummyBuild(cfg, extra),
		}
	case TargetSpelling, TargetLinkcheck:
		return Plan{
			Target:     target,
			Invocation: makeMode(cfg, target, cfg.Opts, append(append([]string(nil), strictOpts...), extra...)),
		}
	case TargetLiveHTML:
		return Plan{
			Target:     target,
			Invocation: htmlBuild(cfg, extra),
			Live:       true,
			Watch:      cfg.Watch,
			Ignore:     cfg.Ignore,
		}
	case TargetLiveTest:
		return Plan{
			Target:     target,
			Invocation: dummyBuild(cfg, extra),
			Live:       true,
			Watch:      cfg.Watch,
			Ignore:     cfg.Ignore,
		}
	default:
		return Plan{
			Target:     target,
			Invocation: makeMode(cfg, target, cfg.Opts, extra),
		}
	}
}

// makeMode builds a `-M <mode> <src> <build>` invocation with optional
// trailing flags. Sphinx's make-mode expects positional dirs before flags.
func makeMode(cfg *config.Config, mode string, opts, extra []string) sphinx.Invocation {
	args := []string{"-M", mode, cfg.SourceDir, cfg.BuildDir}
	args = append(args, opts...)
	args = append(args, extra...)
	return sphinx.Invocation{Binary: cfg.Builder, Args: args}
}

// dummyBuild resolves the test targets: the dummy builder parses and
// resolves everything but writes no rendered output. The doctree scratch
// space lives under the build dir and -E keeps it cold between runs.
func dummyBuild(cfg *config.Config, extra []string) sphinx.Invocation {
	args := []string{"-b", "dummy"}
	args = append(args, strictOpts...)
	args = append(args, "-E")
	args = append(args, cfg.Opts...)
	args = append(args, extra...)
	args = append(args, cfg.SourceDir, filepath.Join(cfg.BuildDir, "dummy"))
	return sphinx.Invocation{Binary: cfg.Builder, Args: args}
}

// htmlBuild resolves the livehtml rebuild command: a direct html build
// into <build>/html, matching what `-M html` would produce.
func htmlBuild(cfg *config.Config, extra []string) sphinx.Invocation {
	args := []string{"-b", "html"}
	args = append(args, cfg.Opts...)
	args = append(args, extra...)
	args = append(args, cfg.SourceDir, filepath.Join(cfg.BuildDir, "html"))
	return sphinx.Invocation{Binary: cfg.Builder, Args: args}
}
