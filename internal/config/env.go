package config

import (
	"os"
	"strings"
)

// Environment variables recognized for overrides. SPHINXBUILD and
// SPHINXOPTS keep their conventional Makefile names so existing docs
// workflows keep working.
const (
	EnvSourceDir = "DOCMAKE_SOURCEDIR"
	EnvBuildDir  = "DOCMAKE_BUILDDIR"
	EnvBuilder   = "SPHINXBUILD"
	EnvOpts      = "SPHINXOPTS"
)

// applyEnvOverrides overwrites file-provided values with environment
// variables. Overrides run before defaults so an empty variable does not
// clobber a configured value.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvSourceDir); v != "" {
		c.SourceDir = v
	}
	if v := os.Getenv(EnvBuildDir); v != "" {
		c.BuildDir = v
	}
	if v := os.Getenv(EnvBuilder); v != "" {
		c.Builder = v
	}
	if v := os.Getenv(EnvOpts); v != "" {
		c.Opts = strings.Fields(v)
	}
}
