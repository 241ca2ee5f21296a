package main

import (
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseCLI(t *testing.T, args []string) *kong.Context {
	t.Helper()
	CLI.Make.Target = ""
	CLI.Make.Extra = nil

	parser, err := kong.New(&CLI, kong.Name("docmake"))
	require.NoError(t, err)

	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	return ctx
}

func TestCLIBareTargetIsMakeCommand(t *testing.T) {
	ctx := parseCLI(t, []string{"html"})
	assert.Equal(t, "make <target>", ctx.Command())
	assert.Equal(t, "html", CLI.Make.Target)
	assert.Empty(t, CLI.Make.Extra)
}

func TestCLIExtraOptionsPassThrough(t *testing.T) {
	ctx := parseCLI(t, []string{"spelling", "-q", "-n"})
	assert.Equal(t, "make <target> <extra>", ctx.Command())
	assert.Equal(t, "spelling", CLI.Make.Target)
	assert.Equal(t, []string{"-q", "-n"}, CLI.Make.Extra)
}

func TestCLISubcommands(t *testing.T) {
	ctx := parseCLI(t, []string{"init", "--force"})
	assert.Equal(t, "init", ctx.Command())
	assert.True(t, CLI.Init.Force)

	ctx = parseCLI(t, []string{"history", "--stats", "-n", "5"})
	assert.Equal(t, "history", ctx.Command())
	assert.True(t, CLI.History.Stats)
	assert.Equal(t, 5, CLI.History.Limit)

	ctx = parseCLI(t, []string{"version"})
	assert.Equal(t, "version", ctx.Command())
}

func TestCLIConfigFlagDefault(t *testing.T) {
	parseCLI(t, []string{"html"})
	assert.Equal(t, "docmake.yaml", CLI.Config)
}
