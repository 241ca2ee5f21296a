// Package sphinx is the boundary to the external documentation builder.
// It locates the sphinx-build binary, constructs invocations, and runs
// them with the builder's exit code surfaced unchanged.
package sphinx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	dmerrors "git.home.luguber.info/inful/docmake/internal/errors"
)

// Invocation describes exactly one external builder command.
type Invocation struct {
	Binary string   // builder executable, e.g. "sphinx-build"
	Args   []string // full argument list, in order
	Dir    string   // working directory; empty means inherit
}

// String renders the invocation the way a shell would see it, for logs.
func (inv Invocation) String() string {
	return inv.Binary + " " + strings.Join(inv.Args, " ")
}

// ExitError carries the builder's own exit code through the dispatcher
// so the process exit equals the builder's in all cases.
type ExitError struct {
	Code       int
	Invocation Invocation
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("builder exited with code %d: %s", e.Code, e.Invocation)
}

// ExitCode implements the errors.BuilderExit pass-through contract.
func (e *ExitError) ExitCode() int { return e.Code }

// Runner executes builder invocations. The interface exists so dispatch
// logic can be tested without a sphinx installation.
type Runner interface {
	Run(ctx context.Context, inv Invocation) error
}

// ExecRunner runs invocations with os/exec, inheriting stdio.
type ExecRunner struct{}

// NewRunner returns the default process-spawning runner.
func NewRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes the invocation and blocks until it completes. A non-zero
// builder exit is returned as *ExitError; a missing binary as a fatal
// builder error.
func (r *ExecRunner) Run(ctx context.Context, inv Invocation) error {
	path, err := exec.LookPath(inv.Binary)
	if err != nil {
		return dmerrors.BuilderNotFound(inv.Binary, err)
	}

	cmd := exec.CommandContext(ctx, path, inv.Args...)
	cmd.Dir = inv.Dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	slog.Debug("Running builder", "command", inv.String(), "dir", inv.Dir)

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Code: exitErr.ExitCode(), Invocation: inv}
		}
		return fmt.Errorf("run builder: %w", err)
	}
	return nil
}

// Version probes the builder's version string, e.g. "sphinx-build 7.2.6".
func Version(ctx context.Context, binary string) (string, error) {
	path, err := exec.LookPath(binary)
	if err != nil {
		return "", dmerrors.BuilderNotFound(binary, err)
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, path, "--version")
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("probe builder version: %w", err)
	}
	return strings.TrimSpace(out.String()), nil
}
