package sphinx

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dmerrors "git.home.luguber.info/inful/docmake/internal/errors"
)

func TestInvocationString(t *testing.T) {
	inv := Invocation{Binary: "sphinx-build", Args: []string{"-M", "html", ".", "_build"}}
	assert.Equal(t, "sphinx-build -M html . _build", inv.String())
}

func TestRunPropagatesExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	runner := NewRunner()
	err := runner.Run(context.Background(), Invocation{Binary: "sh", Args: []string{"-c", "exit 3"}})
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.ExitCode())
}

func TestRunSuccessReturnsNil(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	runner := NewRunner()
	assert.NoError(t, runner.Run(context.Background(), Invocation{Binary: "sh", Args: []string{"-c", "exit 0"}}))
}

func TestRunMissingBinary(t *testing.T) {
	runner := NewRunner()
	err := runner.Run(context.Background(), Invocation{Binary: "docmake-no-such-builder"})
	require.Error(t, err)

	var dme *dmerrors.DocmakeError
	require.True(t, errors.As(err, &dme))
	assert.Equal(t, dmerrors.CategoryBuilder, dme.Category)
}
