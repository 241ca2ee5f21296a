package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// BuilderExit is implemented by errors that carry the external builder's
// exit code. Those codes are propagated verbatim, never remapped.
type BuilderExit interface {
	ExitCode() int
}

// CLIErrorAdapter handles error presentation and exit code determination for the CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
// Builder exits pass through unchanged; dispatcher self-errors map by category.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	var be BuilderExit
	if errors.As(err, &be) && be.ExitCode() > 0 {
		return be.ExitCode()
	}

	var dme *DocmakeError
	if errors.As(err, &dme) {
		return a.exitCodeFromDocmake(dme)
	}

	return 1
}

// exitCodeFromDocmake maps DocmakeError to exit codes.
func (a *CLIErrorAdapter) exitCodeFromDocmake(err *DocmakeError) int {
	switch err.Category {
	case CategoryValidation:
		return 2 // Invalid usage
	case CategoryConfig:
		return 7 // Configuration error
	case CategoryBuilder:
		return 127 // Tool not found (builder content errors carry their own code)
	case CategoryFileSystem, CategoryWatch:
		return 11 // Filesystem error
	case CategoryRuntime, CategoryHistory, CategoryEvents:
		return 12 // Runtime error
	case CategoryInternal:
		return 10 // Internal error
	default:
		return 1 // General error
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	var dme *DocmakeError
	if errors.As(err, &dme) {
		return a.formatDocmake(dme)
	}

	return fmt.Sprintf("Error: %v", err)
}

// formatDocmake formats a DocmakeError for display.
func (a *CLIErrorAdapter) formatDocmake(err *DocmakeError) string {
	if a.verbose {
		return err.Error()
	}

	switch err.Category {
	case CategoryConfig, CategoryValidation:
		return err.Message
	default:
		return fmt.Sprintf("%s: %s", err.Category, err.Message)
	}
}

// HandleError processes an error and exits the program with appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	message := a.FormatError(err)

	if a.shouldLog(err) {
		a.logError(err)
	}

	fmt.Fprintf(os.Stderr, "%s\n", message)
	os.Exit(exitCode)
}

// shouldLog determines if an error should be logged.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}

	var dme *DocmakeError
	if errors.As(err, &dme) {
		return dme.Category == CategoryInternal ||
			dme.Category == CategoryRuntime ||
			dme.Severity == SeverityFatal
	}

	return true
}

// logError logs an error with appropriate level and context.
func (a *CLIErrorAdapter) logError(err error) {
	var dme *DocmakeError
	if errors.As(err, &dme) {
		level := slogLevelFromSeverity(dme.Severity)
		attrs := []slog.Attr{
			slog.String("category", string(dme.Category)),
		}
		a.logger.LogAttrs(context.Background(), level, dme.Message, attrs...)
		return
	}

	a.logger.Error("Unclassified error", "error", err)
}

// slogLevelFromSeverity converts DocmakeError severity to slog level.
func slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityFatal, SeverityError:
		return slog.LevelError
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
