// Package errors provides a lightweight structured error type (DocmakeError)
// for category-based classification and exit-code mapping in the CLI.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a docmake error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// External builder errors
	CategoryBuilder ErrorCategory = "builder"

	// Filesystem and watch errors
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryWatch      ErrorCategory = "watch"

	// Runtime and infrastructure errors
	CategoryHistory  ErrorCategory = "history"
	CategoryEvents   ErrorCategory = "events"
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
)

// DocmakeError is a structured error with category, severity, and context
type DocmakeError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for DocmakeError
type ContextFields map[string]any

// Error implements the error interface
func (e *DocmakeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *DocmakeError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *DocmakeError) WithContext(key string, value any) *DocmakeError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new DocmakeError
func New(category ErrorCategory, severity ErrorSeverity, message string) *DocmakeError {
	return &DocmakeError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new DocmakeError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *DocmakeError {
	return &DocmakeError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}
