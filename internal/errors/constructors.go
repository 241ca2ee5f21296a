package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *DocmakeError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigInvalid(path string, cause error) *DocmakeError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "configuration file invalid").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *DocmakeError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Builder errors

func BuilderNotFound(binary string, cause error) *DocmakeError {
	return Wrap(cause, CategoryBuilder, SeverityFatal, "documentation builder not found on PATH").
		WithContext("binary", binary)
}

func BuilderFailed(target string, exitCode int, cause error) *DocmakeError {
	return Wrap(cause, CategoryBuilder, SeverityError, "builder reported errors").
		WithContext("target", target).
		WithContext("exit_code", exitCode)
}

// Filesystem and watch errors

func SourceDirError(dir string, cause error) *DocmakeError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "source directory unusable").
		WithContext("dir", dir)
}

func WatchError(path string, cause error) *DocmakeError {
	return Wrap(cause, CategoryWatch, SeverityFatal, "file watch setup failed").
		WithContext("path", path)
}

// Infrastructure errors

func HistoryError(operation string, cause error) *DocmakeError {
	return Wrap(cause, CategoryHistory, SeverityWarning, "history store operation failed").
		WithContext("operation", operation)
}

func EventPublishError(subject string, cause error) *DocmakeError {
	return Wrap(cause, CategoryEvents, SeverityWarning, "event publish failed").
		WithContext("subject", subject)
}

func DaemonError(cause error) *DocmakeError {
	return Wrap(cause, CategoryRuntime, SeverityFatal, "daemon failed")
}
