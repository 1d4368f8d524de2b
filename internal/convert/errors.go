package convert

import (
	"errors"
	"fmt"
)

// EnvironmentError reports that the conversion service was unavailable or
// failed for one file. It aborts that file only.
type EnvironmentError struct {
	Op   string
	File string
	Err  error
}

func (e *EnvironmentError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("converter %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("convert %s: %s: %v", e.File, e.Op, e.Err)
}

func (e *EnvironmentError) Unwrap() error { return e.Err }

// RunError is a container that exited with a nonzero status.
type RunError struct {
	ExitCode int
	Output   string
}

func (e *RunError) Error() string {
	return fmt.Sprintf("exit status %d: %s", e.ExitCode, truncate(e.Output, 200))
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
