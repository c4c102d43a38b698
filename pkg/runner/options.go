package runner

import (
	"time"

	"digital.vasic.harness/pkg/logging"
)

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger used by the executor.
func WithLogger(logger logging.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithTimeout sets the default execution timeout for cases
// that do not specify their own. Non-positive values keep
// DefaultTimeout.
func WithTimeout(timeout time.Duration) Option {
	return func(e *Executor) {
		if timeout > 0 {
			e.timeout = timeout
		}
	}
}

// WithClock replaces time.Now. It is intended for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		e.now = now
	}
}
