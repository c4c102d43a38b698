package suite

import (
	"time"

	"digital.vasic.harness/pkg/logging"
	"digital.vasic.harness/pkg/report"
	"digital.vasic.harness/pkg/runner"
)

// Option configures a Suite.
type Option func(*Suite)

// WithReporter adds a reporter. Repeated calls fan out to every
// reporter in the order they were added.
func WithReporter(r report.Reporter) Option {
	return func(s *Suite) {
		s.reporter.Add(r)
	}
}

// WithExecutor replaces the default executor.
func WithExecutor(e *runner.Executor) Option {
	return func(s *Suite) {
		s.executor = e
	}
}

// WithLogger sets the logger for suite lifecycle events and
// per-case records.
func WithLogger(logger logging.Logger) Option {
	return func(s *Suite) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTimeout sets the timeout for cases that do not set their
// own. Non-positive values leave the executor's default.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Suite) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// CaseOption configures a single case.
type CaseOption func(*runner.TestCase)

// CaseTimeout overrides the timeout of one case.
func CaseTimeout(timeout time.Duration) CaseOption {
	return func(tc *runner.TestCase) {
		if timeout > 0 {
			tc.Timeout = timeout
		}
	}
}
