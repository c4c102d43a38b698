package runner

import (
	"context"
	"errors"
	"time"

	"digital.vasic.harness/pkg/failure"
)

// Status is the lifecycle state of a test case.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusPassed   Status = "passed"
	StatusFailed   Status = "failed"
	StatusTimedOut Status = "timed_out"
	StatusFaulted  Status = "faulted"
	StatusSkipped  Status = "skipped"
)

// Terminal reports whether s is a final state.
func (s Status) Terminal() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusTimedOut,
		StatusFaulted, StatusSkipped:
		return true
	}
	return false
}

// OK reports whether s counts as a success for the run.
func (s Status) OK() bool {
	return s == StatusPassed || s == StatusSkipped
}

// DefaultTimeout bounds a test body when neither the case nor
// the executor sets a limit.
const DefaultTimeout = 5000 * time.Millisecond

// ErrTimeout is the cause recorded on a timed-out outcome.
var ErrTimeout = errors.New("test timed out")

// Body is a test body. It should return promptly once ctx is
// done; a body that ignores ctx is abandoned at the deadline.
type Body func(ctx context.Context) error

// TestCase is one registered test, consumed once by an executor.
type TestCase struct {
	Name    string
	Body    Body
	Timeout time.Duration
}

// Outcome is the single terminal result of executing a case.
type Outcome struct {
	Name      string           `json:"name"`
	Status    Status           `json:"status"`
	Elapsed   time.Duration    `json:"-"`
	Limit     time.Duration    `json:"-"`
	Failure   *failure.Failure `json:"failure,omitempty"`
	Cause     error            `json:"-"`
	StartTime time.Time        `json:"start_time"`
	EndTime   time.Time        `json:"end_time"`
}

// ElapsedMs returns the elapsed wall-clock time in milliseconds.
func (o Outcome) ElapsedMs() int64 { return o.Elapsed.Milliseconds() }

// LimitMs returns the applied timeout in milliseconds.
func (o Outcome) LimitMs() int64 { return o.Limit.Milliseconds() }
