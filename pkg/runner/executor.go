// Package runner provides the test execution engine. It runs one
// test body at a time under a deadline, resolving the body and
// the deadline as a race, and classifies the result into exactly
// one terminal Outcome.
package runner

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync/atomic"
	"time"

	"digital.vasic.harness/pkg/failure"
	"digital.vasic.harness/pkg/logging"
	"digital.vasic.harness/pkg/matcher"
)

// Claim states for the race between a body and its deadline.
const (
	claimOpen int32 = iota
	claimDelivered
	claimAbandoned
)

// Executor runs test cases. It holds no per-case state, so one
// Executor may serve concurrent Execute calls.
type Executor struct {
	logger  logging.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewExecutor creates an Executor with the supplied options.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		timeout: DefaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Timeout returns the executor's default case timeout.
func (e *Executor) Timeout() time.Duration { return e.timeout }

// bodyResult is what the body goroutine hands back.
type bodyResult struct {
	err        error
	panicked   bool
	panicValue any
	stack      []byte
	exited     bool
	finishedAt time.Time
}

// Execute runs tc and returns its Outcome. It never panics on
// behalf of the body. If the deadline wins, the body's context
// is cancelled and any result it produces later is discarded.
//
// A discarded result is still logged as test_late_result_discarded,
// possibly after Execute has returned. The logger must tolerate
// that; an event arriving after the logger was closed is dropped.
func (e *Executor) Execute(ctx context.Context, tc TestCase) Outcome {
	limit := tc.Timeout
	if limit <= 0 {
		limit = e.timeout
	}

	out := Outcome{
		Name:      tc.Name,
		Status:    StatusRunning,
		Limit:     limit,
		StartTime: e.now(),
	}

	e.logEvent("test_started", map[string]any{
		"test":     tc.Name,
		"limit_ms": limit.Milliseconds(),
	})

	if tc.Body == nil {
		err := fmt.Errorf("test %q has no body", tc.Name)
		return e.finish(out, StatusFaulted, failure.FromError(err), err)
	}

	execCtx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	var claim atomic.Int32
	done := make(chan bodyResult, 1)
	go e.run(execCtx, tc, &claim, done)

	var res bodyResult
	select {
	case res = <-done:
	case <-execCtx.Done():
		if claim.CompareAndSwap(claimOpen, claimAbandoned) {
			return e.expired(ctx, out)
		}
		// The body claimed the result first; it is already
		// being sent.
		res = <-done
	}

	return e.classify(ctx, execCtx, out, res)
}

// run executes the body and delivers its result unless the
// deadline has already claimed the case.
func (e *Executor) run(
	ctx context.Context,
	tc TestCase,
	claim *atomic.Int32,
	done chan<- bodyResult,
) {
	var res bodyResult
	returned := false

	defer func() {
		if r := recover(); r != nil {
			res = bodyResult{
				panicked:   true,
				panicValue: r,
				stack:      debug.Stack(),
			}
		} else if !returned {
			res = bodyResult{exited: true}
		}
		res.finishedAt = time.Now()

		if claim.CompareAndSwap(claimOpen, claimDelivered) {
			done <- res
			return
		}
		e.logEvent("test_late_result_discarded", map[string]any{
			"test":     tc.Name,
			"panicked": res.panicked,
			"error":    errString(res.err),
		})
	}()

	res.err = tc.Body(ctx)
	returned = true
}

// expired resolves a case whose deadline won the race.
func (e *Executor) expired(ctx context.Context, out Outcome) Outcome {
	if err := ctx.Err(); err != nil {
		cause := fmt.Errorf("run cancelled: %w", err)
		return e.finish(out, StatusFaulted, failure.FromError(cause), cause)
	}
	return e.finish(
		out, StatusTimedOut,
		failure.Timeout(out.Name, out.Limit),
		fmt.Errorf("%w after %s", ErrTimeout, out.Limit),
	)
}

func (e *Executor) classify(
	ctx, execCtx context.Context, out Outcome, res bodyResult,
) Outcome {
	// A body that only finished after its own deadline, typically
	// by observing ctx and returning ctx.Err(), timed out whatever
	// it returned.
	if dl, ok := execCtx.Deadline(); ok &&
		ctx.Err() == nil && res.finishedAt.After(dl) {
		return e.finish(
			out, StatusTimedOut,
			failure.Timeout(out.Name, out.Limit),
			fmt.Errorf("%w after %s", ErrTimeout, out.Limit),
		)
	}

	switch {
	case res.panicked:
		cause := fmt.Errorf("panic: %v", res.panicValue)
		return e.finish(
			out, StatusFaulted,
			failure.FromPanic(res.panicValue, res.stack), cause,
		)

	case res.exited:
		cause := errors.New("test body exited without returning")
		return e.finish(out, StatusFaulted, failure.FromError(cause), cause)

	case res.err == nil:
		return e.finish(out, StatusPassed, nil, nil)
	}

	var ae *matcher.AssertionError
	if errors.As(res.err, &ae) {
		return e.finish(
			out, StatusFailed, failure.FromAssertion(ae.Outcome), res.err,
		)
	}

	return e.finish(out, StatusFaulted, failure.FromError(res.err), res.err)
}

func (e *Executor) finish(
	out Outcome, status Status, f *failure.Failure, cause error,
) Outcome {
	out.EndTime = e.now()
	out.Elapsed = out.EndTime.Sub(out.StartTime)
	out.Status = status
	out.Failure = f
	out.Cause = cause

	data := map[string]any{
		"test":       out.Name,
		"elapsed_ms": out.ElapsedMs(),
	}
	if f != nil {
		data["reason"] = f.Summary()
	}

	switch status {
	case StatusPassed:
		e.logEvent("test_passed", data)
	case StatusFailed:
		e.logEvent("test_failed", data)
	case StatusTimedOut:
		data["limit_ms"] = out.LimitMs()
		e.logEvent("test_timed_out", data)
	case StatusFaulted:
		e.logEvent("test_faulted", data)
	}
	return out
}

func (e *Executor) logEvent(event string, data map[string]any) {
	if e.logger == nil {
		return
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]logging.Field, 0, len(data))
	for _, k := range keys {
		fields = append(fields, logging.LogField(k, data[k]))
	}
	e.logger.Info(event, fields...)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
