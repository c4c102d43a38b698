// Package report provides the reporting side of a test run:
// the Reporter contract the suite calls with final outcomes,
// console, JSON and metrics-friendly implementations, and run
// summaries rendered as tables, YAML, JSON, Markdown or HTML.
package report

import (
	"errors"

	"digital.vasic.harness/pkg/runner"
)

// Reporter receives every group entry and every final case
// outcome of a run. Calls arrive sequentially from the suite.
type Reporter interface {
	// ReportGroup is called when a describe group is entered.
	// scope is the enclosing scope; the group's cases arrive
	// with scope.Enter(name).
	ReportGroup(scope Scope, name string)

	// ReportSuccess is called for a passed case.
	ReportSuccess(scope Scope, out runner.Outcome)

	// ReportFailure is called for a failed, timed-out or
	// faulted case. out.Failure is always set.
	ReportFailure(scope Scope, out runner.Outcome)

	// ReportSkipped is called for a skipped case.
	ReportSkipped(scope Scope, name string)
}

// Finisher is implemented by reporters that emit output once
// the run is complete.
type Finisher interface {
	Finish(summary *Summary) error
}

// Dispatch routes out to ReportSuccess or ReportFailure.
func Dispatch(r Reporter, scope Scope, out runner.Outcome) {
	if out.Status == runner.StatusPassed {
		r.ReportSuccess(scope, out)
		return
	}
	r.ReportFailure(scope, out)
}

// MultiReporter fans out report calls to multiple reporters.
type MultiReporter struct {
	reporters []Reporter
}

// NewMultiReporter creates a reporter that forwards to all of
// reporters in order. Nil entries are ignored.
func NewMultiReporter(reporters ...Reporter) *MultiReporter {
	m := &MultiReporter{}
	for _, r := range reporters {
		if r != nil {
			m.reporters = append(m.reporters, r)
		}
	}
	return m
}

// Add appends a reporter.
func (m *MultiReporter) Add(r Reporter) {
	if r != nil {
		m.reporters = append(m.reporters, r)
	}
}

// ReportGroup forwards to all reporters.
func (m *MultiReporter) ReportGroup(scope Scope, name string) {
	for _, r := range m.reporters {
		r.ReportGroup(scope, name)
	}
}

// ReportSuccess forwards to all reporters.
func (m *MultiReporter) ReportSuccess(scope Scope, out runner.Outcome) {
	for _, r := range m.reporters {
		r.ReportSuccess(scope, out)
	}
}

// ReportFailure forwards to all reporters.
func (m *MultiReporter) ReportFailure(scope Scope, out runner.Outcome) {
	for _, r := range m.reporters {
		r.ReportFailure(scope, out)
	}
}

// ReportSkipped forwards to all reporters.
func (m *MultiReporter) ReportSkipped(scope Scope, name string) {
	for _, r := range m.reporters {
		r.ReportSkipped(scope, name)
	}
}

// Finish calls Finish on every reporter that implements
// Finisher and joins their errors.
func (m *MultiReporter) Finish(summary *Summary) error {
	var errs []error
	for _, r := range m.reporters {
		if f, ok := r.(Finisher); ok {
			if err := f.Finish(summary); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// NopReporter discards all reports.
type NopReporter struct{}

func (NopReporter) ReportGroup(Scope, string)           {}
func (NopReporter) ReportSuccess(Scope, runner.Outcome) {}
func (NopReporter) ReportFailure(Scope, runner.Outcome) {}
func (NopReporter) ReportSkipped(Scope, string)         {}
