// Package metrics records run outcomes as Prometheus metrics.
package metrics

import (
	"time"

	"digital.vasic.harness/pkg/report"
	"digital.vasic.harness/pkg/runner"
)

// RunMetrics defines the interface for recording harness metrics.
type RunMetrics interface {
	// RecordCase records one terminal case outcome.
	RecordCase(status string, elapsed time.Duration)
	// RecordFailure records the kind of a case failure.
	RecordFailure(kind string)
	// IncrementRunTotal increments the total run counter.
	IncrementRunTotal()
	// SetPassRate sets the pass rate gauge of the last run.
	SetPassRate(rate float64)
}

// NoopMetrics is a no-op implementation of RunMetrics useful for
// testing or when metrics collection is disabled.
type NoopMetrics struct{}

func (NoopMetrics) RecordCase(_ string, _ time.Duration) {}
func (NoopMetrics) RecordFailure(_ string)               {}
func (NoopMetrics) IncrementRunTotal()                   {}
func (NoopMetrics) SetPassRate(_ float64)                {}

// Recorder is a report.Reporter that forwards every outcome to
// a RunMetrics sink.
type Recorder struct {
	metrics RunMetrics
}

// NewRecorder creates a Recorder. A nil sink records nothing.
func NewRecorder(m RunMetrics) *Recorder {
	if m == nil {
		m = NoopMetrics{}
	}
	return &Recorder{metrics: m}
}

// ReportGroup is a no-op; groups carry no metrics.
func (r *Recorder) ReportGroup(report.Scope, string) {}

// ReportSuccess records a passed case.
func (r *Recorder) ReportSuccess(_ report.Scope, out runner.Outcome) {
	r.metrics.RecordCase(string(out.Status), out.Elapsed)
}

// ReportFailure records the case and its failure kind.
func (r *Recorder) ReportFailure(_ report.Scope, out runner.Outcome) {
	r.metrics.RecordCase(string(out.Status), out.Elapsed)
	if out.Failure != nil {
		r.metrics.RecordFailure(string(out.Failure.Kind))
	}
}

// ReportSkipped records a skipped case.
func (r *Recorder) ReportSkipped(report.Scope, string) {
	r.metrics.RecordCase(string(runner.StatusSkipped), 0)
}

// Finish records the completed run.
func (r *Recorder) Finish(summary *report.Summary) error {
	r.metrics.IncrementRunTotal()
	r.metrics.SetPassRate(summary.PassRate())
	return nil
}
