package report

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"digital.vasic.harness/pkg/failure"
	"digital.vasic.harness/pkg/runner"
)

// Event is one JSON line emitted by JSONReporter.
type Event struct {
	Type      string           `json:"type"`
	Time      time.Time        `json:"time"`
	Path      string           `json:"path"`
	Depth     int              `json:"depth"`
	Status    runner.Status    `json:"status,omitempty"`
	ElapsedMs int64            `json:"elapsed_ms,omitempty"`
	Failure   *failure.Failure `json:"failure,omitempty"`
	Summary   *Summary         `json:"summary,omitempty"`
}

// Event types.
const (
	EventGroup   = "group"
	EventCase    = "case"
	EventSummary = "summary"
)

// NewCaseEvent builds the event for a terminal outcome.
func NewCaseEvent(scope Scope, out runner.Outcome) Event {
	return Event{
		Type:      EventCase,
		Time:      out.EndTime,
		Path:      scope.Join(out.Name),
		Depth:     scope.Depth,
		Status:    out.Status,
		ElapsedMs: out.ElapsedMs(),
		Failure:   out.Failure,
	}
}

// JSONReporter writes one JSON object per line: a group event
// per describe, a case event per outcome and a final summary.
type JSONReporter struct {
	mu     sync.Mutex
	enc    *json.Encoder
	pretty bool
}

// NewJSONReporter creates a JSON reporter writing to w. When
// pretty is true, objects are indented for readability and no
// longer one per line.
func NewJSONReporter(w io.Writer, pretty bool) *JSONReporter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return &JSONReporter{enc: enc, pretty: pretty}
}

func (r *JSONReporter) emit(e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enc.Encode(e)
}

// ReportGroup emits a group event.
func (r *JSONReporter) ReportGroup(scope Scope, name string) {
	_ = r.emit(Event{
		Type:  EventGroup,
		Time:  time.Now(),
		Path:  scope.Join(name),
		Depth: scope.Depth,
	})
}

// ReportSuccess emits a case event.
func (r *JSONReporter) ReportSuccess(scope Scope, out runner.Outcome) {
	_ = r.emit(NewCaseEvent(scope, out))
}

// ReportFailure emits a case event.
func (r *JSONReporter) ReportFailure(scope Scope, out runner.Outcome) {
	_ = r.emit(NewCaseEvent(scope, out))
}

// ReportSkipped emits a skipped case event.
func (r *JSONReporter) ReportSkipped(scope Scope, name string) {
	_ = r.emit(Event{
		Type:   EventCase,
		Time:   time.Now(),
		Path:   scope.Join(name),
		Depth:  scope.Depth,
		Status: runner.StatusSkipped,
	})
}

// Finish emits the summary event.
func (r *JSONReporter) Finish(summary *Summary) error {
	return r.emit(Event{
		Type:    EventSummary,
		Time:    summary.FinishedAt,
		Summary: summary,
	})
}
