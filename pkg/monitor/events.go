// Package monitor streams run progress to live observers: an
// EventCollector turns report calls into events, a Dashboard
// folds them into current state, and Server publishes both over
// HTTP and WebSocket.
package monitor

import (
	"time"

	"digital.vasic.harness/pkg/report"
)

// EventType represents the type of run event.
type EventType string

const (
	EventGroup    EventType = "group"
	EventPassed   EventType = "passed"
	EventFailed   EventType = "failed"
	EventTimedOut EventType = "timed_out"
	EventFaulted  EventType = "faulted"
	EventSkipped  EventType = "skipped"
	EventFinished EventType = "finished"
)

// CaseEvent represents one lifecycle event of a run.
type CaseEvent struct {
	Type      EventType       `json:"type"`
	Path      string          `json:"path,omitempty"`
	Name      string          `json:"name,omitempty"`
	Depth     int             `json:"depth"`
	Message   string          `json:"message,omitempty"`
	ElapsedMs int64           `json:"elapsed_ms,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Summary   *report.Summary `json:"summary,omitempty"`
}
