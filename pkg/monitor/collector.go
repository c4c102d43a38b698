package monitor

import (
	"sync"
	"time"

	"digital.vasic.harness/pkg/report"
	"digital.vasic.harness/pkg/runner"
)

// EventCollector captures run events. It is a report.Reporter,
// so it can be attached to a suite next to the console output.
type EventCollector struct {
	mu       sync.RWMutex
	events   []CaseEvent
	handlers []func(CaseEvent)
	stats    CollectorStats
	last     *report.Summary
}

// CollectorStats holds aggregate statistics.
type CollectorStats struct {
	Total     int           `json:"total"`
	Passed    int           `json:"passed"`
	Failed    int           `json:"failed"`
	TimedOut  int           `json:"timed_out"`
	Faulted   int           `json:"faulted"`
	Skipped   int           `json:"skipped"`
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
}

// NewEventCollector creates a new event collector.
func NewEventCollector() *EventCollector {
	return &EventCollector{
		events: make([]CaseEvent, 0, 64),
		stats:  CollectorStats{StartTime: time.Now()},
	}
}

// OnEvent registers a handler to be called for each event.
func (c *EventCollector) OnEvent(handler func(CaseEvent)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, handler)
}

// Emit records an event and notifies all handlers.
func (c *EventCollector) Emit(event CaseEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	c.mu.Lock()
	c.events = append(c.events, event)
	switch event.Type {
	case EventPassed:
		c.stats.Passed++
	case EventFailed:
		c.stats.Failed++
	case EventTimedOut:
		c.stats.TimedOut++
	case EventFaulted:
		c.stats.Faulted++
	case EventSkipped:
		c.stats.Skipped++
	case EventFinished:
		c.last = event.Summary
	}
	if isCase(event.Type) {
		c.stats.Total++
	}
	c.stats.Duration = time.Since(c.stats.StartTime)
	handlers := make([]func(CaseEvent), len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	for _, h := range handlers {
		h(event)
	}
}

func isCase(t EventType) bool {
	switch t {
	case EventPassed, EventFailed, EventTimedOut,
		EventFaulted, EventSkipped:
		return true
	}
	return false
}

// ReportGroup emits a group event.
func (c *EventCollector) ReportGroup(scope report.Scope, name string) {
	c.Emit(CaseEvent{
		Type:  EventGroup,
		Path:  scope.Join(name),
		Name:  name,
		Depth: scope.Depth,
	})
}

// ReportSuccess emits a passed event.
func (c *EventCollector) ReportSuccess(scope report.Scope, out runner.Outcome) {
	c.Emit(caseEvent(scope, out))
}

// ReportFailure emits a failed, timed-out or faulted event.
func (c *EventCollector) ReportFailure(scope report.Scope, out runner.Outcome) {
	c.Emit(caseEvent(scope, out))
}

// ReportSkipped emits a skipped event.
func (c *EventCollector) ReportSkipped(scope report.Scope, name string) {
	c.Emit(CaseEvent{
		Type:  EventSkipped,
		Path:  scope.Join(name),
		Name:  name,
		Depth: scope.Depth,
	})
}

// Finish emits the finished event carrying the summary.
func (c *EventCollector) Finish(summary *report.Summary) error {
	c.Emit(CaseEvent{
		Type:      EventFinished,
		Timestamp: summary.FinishedAt,
		Summary:   summary,
	})
	return nil
}

func caseEvent(scope report.Scope, out runner.Outcome) CaseEvent {
	e := CaseEvent{
		Type:      EventType(out.Status),
		Path:      scope.Join(out.Name),
		Name:      out.Name,
		Depth:     scope.Depth,
		ElapsedMs: out.ElapsedMs(),
		Timestamp: out.EndTime,
	}
	if out.Failure != nil {
		e.Message = out.Failure.Summary()
	}
	return e
}

// Events returns a copy of all collected events.
func (c *EventCollector) Events() []CaseEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]CaseEvent, len(c.events))
	copy(result, c.events)
	return result
}

// Stats returns the current aggregate statistics.
func (c *EventCollector) Stats() CollectorStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.stats
	s.Duration = time.Since(s.StartTime)
	return s
}

// LastSummary returns the summary of the last finished run, or
// nil while none has finished.
func (c *EventCollector) LastSummary() *report.Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

// Reset clears all collected events and statistics.
func (c *EventCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = c.events[:0]
	c.stats = CollectorStats{StartTime: time.Now()}
	c.last = nil
}
