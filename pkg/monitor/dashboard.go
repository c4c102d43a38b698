package monitor

import (
	"sync"
	"time"
)

// Run states shown on the dashboard.
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// Dashboard maintains a real-time view of a run.
type Dashboard struct {
	mu    sync.RWMutex
	state DashboardState
}

// DashboardState is a point-in-time copy of the dashboard.
type DashboardState struct {
	RunID     string               `json:"run_id"`
	StartTime time.Time            `json:"start_time"`
	Status    string               `json:"status"`
	Cases     map[string]CaseState `json:"cases"`
	Summary   DashboardSummary     `json:"summary"`
}

// CaseState represents the current state of one case.
type CaseState struct {
	Path      string `json:"path"`
	Name      string `json:"name"`
	Depth     int    `json:"depth"`
	Status    string `json:"status"`
	ElapsedMs int64  `json:"elapsed_ms,omitempty"`
	Message   string `json:"message,omitempty"`
}

// DashboardSummary holds aggregate stats for the dashboard.
type DashboardSummary struct {
	Total    int     `json:"total"`
	Passed   int     `json:"passed"`
	Failed   int     `json:"failed"`
	TimedOut int     `json:"timed_out"`
	Faulted  int     `json:"faulted"`
	Skipped  int     `json:"skipped"`
	PassRate float64 `json:"pass_rate"`
	Elapsed  string  `json:"elapsed"`
}

// NewDashboard creates a dashboard for the run runID.
func NewDashboard(runID string) *Dashboard {
	return &Dashboard{
		state: DashboardState{
			RunID:     runID,
			StartTime: time.Now(),
			Status:    RunRunning,
			Cases:     make(map[string]CaseState),
		},
	}
}

// UpdateFromEvent folds event into the dashboard state.
func (d *Dashboard) UpdateFromEvent(event CaseEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch {
	case event.Type == EventFinished:
		d.state.Status = RunCompleted
		if s := event.Summary; s != nil {
			d.state.RunID = s.RunID
			if !s.OK() {
				d.state.Status = RunFailed
			}
		}
	case isCase(event.Type):
		d.state.Cases[event.Path] = CaseState{
			Path:      event.Path,
			Name:      event.Name,
			Depth:     event.Depth,
			Status:    string(event.Type),
			ElapsedMs: event.ElapsedMs,
			Message:   event.Message,
		}
	default:
		return
	}
	d.recalcSummary()
}

func (d *Dashboard) recalcSummary() {
	s := DashboardSummary{}
	for _, c := range d.state.Cases {
		s.Total++
		switch EventType(c.Status) {
		case EventPassed:
			s.Passed++
		case EventFailed:
			s.Failed++
		case EventTimedOut:
			s.TimedOut++
		case EventFaulted:
			s.Faulted++
		case EventSkipped:
			s.Skipped++
		}
	}
	if executed := s.Total - s.Skipped; executed > 0 {
		s.PassRate = float64(s.Passed) / float64(executed) * 100
	}
	s.Elapsed = time.Since(d.state.StartTime).Round(time.Millisecond).String()
	d.state.Summary = s
}

// Snapshot returns a copy of the current dashboard state.
func (d *Dashboard) Snapshot() DashboardState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	snap := d.state
	snap.Cases = make(map[string]CaseState, len(d.state.Cases))
	for k, v := range d.state.Cases {
		snap.Cases[k] = v
	}
	return snap
}

// SetStatus sets the overall run status.
func (d *Dashboard) SetStatus(status string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.Status = status
}

// BuildDashboard creates a Dashboard by replaying every event
// the collector has seen.
func BuildDashboard(collector *EventCollector) *Dashboard {
	d := NewDashboard("snapshot")
	for _, event := range collector.Events() {
		d.UpdateFromEvent(event)
	}
	return d
}
