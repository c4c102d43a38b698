package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"digital.vasic.harness/pkg/failure"
	"digital.vasic.harness/pkg/runner"
)

// Summary aggregates the outcomes of one run.
type Summary struct {
	RunID      string        `json:"run_id" yaml:"run_id"`
	StartedAt  time.Time     `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time     `json:"finished_at" yaml:"finished_at"`
	Duration   time.Duration `json:"duration_ns" yaml:"-"`
	DurationMs int64         `json:"duration_ms" yaml:"duration_ms"`
	Total      int           `json:"total" yaml:"total"`
	Passed     int           `json:"passed" yaml:"passed"`
	Failed     int           `json:"failed" yaml:"failed"`
	TimedOut   int           `json:"timed_out" yaml:"timed_out"`
	Faulted    int           `json:"faulted" yaml:"faulted"`
	Skipped    int           `json:"skipped" yaml:"skipped"`
	Cases      []CaseResult  `json:"cases" yaml:"cases"`
}

// CaseResult is the record of one case within a Summary.
type CaseResult struct {
	Path      string           `json:"path" yaml:"path"`
	Name      string           `json:"name" yaml:"name"`
	Depth     int              `json:"depth" yaml:"depth"`
	Status    runner.Status    `json:"status" yaml:"status"`
	ElapsedMs int64            `json:"elapsed_ms" yaml:"elapsed_ms"`
	LimitMs   int64            `json:"limit_ms,omitempty" yaml:"limit_ms,omitempty"`
	Failure   *failure.Failure `json:"failure,omitempty" yaml:"failure,omitempty"`
}

// NewSummary starts a summary with a fresh run ID.
func NewSummary() *Summary {
	return &Summary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Cases:     make([]CaseResult, 0),
	}
}

// Record adds a terminal outcome.
func (s *Summary) Record(scope Scope, out runner.Outcome) {
	s.Cases = append(s.Cases, CaseResult{
		Path:      scope.Join(out.Name),
		Name:      out.Name,
		Depth:     scope.Depth,
		Status:    out.Status,
		ElapsedMs: out.ElapsedMs(),
		LimitMs:   out.LimitMs(),
		Failure:   out.Failure,
	})
	s.Total++

	switch out.Status {
	case runner.StatusPassed:
		s.Passed++
	case runner.StatusFailed:
		s.Failed++
	case runner.StatusTimedOut:
		s.TimedOut++
	case runner.StatusFaulted:
		s.Faulted++
	case runner.StatusSkipped:
		s.Skipped++
	}
}

// RecordSkipped adds a skipped case.
func (s *Summary) RecordSkipped(scope Scope, name string) {
	s.Record(scope, runner.Outcome{Name: name, Status: runner.StatusSkipped})
}

// Finish stamps the end of the run.
func (s *Summary) Finish() {
	s.FinishedAt = time.Now()
	s.Duration = s.FinishedAt.Sub(s.StartedAt)
	s.DurationMs = s.Duration.Milliseconds()
}

// OK reports whether no case failed, timed out or faulted.
func (s *Summary) OK() bool {
	return s.Failed+s.TimedOut+s.Faulted == 0
}

// PassRate returns passed over executed (non-skipped) cases.
func (s *Summary) PassRate() float64 {
	executed := s.Total - s.Skipped
	if executed == 0 {
		return 0
	}
	return float64(s.Passed) / float64(executed)
}

// Unsuccessful returns the cases that failed, timed out or
// faulted, in run order.
func (s *Summary) Unsuccessful() []CaseResult {
	var out []CaseResult
	for _, c := range s.Cases {
		if !c.Status.OK() {
			out = append(out, c)
		}
	}
	return out
}

// SaveSummary saves the summary to both JSON and Markdown files
// in outputDir and points latest_summary.* at them.
func SaveSummary(summary *Summary, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf(
			"failed to create output directory: %w", err,
		)
	}

	ts := summary.StartedAt.Format("20060102_150405")

	jsonPath := filepath.Join(
		outputDir, fmt.Sprintf("summary_%s.json", ts),
	)
	jsonData, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := os.WriteFile(jsonPath, jsonData, 0644); err != nil {
		return fmt.Errorf(
			"failed to write JSON summary: %w", err,
		)
	}

	mdPath := filepath.Join(
		outputDir, fmt.Sprintf("summary_%s.md", ts),
	)
	if err := os.WriteFile(
		mdPath, []byte(SummaryMarkdown(summary)), 0644,
	); err != nil {
		return fmt.Errorf(
			"failed to write Markdown summary: %w", err,
		)
	}

	latestJSON := filepath.Join(outputDir, "latest_summary.json")
	latestMD := filepath.Join(outputDir, "latest_summary.md")

	_ = os.Remove(latestJSON)
	_ = os.Remove(latestMD)
	_ = os.Symlink(filepath.Base(jsonPath), latestJSON)
	_ = os.Symlink(filepath.Base(mdPath), latestMD)

	return nil
}

// SummaryMarkdown renders the summary as Markdown.
func SummaryMarkdown(summary *Summary) string {
	var sb strings.Builder

	sb.WriteString("# Test Run Summary\n\n")
	fmt.Fprintf(&sb, "**Run ID:** %s\n\n", summary.RunID)
	fmt.Fprintf(
		&sb, "**Started:** %s\n\n",
		summary.StartedAt.Format(time.RFC3339),
	)

	sb.WriteString("## Cases\n\n")
	sb.WriteString("| Case | Status | Elapsed |\n")
	sb.WriteString("|------|--------|---------|\n")
	for _, c := range summary.Cases {
		fmt.Fprintf(
			&sb, "| %s | %s | %dms |\n",
			c.Path, strings.ToUpper(string(c.Status)), c.ElapsedMs,
		)
	}

	if failed := summary.Unsuccessful(); len(failed) > 0 {
		sb.WriteString("\n## Failures\n\n")
		for _, c := range failed {
			fmt.Fprintf(&sb, "### %s\n\n", c.Path)
			if c.Failure != nil {
				fmt.Fprintf(&sb, "```\n%s\n", c.Failure.Message)
				for _, d := range c.Failure.Diff() {
					fmt.Fprintln(&sb, d.String())
				}
				sb.WriteString("```\n\n")
			}
		}
	}

	sb.WriteString("\n## Statistics\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	fmt.Fprintf(&sb, "| Total | %d |\n", summary.Total)
	fmt.Fprintf(&sb, "| Passed | %d |\n", summary.Passed)
	fmt.Fprintf(&sb, "| Failed | %d |\n", summary.Failed)
	fmt.Fprintf(&sb, "| Timed Out | %d |\n", summary.TimedOut)
	fmt.Fprintf(&sb, "| Faulted | %d |\n", summary.Faulted)
	fmt.Fprintf(&sb, "| Skipped | %d |\n", summary.Skipped)
	fmt.Fprintf(&sb, "| Pass Rate | %.0f%% |\n", summary.PassRate()*100)
	fmt.Fprintf(&sb, "| Duration | %dms |\n", summary.DurationMs)

	return sb.String()
}
