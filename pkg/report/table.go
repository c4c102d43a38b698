package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// TableOptions controls the end-of-run table.
type TableOptions struct {
	// Cases lists every case, not only the totals.
	Cases bool
	// Color enables go-pretty's coloured style.
	Color bool
}

// FormatTable renders the summary as an ASCII table.
func FormatTable(summary *Summary, opts TableOptions) string {
	var buf bytes.Buffer

	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	t.SetTitle("Run " + summary.RunID)

	t.AppendHeader(table.Row{"Case", "Status", "Elapsed", "Limit"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Case", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Elapsed", Align: text.AlignRight},
		{Name: "Limit", Align: text.AlignRight},
	})

	if opts.Cases {
		for _, c := range summary.Cases {
			limit := "-"
			if c.LimitMs > 0 {
				limit = fmt.Sprintf("%dms", c.LimitMs)
			}
			t.AppendRow(table.Row{
				strings.Repeat("  ", c.Depth) + c.Name,
				statusLabel(string(c.Status)),
				fmt.Sprintf("%dms", c.ElapsedMs),
				limit,
			})
		}
		t.AppendSeparator()
	}

	overall := "PASS"
	if !summary.OK() {
		overall = "FAIL"
	}
	t.AppendFooter(table.Row{
		fmt.Sprintf(
			"%d total, %d passed, %d failed, %d timed out, %d faulted, %d skipped",
			summary.Total, summary.Passed, summary.Failed,
			summary.TimedOut, summary.Faulted, summary.Skipped,
		),
		overall,
		fmt.Sprintf("%dms", summary.DurationMs),
		"",
	})

	switch {
	case !opts.Color:
		t.SetStyle(table.StyleLight)
	case !summary.OK():
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	case summary.Skipped > 0:
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	}

	t.Render()
	return buf.String()
}

func statusLabel(status string) string {
	return strings.ToUpper(strings.ReplaceAll(status, "_", " "))
}

// TableReporter prints the summary table when the run finishes.
type TableReporter struct {
	NopReporter
	out  io.Writer
	opts TableOptions
}

// NewTableReporter creates a TableReporter writing to w.
func NewTableReporter(w io.Writer, opts TableOptions) *TableReporter {
	return &TableReporter{out: w, opts: opts}
}

// Finish writes the table.
func (r *TableReporter) Finish(summary *Summary) error {
	_, err := io.WriteString(r.out, FormatTable(summary, r.opts))
	return err
}
