package report

import (
	"fmt"
	"html"
	"io"
	"time"

	"digital.vasic.harness/pkg/failure"
)

// WriteHTML writes a standalone HTML page for summary.
func WriteHTML(w io.Writer, summary *Summary) error {
	writeHTMLHeader(w, "Test Run "+summary.RunID)

	fmt.Fprintf(
		w, "<h1>Test Run %s</h1>\n",
		html.EscapeString(summary.RunID),
	)
	fmt.Fprintf(
		w, "<p><strong>Started:</strong> %s</p>\n",
		summary.StartedAt.Format(time.RFC3339),
	)

	writeHTMLStats(w, summary)
	writeHTMLCases(w, summary)
	writeHTMLFailures(w, summary)

	_, err := fmt.Fprintln(w, "</body>\n</html>")
	return err
}

func writeHTMLHeader(w io.Writer, title string) {
	fmt.Fprintln(w, "<!DOCTYPE html>")
	fmt.Fprintln(w, "<html>\n<head>")
	fmt.Fprintln(w, "<meta charset=\"utf-8\">")
	fmt.Fprintf(w, "<title>%s</title>\n", html.EscapeString(title))
	fmt.Fprintln(w, "<style>")
	fmt.Fprintln(w, "body { font-family: sans-serif; margin: 2em; }")
	fmt.Fprintln(w, "table { border-collapse: collapse; }")
	fmt.Fprintln(w, "td, th { border: 1px solid #ccc; padding: 4px 8px; }")
	fmt.Fprintln(w, ".status-passed { color: #2e7d32; }")
	fmt.Fprintln(w, ".status-failed { color: #c62828; }")
	fmt.Fprintln(w, ".status-skipped { color: #9e9e9e; }")
	fmt.Fprintln(w, ".diff-actual { color: #c62828; }")
	fmt.Fprintln(w, ".diff-expected { color: #2e7d32; }")
	fmt.Fprintln(w, "</style>\n</head>\n<body>")
}

func writeHTMLStats(w io.Writer, summary *Summary) {
	fmt.Fprintln(w, "<h2>Summary</h2>")
	fmt.Fprintln(w, "<table>")
	fmt.Fprintln(w, "<tr><th>Metric</th><th>Value</th></tr>")
	rows := []struct {
		name  string
		value any
	}{
		{"Total", summary.Total},
		{"Passed", summary.Passed},
		{"Failed", summary.Failed},
		{"Timed Out", summary.TimedOut},
		{"Faulted", summary.Faulted},
		{"Skipped", summary.Skipped},
		{"Duration", fmt.Sprintf("%dms", summary.DurationMs)},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "<tr><td>%s</td><td>%v</td></tr>\n", r.name, r.value)
	}
	fmt.Fprintln(w, "</table>")
}

func writeHTMLCases(w io.Writer, summary *Summary) {
	if len(summary.Cases) == 0 {
		return
	}

	fmt.Fprintln(w, "<h2>Cases</h2>")
	fmt.Fprintln(w, "<table>")
	fmt.Fprintln(w, "<tr><th>Case</th><th>Status</th><th>Elapsed</th></tr>")
	for _, c := range summary.Cases {
		fmt.Fprintf(
			w,
			"<tr><td>%s</td><td class=\"%s\">%s</td><td>%dms</td></tr>\n",
			html.EscapeString(c.Path), statusClass(string(c.Status)),
			statusLabel(string(c.Status)), c.ElapsedMs,
		)
	}
	fmt.Fprintln(w, "</table>")
}

func writeHTMLFailures(w io.Writer, summary *Summary) {
	failed := summary.Unsuccessful()
	if len(failed) == 0 {
		return
	}

	fmt.Fprintln(w, "<h2>Failures</h2>")
	for _, c := range failed {
		fmt.Fprintf(w, "<h3>%s</h3>\n", html.EscapeString(c.Path))
		if c.Failure == nil {
			continue
		}
		fmt.Fprintln(w, "<pre>")
		fmt.Fprintln(w, html.EscapeString(c.Failure.Message))
		for _, d := range c.Failure.Diff() {
			cls := ""
			switch d.Op {
			case failure.OpActual:
				cls = "diff-actual"
			case failure.OpExpected:
				cls = "diff-expected"
			}
			fmt.Fprintf(
				w, "<span class=\"%s\">%s</span>\n",
				cls, html.EscapeString(d.String()),
			)
		}
		for _, frame := range c.Failure.Stack {
			fmt.Fprintln(w, html.EscapeString("at "+frame))
		}
		fmt.Fprintln(w, "</pre>")
	}
}

func statusClass(status string) string {
	switch status {
	case "passed":
		return "status-passed"
	case "skipped":
		return "status-skipped"
	}
	return "status-failed"
}
