package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"digital.vasic.harness/pkg/report"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Last int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history <file>",
		Short: "Show runs recorded with run --history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showHistory(cmd, opts, args[0])
		},
	}

	cmd.Flags().IntVar(&opts.Last, "last", 0, "only show the last N runs")

	return cmd
}

func showHistory(cmd *cobra.Command, opts *HistoryOptions, path string) error {
	entries, err := report.ReadHistory(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "history", err)
	}
	if opts.Last > 0 && len(entries) > opts.Last {
		entries = entries[len(entries)-opts.Last:]
	}

	w := cmd.OutOrStdout()
	switch opts.Format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "yaml":
		return yaml.NewEncoder(w).Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{
		"Finished", "Run", "Total", "Passed", "Failed",
		"Timed Out", "Faulted", "Skipped", "Duration", "Result",
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Duration", Align: text.AlignRight},
	})
	for _, e := range entries {
		result := "PASS"
		if !e.OK {
			result = "FAIL"
		}
		t.AppendRow(table.Row{
			e.Timestamp.Format(time.RFC3339), e.RunID,
			e.Total, e.Passed, e.Failed, e.TimedOut, e.Faulted, e.Skipped,
			fmt.Sprintf("%dms", e.DurationMs), result,
		})
	}
	t.Render()
	return nil
}
