package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// HistoricalEntry represents a single run in the historical log.
type HistoricalEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	RunID      string    `json:"run_id"`
	Total      int       `json:"total"`
	Passed     int       `json:"passed"`
	Failed     int       `json:"failed"`
	TimedOut   int       `json:"timed_out"`
	Faulted    int       `json:"faulted"`
	Skipped    int       `json:"skipped"`
	DurationMs int64     `json:"duration_ms"`
	OK         bool      `json:"ok"`
}

// AppendToHistory adds an entry for summary to the historical
// log stored at historyPath. Each entry is a single JSON line.
func AppendToHistory(historyPath string, summary *Summary) error {
	entry := HistoricalEntry{
		Timestamp:  summary.FinishedAt,
		RunID:      summary.RunID,
		Total:      summary.Total,
		Passed:     summary.Passed,
		Failed:     summary.Failed,
		TimedOut:   summary.TimedOut,
		Faulted:    summary.Faulted,
		Skipped:    summary.Skipped,
		DurationMs: summary.DurationMs,
		OK:         summary.OK(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf(
			"failed to marshal history entry: %w", err,
		)
	}

	file, err := os.OpenFile(
		historyPath,
		os.O_CREATE|os.O_APPEND|os.O_WRONLY,
		0644,
	)
	if err != nil {
		return fmt.Errorf(
			"failed to open history file: %w", err,
		)
	}
	defer func() { _ = file.Close() }()

	_, err = fmt.Fprintln(file, string(data))
	return err
}

// ReadHistory loads every entry from historyPath, oldest first.
func ReadHistory(historyPath string) ([]HistoricalEntry, error) {
	file, err := os.Open(historyPath)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to open history file: %w", err,
		)
	}
	defer func() { _ = file.Close() }()

	var entries []HistoricalEntry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e HistoricalEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return entries, fmt.Errorf(
				"failed to parse history entry: %w", err,
			)
		}
		entries = append(entries, e)
	}
	return entries, scanner.Err()
}
