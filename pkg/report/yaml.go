package report

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// WriteYAML writes the summary as a YAML document.
func WriteYAML(w io.Writer, summary *Summary) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return enc.Close()
}

// YAMLReporter writes the summary as YAML when the run
// finishes. It reports nothing per case.
type YAMLReporter struct {
	NopReporter
	out io.Writer
}

// NewYAMLReporter creates a YAMLReporter writing to w.
func NewYAMLReporter(w io.Writer) *YAMLReporter {
	return &YAMLReporter{out: w}
}

// Finish writes the YAML document.
func (r *YAMLReporter) Finish(summary *Summary) error {
	return WriteYAML(r.out, summary)
}
