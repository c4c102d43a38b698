// Package failure turns predicate outcomes, faults and timeouts
// into a structured payload that reporters render. It never
// formats for a terminal itself: colour and indentation belong
// to the reporter.
package failure

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/pmezard/go-difflib/difflib"

	"digital.vasic.harness/pkg/matcher"
)

// Kind classifies a failure.
type Kind string

const (
	// KindAssertion is a predicate that evaluated false.
	KindAssertion Kind = "assertion"
	// KindUsage is a predicate invoked with an operand of the
	// wrong shape.
	KindUsage Kind = "usage"
	// KindFault is a test body that panicked or returned a
	// non-assertion error.
	KindFault Kind = "fault"
	// KindTimeout is a test body that exceeded its deadline.
	KindTimeout Kind = "timeout"
)

// Failure is the structured failure payload attached to a
// failed, faulted or timed-out test outcome.
type Failure struct {
	Kind         Kind     `json:"kind" yaml:"kind"`
	Predicate    string   `json:"predicate,omitempty" yaml:"predicate,omitempty"`
	Actual       string   `json:"actual,omitempty" yaml:"actual,omitempty"`
	Expected     *string  `json:"expected,omitempty" yaml:"expected,omitempty"`
	ActualDetail *string  `json:"actual_detail,omitempty" yaml:"actual_detail,omitempty"`
	Note         string   `json:"note,omitempty" yaml:"note,omitempty"`
	Message      string   `json:"message" yaml:"message"`
	Stack        []string `json:"stack,omitempty" yaml:"stack,omitempty"`
}

// DiffOp marks a diff line as context, actual or expected.
type DiffOp byte

const (
	OpContext  DiffOp = ' '
	OpActual   DiffOp = '-'
	OpExpected DiffOp = '+'
)

// DiffLine is one line of the actual/expected block.
type DiffLine struct {
	Op   DiffOp `json:"op"`
	Text string `json:"text"`
}

// String renders the line with its marker.
func (l DiffLine) String() string {
	return string(l.Op) + " " + l.Text
}

// FromAssertion builds a failure from a predicate outcome.
func FromAssertion(o matcher.Outcome) *Failure {
	f := &Failure{
		Kind:         KindAssertion,
		Predicate:    o.Predicate,
		Actual:       o.Actual,
		Expected:     o.Expected,
		ActualDetail: o.ActualDetail,
		Note:         o.Note,
		Stack:        FilterStack(o.Stack),
	}
	f.Message = f.CallLine()
	if f.Note != "" {
		f.Message += " -- " + f.Note
	}
	return f
}

// FromUsage builds a failure from a misused predicate.
func FromUsage(e *matcher.UsageError) *Failure {
	return &Failure{
		Kind:      KindUsage,
		Predicate: e.Predicate,
		Note:      e.Reason,
		Message:   e.Error(),
	}
}

// FromError classifies err: assertion and usage errors keep
// their structure, anything else becomes a fault.
func FromError(err error) *Failure {
	var ae *matcher.AssertionError
	if errors.As(err, &ae) {
		return FromAssertion(ae.Outcome)
	}
	var ue *matcher.UsageError
	if errors.As(err, &ue) {
		return FromUsage(ue)
	}
	return &Failure{
		Kind:    KindFault,
		Message: stripansi.Strip(err.Error()),
	}
}

// FromPanic builds a fault from a recovered panic value and the
// raw stack captured at the recovery site.
func FromPanic(value any, stack []byte) *Failure {
	var msg string
	switch v := value.(type) {
	case error:
		msg = v.Error()
	case string:
		msg = v
	default:
		msg = fmt.Sprint(v)
	}
	return &Failure{
		Kind:    KindFault,
		Message: "panic: " + stripansi.Strip(msg),
		Stack:   FilterStack(stack),
	}
}

// Timeout builds the failure for a case that exceeded limit.
func Timeout(name string, limit time.Duration) *Failure {
	return &Failure{
		Kind: KindTimeout,
		Message: fmt.Sprintf(
			"Exceeded timeout of %dms for test: %s",
			limit.Milliseconds(), name,
		),
	}
}

// Summary returns a one-line rendering.
func (f *Failure) Summary() string {
	line, _, _ := strings.Cut(f.Message, "\n")
	return line
}

// CallLine renders the predicate invocation, e.g.
// expect([1,2]).ToHaveLength(3). It is empty for anything other
// than an assertion failure.
func (f *Failure) CallLine() string {
	if f.Kind != KindAssertion {
		return ""
	}
	expected := ""
	if f.Expected != nil {
		expected = *f.Expected
	}
	return fmt.Sprintf(
		"expect(%s).%s(%s)", f.Actual, f.Predicate, expected,
	)
}

// HasDiff reports whether the failure carries an expected value
// to diff against.
func (f *Failure) HasDiff() bool {
	return f.Kind == KindAssertion && f.Expected != nil
}

// DiffActual is the actual side of the diff: the detail when the
// predicate derived one, the display value otherwise.
func (f *Failure) DiffActual() string {
	if f.ActualDetail != nil {
		return *f.ActualDetail
	}
	return f.Actual
}

// Diff returns the actual/expected block. Single-line values give
// one '-' and one '+' line; multi-line values are aligned with a
// sequence matcher so unchanged lines appear once as context.
func (f *Failure) Diff() []DiffLine {
	if !f.HasDiff() {
		return nil
	}
	actual, expected := f.DiffActual(), *f.Expected

	if !strings.Contains(actual, "\n") &&
		!strings.Contains(expected, "\n") {
		return []DiffLine{
			{Op: OpActual, Text: actual},
			{Op: OpExpected, Text: expected},
		}
	}

	a := difflib.SplitLines(actual)
	b := difflib.SplitLines(expected)
	m := difflib.NewMatcher(a, b)

	var lines []DiffLine
	emit := func(op DiffOp, src []string) {
		for _, s := range src {
			lines = append(lines, DiffLine{
				Op: op, Text: strings.TrimRight(s, "\n"),
			})
		}
	}
	for _, c := range m.GetOpCodes() {
		switch c.Tag {
		case 'e':
			emit(OpContext, a[c.I1:c.I2])
		case 'd':
			emit(OpActual, a[c.I1:c.I2])
		case 'i':
			emit(OpExpected, b[c.J1:c.J2])
		case 'r':
			emit(OpActual, a[c.I1:c.I2])
			emit(OpExpected, b[c.J1:c.J2])
		}
	}
	return lines
}

// UnifiedDiff renders the multi-line diff in unified format,
// labelled Actual and Expected. It returns "" when there is
// nothing to diff.
func (f *Failure) UnifiedDiff() string {
	if !f.HasDiff() {
		return ""
	}
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(f.DiffActual()),
		B:        difflib.SplitLines(*f.Expected),
		FromFile: "Actual",
		ToFile:   "Expected",
		Context:  1,
	})
	if err != nil {
		return ""
	}
	return text
}
