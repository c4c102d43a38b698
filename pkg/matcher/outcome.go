// Package matcher provides the expect-style assertion engine. A
// Matcher wraps one captured value and exposes a fixed catalogue of
// predicates. Each predicate returns nil on success, an
// *AssertionError when the predicate evaluated false, or a
// *UsageError when the captured value or the operand lacks the
// capability the predicate needs.
package matcher

import (
	"fmt"
	"strings"
)

// Outcome is the result of evaluating a single predicate. It is
// immutable once constructed and holds display strings only, never
// the captured values.
type Outcome struct {
	// Passed indicates whether the predicate held.
	Passed bool `json:"passed"`

	// Predicate is the name of the evaluated predicate (e.g.
	// "ToBe", "ToHaveLength").
	Predicate string `json:"predicate"`

	// Actual is the display form of the captured value.
	Actual string `json:"actual"`

	// Expected is the display form of the comparison operand,
	// or nil for predicates that take none.
	Expected *string `json:"expected,omitempty"`

	// ActualDetail replaces Actual on the diff line when the
	// interesting part of the value is derived from it (a
	// length, a key set, a thrown message).
	ActualDetail *string `json:"actual_detail,omitempty"`

	// Note is a short human-readable reason.
	Note string `json:"note,omitempty"`

	// Stack holds the raw stack captured from a fault, if the
	// predicate invoked a callable that panicked.
	Stack []byte `json:"-"`
}

// AssertionError is returned by a predicate that evaluated false.
type AssertionError struct {
	Outcome Outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	expected := ""
	if e.Outcome.Expected != nil {
		expected = *e.Outcome.Expected
	}
	fmt.Fprintf(
		&buf, "Expect(%s).%s(%s)",
		e.Outcome.Actual, e.Outcome.Predicate, expected,
	)
	if e.Outcome.Note != "" {
		fmt.Fprintf(&buf, ": %s", e.Outcome.Note)
	}
	return buf.String()
}

// UsageError is returned when a predicate is invoked with an
// operand of the wrong shape. It is a programming error in the
// test, not a mismatch.
type UsageError struct {
	Predicate string
	Reason    string
}

// Error implements the error interface.
func (e *UsageError) Error() string {
	return fmt.Sprintf(
		"%s: usage error: %s", e.Predicate, e.Reason,
	)
}

func usage(predicate, format string, args ...any) error {
	return &UsageError{
		Predicate: predicate,
		Reason:    fmt.Sprintf(format, args...),
	}
}

func fail(o Outcome) error {
	o.Passed = false
	return &AssertionError{Outcome: o}
}

func opt(s string) *string { return &s }
