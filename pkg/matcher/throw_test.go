package matcher

import (
	"errors"
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNotFound = errors.New("record not found")

func TestToThrow_Panics(t *testing.T) {
	boom := func() { panic("boom: disk full") }

	assert.NoError(t, Expect(boom).ToThrow())
	assert.NoError(t, Expect(boom).ToThrow("disk"))
	assert.NoError(t, Expect(boom).ToThrow(regexp.MustCompile(`^boom`)))
}

func TestToThrow_ReturnedError(t *testing.T) {
	lookup := func() (int, error) { return 0, fmt.Errorf("lookup: %w", errNotFound) }

	assert.NoError(t, Expect(lookup).ToThrow())
	assert.NoError(t, Expect(lookup).ToThrow(errNotFound))
	assert.NoError(t, Expect(lookup).ToThrow("not found"))
}

func TestToThrow_PanicWithError(t *testing.T) {
	fn := func() { panic(errNotFound) }
	assert.NoError(t, Expect(fn).ToThrow(errNotFound))
}

func TestToThrow_DidNotThrow(t *testing.T) {
	tests := []struct {
		name string
		fn   any
	}{
		{"no results", func() {}},
		{"nil error", func() error { return nil }},
		{"value only", func() int { return 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := assertionOf(t, Expect(tt.fn).ToThrow())
			assert.Equal(t, "did not throw", o.Note)
			assert.Nil(t, o.Expected)
		})
	}
}

func TestToThrow_DidNotThrowWithMatcher(t *testing.T) {
	o := assertionOf(t, Expect(func() {}).ToThrow("x"))
	assert.Equal(t, "did not throw", o.Note)
	require.NotNil(t, o.Expected)
	assert.Equal(t, "x", *o.Expected)
}

func TestToThrow_MismatchAlwaysHasReason(t *testing.T) {
	fn := func() { panic("timeout reached") }

	matchers := []any{
		"connection refused",
		regexp.MustCompile(`^refused`),
		errNotFound,
	}
	for _, m := range matchers {
		t.Run(Display(m), func(t *testing.T) {
			o := assertionOf(t, Expect(fn).ToThrow(m))
			assert.Contains(t, o.Note, "to throw error matching")
			assert.Contains(t, o.Note, `but it threw "timeout reached"`)
			require.NotNil(t, o.ActualDetail)
			assert.Equal(t, "timeout reached", *o.ActualDetail)
			assert.NotEmpty(t, o.Stack)
		})
	}
}

func TestToThrow_NonStringPanicValue(t *testing.T) {
	fn := func() { panic(42) }
	o := assertionOf(t, Expect(fn).ToThrow("43"))
	assert.Equal(t, "42", *o.ActualDetail)
}

func TestToThrow_UsageErrors(t *testing.T) {
	fn := func() { panic("x") }

	assertUsage(t, Expect(42).ToThrow())
	assertUsage(t, Expect(func(int) {}).ToThrow())
	assertUsage(t, Expect(fn).ToThrow(42))
	assertUsage(t, Expect(fn).ToThrow("a", "b"))

	var nilFn func()
	assertUsage(t, Expect(nilFn).ToThrow())
}
