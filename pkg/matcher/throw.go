package matcher

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"runtime/debug"
	"strings"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// thrown is what a callable raised: a recovered panic, or a non-nil
// error returned as its last result.
type thrown struct {
	value any
	err   error
	stack []byte
}

func (t *thrown) message() string {
	if t.err != nil {
		return t.err.Error()
	}
	switch v := t.value.(type) {
	case string:
		return v
	case error:
		return v.Error()
	}
	return fmt.Sprint(t.value)
}

// ToThrow invokes the captured zero-argument function and passes
// when it raised. With no matcher any raise passes. A string
// matcher must be a substring of the raised message, a
// *regexp.Regexp must match it, and an error matcher must match
// via errors.Is or as a substring of the raised message.
func (m *Matcher[T]) ToThrow(matcher ...any) error {
	if len(matcher) > 1 {
		return usage(
			"ToThrow", "expected at most one matcher, got %d",
			len(matcher),
		)
	}
	var want any
	if len(matcher) == 1 {
		want = matcher[0]
		switch w := want.(type) {
		case string, error:
		case *regexp.Regexp:
			if w == nil {
				return usage("ToThrow", "matcher is a nil regexp")
			}
		default:
			return usage(
				"ToThrow",
				"matcher must be a string, *regexp.Regexp or error, got %T",
				want,
			)
		}
	}

	fn := reflect.ValueOf(m.actual())
	if !fn.IsValid() || fn.Kind() != reflect.Func || fn.IsNil() {
		return usage(
			"ToThrow", "value of type %T is not callable",
			m.actual(),
		)
	}
	if fn.Type().NumIn() != 0 {
		return usage(
			"ToThrow", "function %s must take no arguments",
			fn.Type(),
		)
	}

	expected := (*string)(nil)
	if want != nil {
		expected = opt(Display(want))
	}

	raised := invoke(fn)
	if raised == nil {
		return fail(Outcome{
			Predicate: "ToThrow",
			Actual:    Display(m.actual()),
			Expected:  expected,
			Note:      "did not throw",
		})
	}

	msg := raised.message()
	if want == nil || throwMatches(raised, msg, want) {
		return nil
	}

	return fail(Outcome{
		Predicate:    "ToThrow",
		Actual:       Display(m.actual()),
		Expected:     expected,
		ActualDetail: opt(msg),
		Note: fmt.Sprintf(
			"to throw error matching %q but it threw %q",
			*expected, msg,
		),
		Stack: raised.stack,
	})
}

func invoke(fn reflect.Value) (raised *thrown) {
	defer func() {
		if r := recover(); r != nil {
			raised = &thrown{value: r, stack: debug.Stack()}
			if err, ok := r.(error); ok {
				raised.err = err
			}
		}
	}()

	out := fn.Call(nil)
	if n := len(out); n > 0 {
		last := out[n-1]
		if last.Type() == errorType && !last.IsNil() {
			err := last.Interface().(error)
			return &thrown{value: err, err: err}
		}
	}
	return nil
}

func throwMatches(raised *thrown, msg string, want any) bool {
	switch w := want.(type) {
	case string:
		return strings.Contains(msg, w)
	case *regexp.Regexp:
		return w.MatchString(msg)
	case error:
		if raised.err != nil && errors.Is(raised.err, w) {
			return true
		}
		return strings.Contains(msg, w.Error())
	}
	return false
}
