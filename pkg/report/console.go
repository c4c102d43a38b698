package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"

	"digital.vasic.harness/pkg/failure"
	"digital.vasic.harness/pkg/runner"
)

// Status glyphs.
const (
	GlyphSuccess = "✓"
	GlyphFail    = "✕"
	GlyphSkipped = "○"
)

// ConsoleReporter writes the human-readable tree: one line per
// group and case, with a diff block under failures.
type ConsoleReporter struct {
	mu         sync.Mutex
	out        io.Writer
	indentSize int

	white, gray, green, red, brightGreen *color.Color
}

// ConsoleOption configures a ConsoleReporter.
type ConsoleOption func(*ConsoleReporter)

// WithIndentSize sets the spaces per nesting level.
func WithIndentSize(size int) ConsoleOption {
	return func(r *ConsoleReporter) {
		if size >= 0 {
			r.indentSize = size
		}
	}
}

// WithColor forces colour on or off. By default colour follows
// the terminal detection of fatih/color.
func WithColor(enabled bool) ConsoleOption {
	return func(r *ConsoleReporter) {
		for _, c := range r.colors() {
			if enabled {
				c.EnableColor()
			} else {
				c.DisableColor()
			}
		}
	}
}

// NewConsoleReporter creates a reporter writing to w, or to
// stdout when w is nil.
func NewConsoleReporter(w io.Writer, opts ...ConsoleOption) *ConsoleReporter {
	if w == nil {
		w = os.Stdout
	}
	r := &ConsoleReporter{
		out:         w,
		indentSize:  DefaultIndentSize,
		white:       color.New(color.FgWhite),
		gray:        color.New(color.FgHiBlack),
		green:       color.New(color.FgGreen),
		red:         color.New(color.FgRed),
		brightGreen: color.New(color.FgHiGreen),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *ConsoleReporter) colors() []*color.Color {
	return []*color.Color{r.white, r.gray, r.green, r.red, r.brightGreen}
}

// ReportGroup prints the group name at the enclosing depth.
func (r *ConsoleReporter) ReportGroup(scope Scope, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.line(scope.Depth, r.white.Sprint(name))
}

// ReportSuccess prints "✓ name (Nms)".
func (r *ConsoleReporter) ReportSuccess(scope Scope, out runner.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status(scope.Depth, r.green.Sprint(GlyphSuccess), out.Name, elapsed(out))
}

// ReportFailure prints "✕ name (Nms)" followed by the failure
// detail. A timeout prints the timeout message in place of the
// name, without elapsed time.
func (r *ConsoleReporter) ReportFailure(scope Scope, out runner.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	glyph := r.red.Sprint(GlyphFail)
	f := out.Failure
	if out.Status == runner.StatusTimedOut && f != nil {
		r.status(scope.Depth, glyph, f.Message, "")
		return
	}

	r.status(scope.Depth, glyph, out.Name, elapsed(out))
	if f == nil {
		return
	}

	depth := scope.Depth + 2
	switch {
	case f.HasDiff():
		r.blank()
		r.line(depth, fmt.Sprintf(
			"[Diff] %s / %s",
			r.red.Sprint("Actual"), r.brightGreen.Sprint("Expected"),
		))
		call := r.callLine(f)
		if f.Note != "" {
			call += " -- " + f.Note
		}
		r.line(depth, call)
		r.blank()
		for _, d := range f.Diff() {
			switch d.Op {
			case failure.OpActual:
				r.line(depth, r.red.Sprint(d.String()))
			case failure.OpExpected:
				r.line(depth, r.brightGreen.Sprint(d.String()))
			default:
				r.line(depth, d.String())
			}
		}
		r.blank()

	case f.Kind == failure.KindAssertion:
		r.blank()
		r.line(depth, r.callLine(f))
		r.blank()
		r.line(depth, fmt.Sprintf(
			"%s %s", r.red.Sprint(f.Actual), f.Note,
		))
		r.blank()

	default:
		for _, l := range strings.Split(f.Message, "\n") {
			r.line(depth, r.red.Sprint(l))
		}
		for _, frame := range f.Stack {
			r.line(depth, r.gray.Sprint("at "+frame))
		}
	}
}

// ReportSkipped prints "○ name".
func (r *ConsoleReporter) ReportSkipped(scope Scope, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status(scope.Depth, r.brightGreen.Sprint(GlyphSkipped), name, "")
}

func (r *ConsoleReporter) callLine(f *failure.Failure) string {
	expected := ""
	if f.Expected != nil {
		expected = r.brightGreen.Sprint(*f.Expected)
	}
	return fmt.Sprintf(
		"expect(%s).%s(%s)",
		r.red.Sprint(f.Actual), r.gray.Sprint(f.Predicate), expected,
	)
}

func (r *ConsoleReporter) status(depth int, glyph, msg, suffix string) {
	text := msg
	if suffix != "" {
		text += " " + suffix
	}
	r.line(depth, glyph+" "+r.gray.Sprint(text))
}

func (r *ConsoleReporter) line(depth int, text string) {
	fmt.Fprintf(r.out, "%s%s\n", Pad(depth, r.indentSize), text)
}

func (r *ConsoleReporter) blank() {
	fmt.Fprintln(r.out)
}

func elapsed(out runner.Outcome) string {
	return fmt.Sprintf("(%dms)", out.ElapsedMs())
}
