// Package suite organises test cases into named describe groups
// and runs them in declaration order. Groups and cases execute
// inline: a describe body runs when its group is reached, and
// each It resolves to its final outcome before the next begins.
package suite

import (
	"context"
	"runtime/debug"
	"slices"
	"sort"
	"sync"
	"time"

	"digital.vasic.harness/pkg/failure"
	"digital.vasic.harness/pkg/logging"
	"digital.vasic.harness/pkg/report"
	"digital.vasic.harness/pkg/runner"
)

// Suite holds the top-level groups and cases of a run.
type Suite struct {
	mu       sync.Mutex // guards entries
	running  sync.Mutex // serialises runs
	executor *runner.Executor
	reporter *report.MultiReporter
	logger   logging.Logger
	timeout  time.Duration
	indent   *report.Indentation
	entries  []entry
}

// entry is one top-level declaration, replayed on every Run.
type entry func(g *Group)

// New creates a Suite with the supplied options.
func New(opts ...Option) *Suite {
	s := &Suite{
		reporter: report.NewMultiReporter(),
		logger:   logging.NullLogger{},
		indent:   report.NewIndentation(report.DefaultIndentSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.executor == nil {
		s.executor = runner.NewExecutor(
			runner.WithLogger(s.logger),
			runner.WithTimeout(s.timeout),
		)
	}
	return s
}

// Describe registers a top-level group.
func (s *Suite) Describe(name string, fn func(g *Group)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, func(g *Group) {
		g.Describe(name, fn)
	})
}

// It registers a top-level case.
func (s *Suite) It(name string, body runner.Body, opts ...CaseOption) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, func(g *Group) {
		g.It(name, body, opts...)
	})
}

// Skip registers a top-level skipped case.
func (s *Suite) Skip(name string, body runner.Body) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, func(g *Group) {
		g.Skip(name, body)
	})
}

// Run executes every registered group and case sequentially and
// returns the summary. Each run starts at nesting level 0. Once
// ctx is done, the cases not yet started are reported skipped.
// Entries registered on s while it runs take effect on the next
// Run.
func (s *Suite) Run(ctx context.Context) *report.Summary {
	s.running.Lock()
	defer s.running.Unlock()

	s.mu.Lock()
	entries := slices.Clone(s.entries)
	s.mu.Unlock()

	r := &run{
		suite:   s,
		ctx:     ctx,
		summary: report.NewSummary(),
		indent:  s.indent,
	}
	r.indent.Reset()

	s.logEvent("run_started", map[string]any{
		"run_id":  r.summary.RunID,
		"entries": len(entries),
	})

	root := &Group{run: r}
	for _, e := range entries {
		e(root)
	}

	r.summary.Finish()
	if err := s.reporter.Finish(r.summary); err != nil {
		s.logger.Error("report_finish_failed",
			logging.StringField("run_id", r.summary.RunID),
			logging.ErrorField(err),
		)
	}

	s.logEvent("run_finished", map[string]any{
		"run_id":      r.summary.RunID,
		"total":       r.summary.Total,
		"passed":      r.summary.Passed,
		"failed":      r.summary.Failed,
		"timed_out":   r.summary.TimedOut,
		"faulted":     r.summary.Faulted,
		"skipped":     r.summary.Skipped,
		"duration_ms": r.summary.DurationMs,
	})
	return r.summary
}

// run is the state of one Run call.
type run struct {
	suite   *Suite
	ctx     context.Context
	summary *report.Summary
	indent  *report.Indentation
}

func (s *Suite) logEvent(event string, data map[string]any) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]logging.Field, 0, len(data))
	for _, k := range keys {
		fields = append(fields, logging.LogField(k, data[k]))
	}
	s.logger.Info(event, fields...)
}

// Group is the handle a describe body uses to declare nested
// groups and cases. It is only valid during the body's call.
type Group struct {
	run   *run
	scope report.Scope
}

// Scope returns the group's position in the describe tree.
func (g *Group) Scope() report.Scope { return g.scope }

// Level returns the run's current nesting level.
func (g *Group) Level() int { return g.run.indent.Level() }

// Describe reports a nested group and runs fn inside it. The
// nesting level is restored on every exit path; a panic in fn
// is recorded as a faulted entry for the group and does not
// stop the enclosing group.
func (g *Group) Describe(name string, fn func(g *Group)) {
	r := g.run
	r.suite.reporter.ReportGroup(g.scope, name)
	if fn == nil {
		return
	}

	child := &Group{run: r, scope: g.scope.Enter(name)}
	r.indent.Increase()
	defer r.indent.Decrease()

	defer func() {
		if v := recover(); v != nil {
			now := time.Now()
			out := runner.Outcome{
				Name:      name,
				Status:    runner.StatusFaulted,
				Failure:   failure.FromPanic(v, debug.Stack()),
				StartTime: now,
				EndTime:   now,
			}
			r.suite.logEvent("group_faulted", map[string]any{
				"group":  g.scope.Join(name),
				"reason": out.Failure.Summary(),
			})
			g.record(out)
		}
	}()

	fn(child)
}

// It runs body as a case of this group and returns its outcome.
// A failing case never stops its siblings.
func (g *Group) It(
	name string, body runner.Body, opts ...CaseOption,
) runner.Outcome {
	r := g.run
	tc := runner.TestCase{
		Name:    name,
		Body:    body,
		Timeout: r.suite.timeout,
	}
	for _, opt := range opts {
		opt(&tc)
	}

	if err := r.ctx.Err(); err != nil {
		r.suite.logEvent("test_skipped", map[string]any{
			"test":   g.scope.Join(name),
			"reason": err.Error(),
		})
		return g.skipped(name)
	}

	out := r.suite.executor.Execute(r.ctx, tc)
	g.record(out)
	return out
}

// Skip reports name as skipped without running body.
func (g *Group) Skip(name string, _ runner.Body) runner.Outcome {
	return g.skipped(name)
}

func (g *Group) skipped(name string) runner.Outcome {
	out := runner.Outcome{Name: name, Status: runner.StatusSkipped}
	r := g.run
	r.summary.Record(g.scope, out)
	r.suite.reporter.ReportSkipped(g.scope, name)
	r.suite.logger.LogCase(g.caseLog(out))
	return out
}

func (g *Group) record(out runner.Outcome) {
	r := g.run
	r.summary.Record(g.scope, out)
	report.Dispatch(r.suite.reporter, g.scope, out)
	r.suite.logger.LogCase(g.caseLog(out))
}

func (g *Group) caseLog(out runner.Outcome) logging.CaseLog {
	entry := logging.CaseLog{
		Timestamp: time.Now().Format(time.RFC3339),
		RunID:     g.run.summary.RunID,
		Path:      g.scope.Join(out.Name),
		Status:    string(out.Status),
		ElapsedMs: out.ElapsedMs(),
		LimitMs:   out.LimitMs(),
	}
	if out.Failure != nil {
		entry.Message = out.Failure.Summary()
	}
	return entry
}
