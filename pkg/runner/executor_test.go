package runner

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.harness/pkg/failure"
	"digital.vasic.harness/pkg/logging"
	"digital.vasic.harness/pkg/matcher"
)

// --- recording logger ---

type eventLogger struct {
	logging.NullLogger

	mu     sync.Mutex
	events []string
}

func (l *eventLogger) Info(msg string, _ ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, msg)
}

func (l *eventLogger) has(event string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.events {
		if e == event {
			return true
		}
	}
	return false
}

func TestNewExecutor_Defaults(t *testing.T) {
	e := NewExecutor()
	assert.Equal(t, DefaultTimeout, e.Timeout())
	assert.Equal(t, 5*time.Second, DefaultTimeout)

	e = NewExecutor(WithTimeout(-1))
	assert.Equal(t, DefaultTimeout, e.Timeout())

	e = NewExecutor(WithTimeout(time.Second))
	assert.Equal(t, time.Second, e.Timeout())
}

func TestExecute_Passed(t *testing.T) {
	log := &eventLogger{}
	e := NewExecutor(WithLogger(log))

	out := e.Execute(context.Background(), TestCase{
		Name: "adds",
		Body: func(context.Context) error {
			return matcher.Expect(1 + 1).ToBe(2)
		},
	})

	assert.Equal(t, StatusPassed, out.Status)
	assert.Nil(t, out.Failure)
	assert.NoError(t, out.Cause)
	assert.Equal(t, DefaultTimeout, out.Limit)
	assert.False(t, out.EndTime.Before(out.StartTime))
	assert.True(t, log.has("test_started"))
	assert.True(t, log.has("test_passed"))
}

func TestExecute_Failed(t *testing.T) {
	out := NewExecutor().Execute(context.Background(), TestCase{
		Name: "length",
		Body: func(context.Context) error {
			return matcher.Expect([]string{"a", "b"}).ToHaveLength(3)
		},
	})

	require.Equal(t, StatusFailed, out.Status)
	require.NotNil(t, out.Failure)
	assert.Equal(t, failure.KindAssertion, out.Failure.Kind)
	assert.Equal(t, "2", out.Failure.DiffActual())

	var ae *matcher.AssertionError
	assert.True(t, errors.As(out.Cause, &ae))
}

func TestExecute_WrappedAssertionIsFailed(t *testing.T) {
	out := NewExecutor().Execute(context.Background(), TestCase{
		Name: "wrapped",
		Body: func(context.Context) error {
			if err := matcher.Expect("a").ToBe("b"); err != nil {
				return fmt.Errorf("checking name: %w", err)
			}
			return nil
		},
	})

	assert.Equal(t, StatusFailed, out.Status)
}

func TestExecute_Faulted(t *testing.T) {
	tests := []struct {
		name string
		body Body
		kind failure.Kind
	}{
		{
			"plain error",
			func(context.Context) error { return errors.New("db down") },
			failure.KindFault,
		},
		{
			"usage error",
			func(context.Context) error { return matcher.Expect("x").ToBeGreaterThan(1) },
			failure.KindUsage,
		},
		{
			"panic",
			func(context.Context) error { panic("kaboom") },
			failure.KindFault,
		},
		{
			"nil pointer",
			func(context.Context) error {
				var m map[string]int
				m["x"] = 1
				return nil
			},
			failure.KindFault,
		},
		{
			"goexit",
			func(context.Context) error {
				runtime.Goexit()
				return nil
			},
			failure.KindFault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &eventLogger{}
			out := NewExecutor(WithLogger(log)).Execute(
				context.Background(),
				TestCase{Name: tt.name, Body: tt.body},
			)

			assert.Equal(t, StatusFaulted, out.Status)
			require.NotNil(t, out.Failure)
			assert.Equal(t, tt.kind, out.Failure.Kind)
			assert.Error(t, out.Cause)
			assert.True(t, log.has("test_faulted"))
		})
	}
}

func TestExecute_PanicMessage(t *testing.T) {
	out := NewExecutor().Execute(context.Background(), TestCase{
		Name: "panics",
		Body: func(context.Context) error { panic("kaboom") },
	})

	require.NotNil(t, out.Failure)
	assert.Equal(t, "panic: kaboom", out.Failure.Message)
	for _, frame := range out.Failure.Stack {
		assert.NotContains(t, frame, "pkg/runner.(*Executor)")
	}
}

func TestExecute_NilBody(t *testing.T) {
	out := NewExecutor().Execute(context.Background(), TestCase{Name: "empty"})
	assert.Equal(t, StatusFaulted, out.Status)
}

func TestExecute_TimedOut_Cooperative(t *testing.T) {
	log := &eventLogger{}
	e := NewExecutor(WithLogger(log))

	out := e.Execute(context.Background(), TestCase{
		Name:    "slow",
		Timeout: 30 * time.Millisecond,
		Body: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	})

	require.Equal(t, StatusTimedOut, out.Status)
	assert.ErrorIs(t, out.Cause, ErrTimeout)
	require.NotNil(t, out.Failure)
	assert.Equal(t, "Exceeded timeout of 30ms for test: slow", out.Failure.Message)
	assert.Equal(t, int64(30), out.LimitMs())
	assert.True(t, log.has("test_timed_out"))
}

func TestExecute_TimedOut_LateResultDiscarded(t *testing.T) {
	log := &eventLogger{}
	e := NewExecutor(WithLogger(log))

	release := make(chan struct{})
	finished := make(chan struct{})

	out := e.Execute(context.Background(), TestCase{
		Name:    "ignores context",
		Timeout: 20 * time.Millisecond,
		Body: func(context.Context) error {
			defer close(finished)
			<-release
			return nil
		},
	})

	require.Equal(t, StatusTimedOut, out.Status)

	close(release)
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("body never finished")
	}

	assert.Eventually(t, func() bool {
		return log.has("test_late_result_discarded")
	}, time.Second, 5*time.Millisecond)
	assert.False(t, log.has("test_passed"))
	assert.Equal(t, StatusTimedOut, out.Status)
}

func TestExecute_TimedOut_LatePanicDoesNotCrash(t *testing.T) {
	release := make(chan struct{})
	out := NewExecutor().Execute(context.Background(), TestCase{
		Name:    "late panic",
		Timeout: 10 * time.Millisecond,
		Body: func(context.Context) error {
			<-release
			panic("too late")
		},
	})
	require.Equal(t, StatusTimedOut, out.Status)
	close(release)
	time.Sleep(20 * time.Millisecond)
}

func TestExecute_ParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := NewExecutor().Execute(ctx, TestCase{
		Name: "cancelled",
		Body: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	})

	assert.Equal(t, StatusFaulted, out.Status)
	assert.ErrorIs(t, out.Cause, context.Canceled)
}

func TestExecute_CaseTimeoutOverridesDefault(t *testing.T) {
	e := NewExecutor(WithTimeout(time.Hour))
	out := e.Execute(context.Background(), TestCase{
		Name:    "short",
		Timeout: 10 * time.Millisecond,
		Body: func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		},
	})

	assert.Equal(t, 10*time.Millisecond, out.Limit)
	assert.Equal(t, StatusTimedOut, out.Status)
}

func TestExecute_ElapsedUsesClock(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var calls int
	clock := func() time.Time {
		calls++
		return base.Add(time.Duration(calls-1) * 7 * time.Millisecond)
	}

	out := NewExecutor(WithClock(clock)).Execute(context.Background(), TestCase{
		Name: "clocked",
		Body: func(context.Context) error { return nil },
	})

	assert.Equal(t, int64(7), out.ElapsedMs())
}

func TestExecute_SameCaseSameOutcomeClass(t *testing.T) {
	tc := TestCase{
		Name: "deterministic",
		Body: func(context.Context) error {
			return matcher.Expect(map[string]int{"a": 1}).ToEqual(map[string]int{"a": 2})
		},
	}

	first := NewExecutor().Execute(context.Background(), tc)
	second := NewExecutor().Execute(context.Background(), tc)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, StatusFailed, first.Status)
}

func TestExecute_ConcurrentCases(t *testing.T) {
	e := NewExecutor()
	var wg sync.WaitGroup
	results := make([]Status, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = e.Execute(context.Background(), TestCase{
				Name: fmt.Sprintf("case %d", i),
				Body: func(context.Context) error {
					return matcher.Expect(i).ToBeGreaterThanOrEqual(0)
				},
			}).Status
		}(i)
	}
	wg.Wait()

	for _, s := range results {
		assert.Equal(t, StatusPassed, s)
	}
}

func TestStatus(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusRunning.Terminal())
	assert.True(t, StatusTimedOut.Terminal())
	assert.True(t, StatusPassed.OK())
	assert.True(t, StatusSkipped.OK())
	assert.False(t, StatusFaulted.OK())
}
