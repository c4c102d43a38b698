package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"digital.vasic.harness/pkg/matcher"
	"digital.vasic.harness/pkg/report"
	"digital.vasic.harness/pkg/suite"
)

func sample(s *suite.Suite, failing bool) {
	s.Describe("sample", func(g *suite.Group) {
		g.It("adds", func(context.Context) error {
			return matcher.Expect(1 + 1).ToBe(2)
		})
		if failing {
			g.It("breaks", func(context.Context) error {
				return matcher.Expect(3).ToBe(4)
			})
		}
	})
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand(sample)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRun_Passing(t *testing.T) {
	out, _, err := execute(t, "run", "--no-color")
	require.NoError(t, err)

	assert.Contains(t, out, "sample\n")
	assert.Contains(t, out, "  ✓ adds (")
	assert.Contains(t, out, "PASS")
	assert.NotContains(t, out, "\x1b[")
}

func TestRun_FailingExitCode(t *testing.T) {
	out, _, err := execute(t, "run", "--no-color", "--failing")
	require.Error(t, err)

	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "1 of 2 cases did not pass")
	assert.Contains(t, out, "  ✕ breaks (")
	assert.Contains(t, out, "expect(3).ToBe(4)")
}

func TestRun_JSONFormat(t *testing.T) {
	out, _, err := execute(t, "run", "--format", "json")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)

	var last report.Event
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &last))
	assert.Equal(t, report.EventSummary, last.Type)
	require.NotNil(t, last.Summary)
	assert.Equal(t, 1, last.Summary.Passed)
}

func TestRun_YAMLFormat(t *testing.T) {
	out, _, err := execute(t, "run", "--format", "yaml", "--failing")
	require.Error(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, 2, decoded["total"])
	assert.Equal(t, 1, decoded["failed"])
}

func TestRun_InvalidFormat(t *testing.T) {
	_, _, err := execute(t, "run", "--format", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRun_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "harness.yaml")
	require.NoError(t, os.WriteFile(path, []byte("format: json\ncolor: false\n"), 0o644))

	out, _, err := execute(t, "run", "--config", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "{"), out)

	// Flags win over the file.
	out, _, err = execute(t, "run", "--config", path, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ adds")
}

func TestRun_BadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "harness.yaml")
	require.NoError(t, os.WriteFile(path, []byte("indent_size: 99\n"), 0o644))

	_, _, err := execute(t, "run", "--config", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "configuration")
}

func TestRun_Timeout(t *testing.T) {
	out := &bytes.Buffer{}
	cmd := NewRootCommand(func(s *suite.Suite, _ bool) {
		s.It("waits", func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
	})
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"run", "--no-color", "--timeout", "30ms"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out.String(), "✕ Exceeded timeout of 30ms for test: waits")
}

func TestRun_VerboseLogsToStderr(t *testing.T) {
	_, errOut, err := execute(t, "run", "--no-color", "-v")
	require.NoError(t, err)
	assert.Contains(t, errOut, "run_started")
	assert.Contains(t, errOut, "test_passed")
}

func TestRun_ArtifactsAndHistory(t *testing.T) {
	dir := t.TempDir()
	history := filepath.Join(dir, "history.jsonl")
	htmlPath := filepath.Join(dir, "report.html")
	logDir := filepath.Join(dir, "logs")

	t.Setenv("HARNESS_LOG_DIR", logDir)

	_, _, err := execute(t, "run", "--no-color", "--metrics",
		"--report-dir", filepath.Join(dir, "out"),
		"--history", history,
		"--html", htmlPath,
	)
	require.NoError(t, err)
	_, _, err = execute(t, "run", "--no-color", "--failing", "--history", history)
	require.Error(t, err)

	assert.FileExists(t, filepath.Join(dir, "out", "latest_summary.json"))
	assert.FileExists(t, htmlPath)
	assert.FileExists(t, filepath.Join(logDir, "cases.log"))

	cases, err := os.ReadFile(filepath.Join(logDir, "cases.log"))
	require.NoError(t, err)
	assert.Contains(t, string(cases), `"status":"passed"`)
	assert.Contains(t, string(cases), "adds")

	out, _, err := execute(t, "history", history)
	require.NoError(t, err)
	assert.Contains(t, out, "PASS")
	assert.Contains(t, out, "FAIL")

	out, _, err = execute(t, "history", history, "--last", "1", "--format", "json")
	require.NoError(t, err)
	var entries []report.HistoricalEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.False(t, entries[0].OK)
}

func TestHistory_MissingFile(t *testing.T) {
	_, _, err := execute(t, "history", filepath.Join(t.TempDir(), "none"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRun_Monitor(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	done := make(chan error, 1)
	go func() {
		_, _, err := execute(t, "run", "--no-color",
			"--monitor", fmt.Sprintf("127.0.0.1:%d", port))
		done <- err
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("run with monitor did not return")
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitCommandError, GetExitCode(errors.New("x")))
	assert.Equal(t, ExitFailure, GetExitCode(NewExitError(ExitFailure, "f")))

	wrapped := fmt.Errorf("outer: %w", WrapExitError(ExitFailure, "inner", errors.New("cause")))
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
	assert.Equal(t, "outer: inner: cause", wrapped.Error())
}

func TestRun_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "harness.env")
	require.NoError(t, os.WriteFile(path, []byte("HARNESS_FORMAT=yaml\n"), 0o644))
	t.Setenv("HARNESS_FORMAT", "")
	require.NoError(t, os.Unsetenv("HARNESS_FORMAT"))

	out, _, err := execute(t, "run", "--env-file", path)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, 1, decoded["passed"])

	_, _, err = execute(t, "run", "--env-file", filepath.Join(t.TempDir(), "none.env"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
