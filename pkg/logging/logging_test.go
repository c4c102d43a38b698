package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func splitNonEmpty(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", LogLevel(99).String())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
}

func TestFields(t *testing.T) {
	assert.Equal(t, Field{Key: "elapsed_ms", Value: int64(1500)}, DurationField("elapsed", 1500*time.Millisecond))
	assert.Equal(t, Field{Key: "error", Value: "boom"}, ErrorField(errors.New("boom")))
	assert.Equal(t, Field{Key: "error", Value: "<nil>"}, ErrorField(nil))
	assert.Equal(t, Field{Key: "n", Value: 3}, IntField("n", 3))
}

func TestConsoleLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerTo(&buf, false, false)

	logger.Info("hello world")
	logger.Warn("warning message")
	logger.Error("error occurred")
	logger.Debug("hidden")

	output := buf.String()
	assert.Contains(t, output, "[INFO ] hello world")
	assert.Contains(t, output, "[WARN ] warning message")
	assert.Contains(t, output, "[ERROR] error occurred")
	assert.NotContains(t, output, "hidden")
	assert.NotContains(t, output, "\x1b[")
}

func TestConsoleLogger_DebugVerbose(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerTo(&buf, true, false)

	logger.Debug("debug info")
	assert.Contains(t, buf.String(), "debug info")
}

func TestConsoleLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerTo(&buf, false, false)

	child := logger.WithFields(StringField("run_id", "r1"))
	child.Info("started", IntField("cases", 2))

	assert.Contains(t, buf.String(), "{cases=2, run_id=r1}")
}

func TestConsoleLogger_Colored(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerTo(&buf, false, true)

	logger.Error("red")
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestJSONLogger_File(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "nested", "test.log")

	logger, err := NewJSONLogger(LoggerConfig{
		OutputPath: logPath,
		Level:      LevelDebug,
		Verbose:    true,
	})
	require.NoError(t, err)

	logger.Info("hello", LogField("key", "val"))
	logger.Debug("debug msg")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)

	lines := splitNonEmpty(string(data))
	require.Len(t, lines, 2)

	var entry LogEntry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "hello", entry.Message)
	assert.Equal(t, "val", entry.Fields["key"])
}

func TestJSONLogger_WritesAfterCloseDropped(t *testing.T) {
	dir := t.TempDir()
	logger, err := SetupLogging(dir, false)
	require.NoError(t, err)

	logger.Info("run_finished")
	require.NoError(t, logger.Close())

	assert.NotPanics(t, func() {
		logger.Info("test_late_result_discarded", StringField("test", "slow"))
		logger.LogCase(CaseLog{Path: "slow", Status: "timed_out"})
	})

	data, err := os.ReadFile(filepath.Join(dir, "harness.log"))
	require.NoError(t, err)
	lines := splitNonEmpty(string(data))
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "run_finished")

	cases, err := os.ReadFile(filepath.Join(dir, "cases.log"))
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(string(cases)))
}

func TestJSONLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLoggerTo(&buf, LevelWarn)

	logger.Info("dropped")
	logger.Warn("kept")

	lines := splitNonEmpty(buf.String())
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"kept"`)
}

func TestJSONLogger_WithFieldsSharesOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLoggerTo(&buf, LevelInfo)

	logger.WithFields(StringField("suite", "math")).Info("x")

	var entry LogEntry
	require.NoError(t, json.Unmarshal([]byte(splitNonEmpty(buf.String())[0]), &entry))
	assert.Equal(t, "math", entry.Fields["suite"])
}

func TestJSONLogger_CaseLog(t *testing.T) {
	dir := t.TempDir()
	logger, err := SetupLogging(dir, false)
	require.NoError(t, err)

	logger.LogCase(CaseLog{
		Path: "math > adds", Status: "passed", ElapsedMs: 3, LimitMs: 5000,
	})
	require.NoError(t, logger.Close())

	logger.LogCase(CaseLog{Path: "after close"})

	data, err := os.ReadFile(filepath.Join(dir, "cases.log"))
	require.NoError(t, err)
	lines := splitNonEmpty(string(data))
	require.Len(t, lines, 1)

	var entry CaseLog
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "math > adds", entry.Path)
	assert.NotEmpty(t, entry.Timestamp)
}

func TestJSONLogger_MarshalError(t *testing.T) {
	orig := jsonMarshal
	defer func() { jsonMarshal = orig }()
	jsonMarshal = func(any) ([]byte, error) { return nil, errors.New("nope") }

	var buf bytes.Buffer
	NewJSONLoggerTo(&buf, LevelInfo).Info("x")
	assert.Empty(t, buf.String())
}

type recordingLogger struct {
	NullLogger
	msgs   []string
	fields []Field
	cases  []CaseLog
	closed int
}

func (r *recordingLogger) Info(msg string, fields ...Field) {
	r.msgs = append(r.msgs, msg)
	r.fields = append(r.fields, fields...)
}

func (r *recordingLogger) LogCase(entry CaseLog) { r.cases = append(r.cases, entry) }

func (r *recordingLogger) Close() error {
	r.closed++
	return errors.New("close failed")
}

func TestMultiLogger(t *testing.T) {
	a, b := &recordingLogger{}, &recordingLogger{}
	m := NewMultiLogger(a, b)

	m.Info("x")
	m.LogCase(CaseLog{Path: "p"})

	assert.Equal(t, []string{"x"}, a.msgs)
	assert.Equal(t, []string{"x"}, b.msgs)
	assert.Len(t, b.cases, 1)
	assert.Error(t, m.Close())
	assert.Equal(t, 1, a.closed)
}

func TestPlainLogger_StripsANSI(t *testing.T) {
	inner := &recordingLogger{}
	p := NewPlainLogger(inner)

	p.Info("\x1b[31mred\x1b[0m", StringField("msg", "\x1b[1mbold\x1b[0m"), IntField("n", 1))
	p.LogCase(CaseLog{Message: "\x1b[32mok\x1b[0m"})

	assert.Equal(t, []string{"red"}, inner.msgs)
	assert.Equal(t, "bold", inner.fields[0].Value)
	assert.Equal(t, 1, inner.fields[1].Value)
	assert.Equal(t, "ok", inner.cases[0].Message)
}

func TestNullLogger(t *testing.T) {
	var l Logger = NullLogger{}
	l.Info("x")
	l.LogCase(CaseLog{})
	assert.Equal(t, NullLogger{}, l.WithFields(StringField("a", "b")))
	assert.NoError(t, l.Close())
}
