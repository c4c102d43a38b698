package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "harness.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 2, cfg.IndentSize)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
timeout: 250ms
indent_size: 4
color: false
format: json
verbose: true
log:
  format: json
  level: debug
  dir: /tmp/harness-logs
metrics: true
monitor:
  addr: 127.0.0.1:9090
report:
  dir: out
  history: out/history.jsonl
  html: out/report.html
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
	assert.Equal(t, 4, cfg.IndentSize)
	assert.False(t, cfg.Color)
	assert.Equal(t, "json", cfg.Format)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, LogConfig{Format: "json", Level: "debug", Dir: "/tmp/harness-logs"}, cfg.Log)
	assert.True(t, cfg.Metrics)
	assert.Equal(t, "127.0.0.1:9090", cfg.Monitor.Addr)
	assert.Equal(t, "out/history.jsonl", cfg.Report.History)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "format: json\ntimeout: 1s\n")
	t.Setenv("HARNESS_FORMAT", "yaml")
	t.Setenv("HARNESS_LOG_LEVEL", "warn")
	t.Setenv("HARNESS_MONITOR_ADDR", "localhost:8088")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "yaml", cfg.Format)
	assert.Equal(t, time.Second, cfg.Timeout)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "localhost:8088", cfg.Monitor.Addr)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestLoad_MalformedFile(t *testing.T) {
	path := writeConfig(t, "format: [unterminated\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"format", "format: xml\n", "Format"},
		{"timeout", "timeout: 0s\n", "Timeout"},
		{"indent", "indent_size: 20\n", "IndentSize"},
		{"log level", "log:\n  level: loud\n", "Level"},
		{"monitor addr", "monitor:\n  addr: not an address\n", "Addr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")

			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Equal(t, tt.field, verrs[0].Field())
		})
	}
}

func TestValidate_Default(t *testing.T) {
	assert.NoError(t, Validate(Default()))
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("HARNESS_FORMAT=yaml\nHARNESS_TIMEOUT=750ms\n"), 0o644))

	// Already-set variables win over the file.
	t.Setenv("HARNESS_TIMEOUT", "2s")
	t.Setenv("HARNESS_FORMAT", "")
	require.NoError(t, os.Unsetenv("HARNESS_FORMAT"))

	require.NoError(t, LoadEnvFile(path))
	t.Cleanup(func() { _ = os.Unsetenv("HARNESS_FORMAT") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "yaml", cfg.Format)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
}

func TestLoadEnvFile_Missing(t *testing.T) {
	err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "failed to load env file")
}
