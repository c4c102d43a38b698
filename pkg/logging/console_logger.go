package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// ConsoleLogger provides colored console output.
type ConsoleLogger struct {
	mu      *sync.Mutex
	output  io.Writer
	verbose bool
	fields  map[string]any
	palette palette
}

type palette struct {
	gray, blue, yellow, red *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		gray:   color.New(color.FgHiBlack),
		blue:   color.New(color.FgBlue),
		yellow: color.New(color.FgYellow),
		red:    color.New(color.FgRed),
	}
	for _, c := range []*color.Color{p.gray, p.blue, p.yellow, p.red} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// NewConsoleLogger creates a console logger writing to stderr.
// When verbose is true, debug messages are emitted.
func NewConsoleLogger(verbose bool) *ConsoleLogger {
	return NewConsoleLoggerTo(os.Stderr, verbose, !color.NoColor)
}

// NewConsoleLoggerTo creates a console logger writing to w.
func NewConsoleLoggerTo(
	w io.Writer, verbose, colored bool,
) *ConsoleLogger {
	return &ConsoleLogger{
		mu:      &sync.Mutex{},
		output:  w,
		verbose: verbose,
		fields:  make(map[string]any),
		palette: newPalette(colored),
	}
}

func (c *ConsoleLogger) log(
	level LogLevel, tint *color.Color, msg string, fields ...Field,
) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ts := time.Now().Format("15:04:05")

	merged := make(map[string]any, len(c.fields)+len(fields))
	for k, v := range c.fields {
		merged[k] = v
	}
	for _, f := range fields {
		merged[f.Key] = f.Value
	}

	var fieldStr string
	if len(merged) > 0 {
		keys := make([]string, 0, len(merged))
		for k := range merged {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, merged[k]))
		}
		fieldStr = " " + c.palette.gray.Sprintf(
			"{%s}", strings.Join(parts, ", "),
		)
	}

	fmt.Fprintf(
		c.output, "%s [%s] %s%s\n",
		c.palette.gray.Sprint(ts),
		tint.Sprintf("%-5s", level.String()),
		msg, fieldStr,
	)
}

// Info logs an informational message.
func (c *ConsoleLogger) Info(msg string, fields ...Field) {
	c.log(LevelInfo, c.palette.blue, msg, fields...)
}

// Warn logs a warning message.
func (c *ConsoleLogger) Warn(msg string, fields ...Field) {
	c.log(LevelWarn, c.palette.yellow, msg, fields...)
}

// Error logs an error message.
func (c *ConsoleLogger) Error(msg string, fields ...Field) {
	c.log(LevelError, c.palette.red, msg, fields...)
}

// Debug logs a debug message only if verbose is enabled.
func (c *ConsoleLogger) Debug(msg string, fields ...Field) {
	if c.verbose {
		c.log(LevelDebug, c.palette.gray, msg, fields...)
	}
}

// WithFields returns a new Logger with additional default
// fields. The returned logger shares the output lock.
func (c *ConsoleLogger) WithFields(
	fields ...Field,
) Logger {
	newFields := make(map[string]any)
	for k, v := range c.fields {
		newFields[k] = v
	}
	for _, f := range fields {
		newFields[f.Key] = f.Value
	}
	return &ConsoleLogger{
		mu:      c.mu,
		output:  c.output,
		verbose: c.verbose,
		fields:  newFields,
		palette: c.palette,
	}
}

// LogCase logs a case outcome summary at debug level.
func (c *ConsoleLogger) LogCase(entry CaseLog) {
	c.Debug("case",
		Field{Key: "path", Value: entry.Path},
		Field{Key: "status", Value: entry.Status},
		Field{Key: "elapsed_ms", Value: entry.ElapsedMs},
	)
}

// Close is a no-op for ConsoleLogger.
func (c *ConsoleLogger) Close() error {
	return nil
}
