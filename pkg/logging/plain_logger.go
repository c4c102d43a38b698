package logging

import "github.com/acarl005/stripansi"

// PlainLogger is a decorator that strips ANSI escape sequences
// from messages and string field values before passing them to
// the inner logger. Fault messages captured from test bodies
// often carry colour codes that corrupt JSON log files.
type PlainLogger struct {
	inner Logger
}

// NewPlainLogger wraps inner.
func NewPlainLogger(inner Logger) *PlainLogger {
	return &PlainLogger{inner: inner}
}

func (p *PlainLogger) strip(fields []Field) []Field {
	result := make([]Field, len(fields))
	for i, f := range fields {
		if str, ok := f.Value.(string); ok {
			result[i] = Field{Key: f.Key, Value: stripansi.Strip(str)}
		} else {
			result[i] = f
		}
	}
	return result
}

// Info logs an informational message.
func (p *PlainLogger) Info(msg string, fields ...Field) {
	p.inner.Info(stripansi.Strip(msg), p.strip(fields)...)
}

// Warn logs a warning message.
func (p *PlainLogger) Warn(msg string, fields ...Field) {
	p.inner.Warn(stripansi.Strip(msg), p.strip(fields)...)
}

// Error logs an error message.
func (p *PlainLogger) Error(msg string, fields ...Field) {
	p.inner.Error(stripansi.Strip(msg), p.strip(fields)...)
}

// Debug logs a debug message.
func (p *PlainLogger) Debug(msg string, fields ...Field) {
	p.inner.Debug(stripansi.Strip(msg), p.strip(fields)...)
}

// WithFields returns a PlainLogger wrapping the inner logger
// with stripped default fields.
func (p *PlainLogger) WithFields(fields ...Field) Logger {
	return &PlainLogger{inner: p.inner.WithFields(p.strip(fields)...)}
}

// LogCase strips the case message and forwards the entry.
func (p *PlainLogger) LogCase(entry CaseLog) {
	entry.Message = stripansi.Strip(entry.Message)
	entry.Path = stripansi.Strip(entry.Path)
	p.inner.LogCase(entry)
}

// Close closes the inner logger.
func (p *PlainLogger) Close() error {
	return p.inner.Close()
}
