// Package logging provides the slog-backed logger shared by the CLI, the
// parcel store and the distribution and reconstruction engines.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Supported output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options configures a Logger.
type Options struct {
	// Level is one of debug, info, warn or error.
	Level string
	// Format is FormatText or FormatJSON.
	Format string
	// Writer defaults to os.Stderr.
	Writer io.Writer
}

// Logger wraps a slog.Logger with the handful of helpers used across the
// module. A nil *Logger discards everything.
type Logger struct {
	logger *slog.Logger
	debug  bool
}

// New builds a Logger from opts.
func New(opts Options) (*Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "", FormatText:
		handler = slog.NewTextHandler(w, handlerOpts)
	case FormatJSON:
		handler = slog.NewJSONHandler(w, handlerOpts)
	default:
		return nil, fmt.Errorf("logging: unsupported format %q", opts.Format)
	}

	return &Logger{
		logger: slog.New(handler),
		debug:  level <= slog.LevelDebug,
	}, nil
}

// NewLogger creates a text logger on stderr at info, or debug when debug
// is set.
func NewLogger(debug bool) *Logger {
	level := "info"
	if debug {
		level = "debug"
	}
	l, _ := New(Options{Level: level})
	return l
}

// DefaultLogger returns an info-level text logger on stderr.
func DefaultLogger() *Logger {
	return NewLogger(false)
}

// Discard returns a logger that drops every record.
func Discard() *Logger {
	return &Logger{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// ParseLevel maps a level name to a slog.Level. An empty name is info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("logging: unknown level %q", name)
}

// With returns a child logger carrying the given attributes.
func (l *Logger) With(args ...any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{logger: l.logger.With(args...), debug: l.debug}
}

// Slog exposes the underlying slog.Logger.
func (l *Logger) Slog() *slog.Logger {
	if l == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return l.logger
}

// DebugEnabled reports whether debug records are emitted.
func (l *Logger) DebugEnabled() bool {
	return l != nil && l.debug
}

// Info logs an informational message
func (l *Logger) Info(msg string, args ...any) {
	if l == nil {
		return
	}
	l.logger.Info(msg, args...)
}

// Infof logs a formatted informational message
func (l *Logger) Infof(format string, args ...any) {
	if l == nil {
		return
	}
	l.logger.Info(fmt.Sprintf(format, args...))
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...any) {
	if !l.DebugEnabled() {
		return
	}
	l.logger.Debug(msg, args...)
}

// Debugf logs a formatted debug message
func (l *Logger) Debugf(format string, args ...any) {
	if !l.DebugEnabled() {
		return
	}
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, args ...any) {
	if l == nil {
		return
	}
	l.logger.Warn(msg, args...)
}

// Warnf logs a formatted warning message
func (l *Logger) Warnf(format string, args ...any) {
	if l == nil {
		return
	}
	l.logger.Warn(fmt.Sprintf(format, args...))
}

// Error logs an error
func (l *Logger) Error(err error, args ...any) {
	if l == nil || err == nil {
		return
	}
	l.logger.Error(err.Error(), args...)
}

// Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...any) {
	if l == nil {
		return
	}
	l.logger.Error(fmt.Sprintf(format, args...))
}

// MaybeError logs an error if it's not nil
func (l *Logger) MaybeError(err error) {
	l.Error(err)
}
