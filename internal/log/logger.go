// Package log wraps log/slog with the bot's verbosity levels.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Verbosity levels
const (
	LevelQuiet = iota // Default: only errors and warnings
	LevelInfo         // -v: pass progress, escalations, work items
	LevelDebug        // -vv: per-PR classification, API calls
	LevelTrace        // -vvv: request and response details
)

const slogLevelTrace = slog.Level(-8)

// Format selects the slog handler.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

var (
	verbosity int
	logger    *slog.Logger
)

// Initialize sets up the global logger with the specified verbosity level.
func Initialize(level int, format Format, w io.Writer) {
	verbosity = level

	var slogLevel slog.Level
	switch {
	case level >= LevelTrace:
		slogLevel = slogLevelTrace
	case level >= LevelDebug:
		slogLevel = slog.LevelDebug
	case level >= LevelInfo:
		slogLevel = slog.LevelInfo
	default:
		slogLevel = slog.LevelWarn
	}

	opts := &slog.HandlerOptions{Level: slogLevel}
	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	logger = slog.New(handler)
}

// With returns a restore func after attaching attrs to every later record,
// e.g. the run id of the current pass.
func With(args ...any) (restore func()) {
	prev := logger
	logger = logger.With(args...)
	return func() { logger = prev }
}

// Info logs at info level (-v)
func Info(msg string, args ...any) {
	logger.Info(msg, args...)
}

// Debug logs at debug level (-vv)
func Debug(msg string, args ...any) {
	logger.Debug(msg, args...)
}

// Trace logs at trace level (-vvv)
func Trace(msg string, args ...any) {
	logger.Log(context.Background(), slogLevelTrace, msg, args...)
}

// Warn logs at warn level (always visible)
func Warn(msg string, args ...any) {
	logger.Warn(msg, args...)
}

// Error logs at error level (always visible)
func Error(msg string, args ...any) {
	logger.Error(msg, args...)
}

// IsDebug returns true if debug-level logging is enabled
func IsDebug() bool {
	return verbosity >= LevelDebug
}

// IsTrace returns true if trace-level logging is enabled
func IsTrace() bool {
	return verbosity >= LevelTrace
}

// Verbosity returns the current verbosity level
func Verbosity() int {
	return verbosity
}

func init() {
	verbosity = LevelQuiet
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}
