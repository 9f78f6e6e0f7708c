// Package logger builds the structured loggers used by the beamline driver and its tools.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Default is the logger used by the package-level helpers.
var Default *slog.Logger

func init() {
	Default = NewText("info", os.Stderr)
}

// ParseLevel maps debug, info, warn (or warning) and error to a slog level.
// Anything else is treated as info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a JSON logger, suitable when the run log is archived next to the result tables.
func New(level string, output io.Writer) *slog.Logger {
	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return slog.New(handler)
}

// NewText creates a text logger for interactive runs.
func NewText(level string, output io.Writer) *slog.Logger {
	handler := slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return slog.New(handler)
}

// Discard returns a logger that drops every record. Tests use it to keep output quiet.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// SetDefault replaces Default and the slog default logger.
func SetDefault(logger *slog.Logger) {
	Default = logger
	slog.SetDefault(logger)
}

// Info logs an info message on Default.
func Info(msg string, args ...any) {
	Default.Info(msg, args...)
}

// Warn logs a warning on Default.
func Warn(msg string, args ...any) {
	Default.Warn(msg, args...)
}

// Error logs an error on Default.
func Error(msg string, args ...any) {
	Default.Error(msg, args...)
}
