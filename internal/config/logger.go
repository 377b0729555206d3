package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// SetupLogger configures the global logger based on the configuration.
// Logs go to stderr so stdout carries only command output.
func SetupLogger(level string) *slog.Logger {
	return NewLogger(level, os.Stderr, true)
}

// NewLogger builds a JSON logger writing to w. When setDefault is true it also
// becomes the slog default.
func NewLogger(level string, w io.Writer, setDefault bool) *slog.Logger {
	logLevel := ParseLevel(level)

	opts := &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: logLevel == slog.LevelDebug, // Add source file/line in debug mode
	}

	logger := slog.New(slog.NewJSONHandler(w, opts))
	if setDefault {
		slog.SetDefault(logger)
	}
	return logger
}

// ParseLevel maps a config log level to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
