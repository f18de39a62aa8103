// Package logger provides structured logging for all podforge components.
// It wraps log/slog with a fixed key/value calling convention so call sites
// stay terse: logger.Info("audio split complete", "chunks", n).
package logger

import (
	"log/slog"
	"os"
	"strings"
)

var log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
	Level: levelFromEnv(),
}))

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetDefault replaces the package logger. Tests use this to capture output.
func SetDefault(l *slog.Logger) {
	log = l
}

// Debug logs at debug level with alternating key/value pairs.
func Debug(msg string, args ...any) {
	log.Debug(msg, args...)
}

// Info logs at info level with alternating key/value pairs.
func Info(msg string, args ...any) {
	log.Info(msg, args...)
}

// Warn logs at warn level with alternating key/value pairs.
func Warn(msg string, args ...any) {
	log.Warn(msg, args...)
}

// Error logs at error level with alternating key/value pairs.
func Error(msg string, args ...any) {
	log.Error(msg, args...)
}
