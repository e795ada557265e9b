// Package logging configures structured logging for splitbook.
//
// Usage:
//
//	logging.Setup()                                  // from LOG_LEVEL env, console
//	logging.SetupWithLevel(slog.LevelDebug)          // explicit level, console
//	logging.Configure("json", slog.LevelInfo)        // JSON lines for servers
//
// Environment variables:
//
//	LOG_LEVEL: debug, info, warn, error (default: info)
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Setup configures colored logging at the level specified by LOG_LEVEL env var
// (default: INFO).
func Setup() {
	level, err := ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = slog.LevelInfo
	}
	SetupWithLevel(level)
}

// SetupWithLevel configures colored logging at the given level.
func SetupWithLevel(level slog.Level) {
	slog.SetDefault(slog.New(NewHandler(os.Stderr, "console", level)))
}

// Configure installs the default logger with the given format ("console" or
// "json") and level.
func Configure(format string, level slog.Level) error {
	switch format {
	case "", "console", "json":
	default:
		return fmt.Errorf("invalid log format: %s", format)
	}
	slog.SetDefault(slog.New(NewHandler(os.Stderr, format, level)))
	return nil
}

// NewHandler builds a slog handler writing to w.
// Any format other than "json" gets the colored tint handler.
func NewHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	if format == "json" {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		AddSource:  level <= slog.LevelDebug,
	})
}

// ParseLevel maps debug, info, warn and error (any case) to a slog level.
// An empty string is INFO.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", s)
	}
}
