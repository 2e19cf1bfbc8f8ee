// Package logger constructs the zerolog loggers used across the gateway.
// Library code defaults to a Nop logger; applications opt in via New.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New creates a structured logger writing to w. The level comes from the
// LOG_LEVEL environment variable (trace, debug, info, warn, error), with
// info as the default.
func New(w io.Writer) zerolog.Logger {
	return zerolog.New(w).
		Level(parseLogLevel(os.Getenv("LOG_LEVEL"))).
		With().
		Timestamp().
		Logger()
}

// NewPretty creates a human-readable console logger for interactive use.
func NewPretty(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w}).
		Level(parseLogLevel(os.Getenv("LOG_LEVEL"))).
		With().
		Timestamp().
		Logger()
}

// NewFile creates a logger appending JSON lines to the given path.
func NewFile(path string) (zerolog.Logger, error) {
	//nolint:gosec // G304: user-specified log file path is intentional
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return New(file), nil
}

func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
