// Package logging configures the global zerolog logger shared by the
// whitelist tools.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs every fetched address and cache decision.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs page progress and run summaries.
	LevelInfo LogLevel = "info"

	// LevelWarn logs failed requests and cache problems.
	LevelWarn LogLevel = "warn"

	// LevelError logs terminal failures only.
	LevelError LogLevel = "error"

	// LevelDisabled silences all output.
	LevelDisabled LogLevel = "disabled"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	// Stdout is reserved for results.
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger. Components derive their
// loggers from the global one when they are constructed, so Setup must run
// first.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.Kitchen}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(string(level))) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off", "none":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: every fetched address, request bodies sizes, cache hits/stores,
// pacing delays.
//
// Info: run start/finish, "More pages available" per continuation,
// conversion summary.
//
// Warn: a GraphQL request failed (any kind), unusable page, cache errors.
//
// Error: pagination stopped early, conversion aborted.
//
// Context Fields:
//   - component: graphql-client, paginator, arweave-fetcher, lookup, cmd name
//   - endpoint: GraphQL endpoint URL
//   - status_code: HTTP status of a failed request
//   - error_kind: not_found, http, response, network, unexpected
//   - cursor: continuation cursor
//   - page, items, total: pagination progress
//   - duration: run duration
