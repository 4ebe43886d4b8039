// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
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

// Setup configures the global zerolog logger. A nil Output falls back to
// os.Stderr so a zero-value Config short of a level is still usable.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// JobLogger creates a component logger scoped to one remote job. Every log
// line about a specific job carries its id under the job_id field, which is
// the key log pipelines correlate on.
func JobLogger(component, jobID string) zerolog.Logger {
	return log.With().
		Str("component", component).
		Str("job_id", jobID).
		Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Individual status polls and their observed state
//   - Page fetches (cursor token, row count)
//   - Lookup cache operations (hit/miss, key, TTL)
//
// Info: Normal operation events
//   - Job submission and completion
//   - Batch flushes (record count, accepted/failed split)
//   - Tool startup/shutdown
//
// Warn: Warning conditions that don't prevent operation
//   - Throttling responses from the remote service
//   - Malformed result pages
//   - Unrecognized job states (kept polling)
//
// Error: Error conditions requiring attention
//   - Failed or cancelled jobs
//   - Wait deadlines exceeded
//   - Batch submissions rejected by the remote service
//   - Configuration errors
//
// Context Fields:
//   - job_id: Remote job identifier
//   - op: Transport operation (submit, poll_status, fetch_page, submit_batch)
//   - status_code: HTTP status code
//   - duration: Request or wait duration
//   - error_class: Error classification (client, server, throttle, network)
//   - polls: Number of status polls performed
//   - pages: Number of result pages fetched
//   - records: Number of records in a batch
