// Package logging configures zerolog for the OpenMart client and proxy.
package logging

import (
	"fmt"
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

// Component names used in the "component" field.
const (
	ComponentClient     = "openmart-client"
	ComponentSearch     = "openmart-search"
	ComponentPagination = "openmart-pagination"
	ComponentProxy      = "openmart-proxy"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer

	// Service, when set, is added to every entry as "service".
	Service string
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger. Unknown levels fall back to info.
func Setup(cfg Config) zerolog.Logger {
	level, err := ParseLevel(string(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	ctx := zerolog.New(output).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	logger := ctx.Logger()

	log.Logger = logger

	return logger
}

// ParseLevel converts a level name to a zerolog.Level. "warning" is
// accepted for warn.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "info", "":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: per-request and per-page flow
//   - Cache hit/miss for a search body
//   - Page fetched, pagination complete
//   - Rejected (invalid) search requests
//
// Info: normal operation events
//   - Proxy startup/shutdown
//   - API key rotation
//   - Progress of long All walks
//
// Warn: degraded but working
//   - Low request quota (throttling active)
//   - Cache or rate-limit store errors (request goes out anyway)
//   - Unexpected response shape
//   - Partial results returned from All
//
// Error: needs attention
//   - Request quota exhausted (requests blocked)
//   - Transport failures without a response
//   - Configuration errors
//
// Context Fields:
//   - component: one of the Component constants
//   - endpoint: API path (/api/v1/search, /api/v1/search/only_ids)
//   - status: HTTP status code
//   - code: error code (NOT_FOUND, NETWORK_ERROR, ...)
//   - error_class: client, server, rate_limit, network, local
//   - remaining: requests left in the rate limit window
//   - page, pages, items: pagination progress
