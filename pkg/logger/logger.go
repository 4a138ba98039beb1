// Package logger builds the process-wide zerolog logger.
//
// cmd/api calls Init once at startup and passes the returned logger down to
// every service and middleware. Nothing reads a package-level logger.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options controls how the logger is built.
type Options struct {
	// Level is one of trace, debug, info, warn, error. Anything else is info.
	Level string
	// Pretty switches to coloured console output for local development.
	Pretty bool
	// Output defaults to os.Stdout.
	Output io.Writer
	// Service and Version are attached to every entry when set.
	Service string
	Version string
}

// New returns a logger configured from opts without touching zerolog's
// global state.
func New(opts Options) zerolog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	logCtx := zerolog.New(out).
		Level(ParseLevel(opts.Level)).
		With().
		Timestamp()
	if opts.Service != "" {
		logCtx = logCtx.Str("service", opts.Service)
	}
	if opts.Version != "" {
		logCtx = logCtx.Str("version", opts.Version)
	}
	return logCtx.Logger()
}

// Init builds the logger with New and aligns zerolog's globals with it: the
// global level, nanosecond timestamps, and the fallback returned by
// zerolog.Ctx for contexts that carry no logger.
func Init(opts Options) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.SetGlobalLevel(ParseLevel(opts.Level))

	log := New(opts).With().Caller().Logger()
	zerolog.DefaultContextLogger = &log
	return log
}

// ParseLevel maps a level name to a zerolog.Level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
