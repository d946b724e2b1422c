// Package logger provides structured logging using zerolog.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Log is the process-wide logger. It discards everything until Init is called,
// so packages can log safely from tests that never initialise it.
var Log = zerolog.Nop()

// Init configures the global logger. Unknown levels fall back to info.
func Init(level string, pretty bool) {
	InitWithWriter(level, pretty, os.Stdout)
}

// InitWithWriter is Init with an explicit destination.
func InitWithWriter(level string, pretty bool, out io.Writer) {
	zerolog.TimeFieldFormat = time.RFC3339

	if pretty {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	zerolog.SetGlobalLevel(ParseLevel(level))

	Log = zerolog.New(out).
		With().
		Timestamp().
		Caller().
		Logger()
}

// For returns a child logger tagged with a component name.
func For(component string) zerolog.Logger {
	return Log.With().Str("component", component).Logger()
}

// ParseLevel converts a configured level name to a zerolog level.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
