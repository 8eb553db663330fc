// Package logger builds the zerolog logger injected throughout the core.
// Library code never logs through a package-level logger.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New creates a zerolog logger writing to stdout. Format is "json" or
// "console"; unknown levels fall back to info.
func New(level, format string) zerolog.Logger {
	var output io.Writer = os.Stdout

	if format == "console" {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	return zerolog.New(output).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()
}

func parseLevel(level string) zerolog.Level {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		return zerolog.InfoLevel
	}

	return parsed
}
