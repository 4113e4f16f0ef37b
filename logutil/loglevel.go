package logutil

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

func ParseZerologLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// NewConsoleLogger returns a human readable logger for command line tools.
func NewConsoleLogger(out io.Writer, level string) zerolog.Logger {
	writer := zerolog.ConsoleWriter{ //nolint:exhaustruct
		Out:        out,
		TimeFormat: time.TimeOnly,
		NoColor:    true,
	}

	return zerolog.New(writer).
		Level(ParseZerologLevel(level)).
		With().
		Timestamp().
		Logger()
}
