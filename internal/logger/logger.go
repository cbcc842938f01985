// Package logger builds the zerolog logger used across the daemon.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweeney/weather-station/internal/errors"
)

// Levels accepted by ParseLevel.
var Levels = []string{"debug", "info", "warn", "error"}

// ParseLevel maps a configured level name to a zerolog level.
func ParseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "info", "":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q", s)
	}
}

// New returns a console logger writing to out at the given level.
// When isService is set, timestamps are left to the service manager's journal.
func New(out io.Writer, level zerolog.Level, isService bool) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    isService,
	}
	if isService {
		output.FormatTimestamp = func(_ interface{}) string {
			return ""
		}
	}
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// Component returns a child logger tagged with the component name.
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// WithCode attaches the error code and message of err to an event.
func WithCode(ev *zerolog.Event, err error) *zerolog.Event {
	if code := errors.CodeOf(err); code != "" {
		ev = ev.Str("error_code", string(code))
	}
	return ev.Err(err)
}

// IsService reports whether the process appears to run under a service manager.
func IsService() bool {
	if _, err := os.Stdin.Stat(); err != nil {
		return true
	}
	if os.Getenv("INVOCATION_ID") != "" || os.Getenv("SERVICE_NAME") != "" {
		return true
	}
	if os.Getppid() == 1 {
		return true
	}
	return syscall.Getpgrp() == syscall.Getpid()
}
