// Package logger builds the zerolog logger shared by the server, the CLI and the tools.
package logger

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// New returns a console logger on stderr at the given level.
func New(level string) zerolog.Logger {
	return NewWithWriter(os.Stderr, level)
}

// NewWithWriter is New with an explicit destination. Unknown levels fall back to info.
func NewWithWriter(w io.Writer, level string) zerolog.Logger {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano

	logLevel, err := ParseLevel(level)
	if err != nil {
		// The logger being built cannot report its own misconfiguration.
		fmt.Fprintf(os.Stderr, "Invalid log level '%s', defaulting to 'info'\n", level)
	}

	goVersion, gitRevision := buildInfo()

	l := zerolog.New(
		zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		Level(logLevel).
		With().
		Timestamp().
		Caller().
		Int("pid", os.Getpid()).
		Str("go_version", goVersion).
		Str("git_revision", gitRevision).
		Logger()

	zerolog.DefaultContextLogger = &l
	return l
}

// ParseLevel maps a config level name to a zerolog level, case-insensitively.
func ParseLevel(level string) (zerolog.Level, error) {
	logLevel, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		return zerolog.InfoLevel, fmt.Errorf("invalid log level %q", level)
	}
	return logLevel, nil
}

func buildInfo() (goVersion, gitRevision string) {
	goVersion, gitRevision = "unknown", "unknown"
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	goVersion = info.GoVersion
	for _, v := range info.Settings {
		if v.Key == "vcs.revision" {
			gitRevision = v.Value
			break
		}
	}
	return
}
