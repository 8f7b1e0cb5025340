// Package logging builds the process logger. Output always goes to stderr;
// stdout carries --json output and the MCP stdio transport.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/joeynyc/repobrief/internal/config"
)

// DebugEnv forces debug logging when set to "1".
const DebugEnv = "REPOBRIEF_DEBUG"

// New returns the root logger for cfg writing to stderr.
func New(cfg config.LogConfig, verbose bool) zerolog.Logger {
	return NewWithWriter(os.Stderr, cfg, verbose)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, cfg config.LogConfig, verbose bool) zerolog.Logger {
	if !strings.EqualFold(cfg.Format, "json") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	if verbose || os.Getenv(DebugEnv) == "1" {
		level = zerolog.DebugLevel
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Component derives a child logger tagged with the component name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
