// Package logging builds the zerolog logger handed to every component.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options configures New.
type Options struct {
	// Level is a zerolog level name. Unknown names fall back to warn.
	Level string
	// Verbose lowers the level to debug.
	Verbose bool
	// Color enables ANSI colors on the console writer.
	Color bool
	// Out defaults to stderr.
	Out io.Writer
}

// New returns a console logger for terminals and a JSON logger otherwise.
// It also replaces the global zerolog logger.
func New(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	if isTerminal(out) {
		cw := zerolog.NewConsoleWriter()
		cw.Out = out
		cw.NoColor = !opts.Color
		cw.TimeFormat = "15:04:05"
		out = cw
	}

	logger := zerolog.New(out).Level(ParseLevel(opts.Level, opts.Verbose)).With().Timestamp().Logger()
	log.Logger = logger
	return logger
}

// ParseLevel maps a level name to a zerolog level.
func ParseLevel(name string, verbose bool) zerolog.Level {
	if verbose {
		return zerolog.DebugLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || name == "" {
		return zerolog.WarnLevel
	}
	return level
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
