package ui

import (
	"os"
	"time"

	"github.com/briandowns/spinner"
)

// WithSpinner runs fn while a spinner labelled message turns on stderr. The
// spinner is cleared silently; errors are returned for the caller to report.
func WithSpinner(message string, fn func() error) error {
	charSet := spinner.CharSets[14]
	if !UseUnicode {
		charSet = spinner.CharSets[0]
	}

	s := spinner.New(charSet, 100*time.Millisecond, spinner.WithWriter(os.Stderr), spinner.WithHiddenCursor(true))
	s.Suffix = " " + message
	if UseColors {
		_ = s.Color("cyan")
	}

	s.Start()
	defer s.Stop()
	return fn()
}
