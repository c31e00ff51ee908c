// Package ui provides terminal output helpers for the shelf CLI.
package ui

import (
	"os"

	"github.com/fatih/color"

	"shelf/pkg/provider"
)

// Palette shared by the message helpers and the tables.
var (
	Success = color.New(color.FgGreen, color.Bold)
	Error   = color.New(color.FgRed, color.Bold)
	Warning = color.New(color.FgYellow, color.Bold)
	Info    = color.New(color.FgCyan)
	Header  = color.New(color.FgMagenta, color.Bold)
	Muted   = color.New(color.FgHiBlack)
	Label   = color.New(color.Bold)

	RecordName    = color.New(color.FgWhite, color.Bold)
	RecordVersion = color.New(color.FgGreen)
	RecordSource  = color.New(color.FgCyan)
	Backend       = color.New(color.FgMagenta)
)

var statusColors = map[provider.Status]*color.Color{
	provider.StatusNotInstalled:    Muted,
	provider.StatusInstalled:       RecordVersion,
	provider.StatusUpdateAvailable: Warning,
	provider.StatusInstalling:      Info,
	provider.StatusUninstalling:    Info,
	provider.StatusUpdating:        Info,
	provider.StatusError:           Error,
}

// symbolSet prefixes one-line messages.
type symbolSet struct {
	ok, fail, warn, info string
}

var (
	unicodeSymbols = symbolSet{ok: "✓", fail: "✗", warn: "!", info: "→"}
	asciiSymbols   = symbolSet{ok: "[OK]", fail: "[ERROR]", warn: "[WARN]", info: "->"}
)

var (
	// UseColors reports whether output is colored.
	UseColors = true
	// UseUnicode reports whether spinners and symbols may use unicode.
	UseUnicode = true

	symbols = unicodeSymbols
)

// Init applies the output settings. NO_COLOR always disables colors.
func Init(useColors, useUnicode bool) {
	UseColors = useColors && os.Getenv("NO_COLOR") == ""
	UseUnicode = useUnicode
	if !UseColors {
		color.NoColor = true
	}

	symbols = unicodeSymbols
	if !useUnicode {
		symbols = asciiSymbols
	}
}

func message(c *color.Color, symbol, format string, args []interface{}) {
	c.Printf(symbol+" "+format+"\n", args...)
}

// SuccessMsg prints a success message.
func SuccessMsg(format string, args ...interface{}) {
	message(Success, symbols.ok, format, args)
}

// ErrorMsg prints an error message.
func ErrorMsg(format string, args ...interface{}) {
	message(Error, symbols.fail, format, args)
}

// WarningMsg prints a warning message.
func WarningMsg(format string, args ...interface{}) {
	message(Warning, symbols.warn, format, args)
}

// InfoMsg prints an info message.
func InfoMsg(format string, args ...interface{}) {
	message(Info, symbols.info, format, args)
}

// MutedMsg prints a dim line without a symbol.
func MutedMsg(format string, args ...interface{}) {
	Muted.Printf(format+"\n", args...)
}

// StatusText returns the colored, human-readable status.
func StatusText(s provider.Status) string {
	if c, ok := statusColors[s]; ok {
		return c.Sprint(s.String())
	}
	return s.String()
}
