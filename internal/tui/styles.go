// Package tui provides the interactive terminal interface of shelf.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"shelf/pkg/provider"
)

// Color palette
var (
	ColorPrimary   = lipgloss.Color("#7C3AED") // Purple
	ColorSecondary = lipgloss.Color("#06B6D4") // Cyan
	ColorSuccess   = lipgloss.Color("#10B981") // Green
	ColorWarning   = lipgloss.Color("#F59E0B") // Yellow
	ColorError     = lipgloss.Color("#EF4444") // Red
	ColorMuted     = lipgloss.Color("#6B7280") // Gray
	ColorText      = lipgloss.Color("#F3F4F6") // Light gray
	ColorBg        = lipgloss.Color("#1F2937") // Dark gray
	ColorBgAlt     = lipgloss.Color("#374151") // Slightly lighter
)

// BackendColors colors the badge of each backend
var BackendColors = map[string]lipgloss.Color{
	"flatpak":  lipgloss.Color("#4A90D9"), // Flatpak blue
	"appimage": lipgloss.Color("#8E44AD"),
}

// StatusColors colors each record status
var StatusColors = map[provider.Status]lipgloss.Color{
	provider.StatusNotInstalled:    ColorMuted,
	provider.StatusInstalled:       ColorSuccess,
	provider.StatusUpdateAvailable: ColorWarning,
	provider.StatusInstalling:      ColorSecondary,
	provider.StatusUninstalling:    ColorSecondary,
	provider.StatusUpdating:        ColorSecondary,
	provider.StatusError:           ColorError,
}

// Styles contains all the lipgloss styles used in the TUI
type Styles struct {
	Header lipgloss.Style

	// Tabs
	TabActive   lipgloss.Style
	TabInactive lipgloss.Style

	// Content
	Title       lipgloss.Style
	Subtitle    lipgloss.Style
	Description lipgloss.Style

	ListItemSelected lipgloss.Style

	// Record display
	RecordName    lipgloss.Style
	RecordVersion lipgloss.Style
	RecordSource  lipgloss.Style
	RecordDesc    lipgloss.Style

	// Status indicators
	Success lipgloss.Style
	Error   lipgloss.Style

	InputPrompt lipgloss.Style

	// Help
	HelpKey  lipgloss.Style
	HelpDesc lipgloss.Style
	HelpSep  lipgloss.Style

	// Dialog
	Dialog       lipgloss.Style
	DialogTitle  lipgloss.Style
	DialogButton lipgloss.Style
}

// DefaultStyles returns the default style configuration
func DefaultStyles() *Styles {
	s := &Styles{}

	s.Header = lipgloss.NewStyle().
		Foreground(ColorText).
		Background(ColorBgAlt).
		Padding(0, 1).
		Bold(true)

	// Tabs
	tab := lipgloss.NewStyle().
		Padding(0, 2)

	s.TabActive = tab.
		Foreground(ColorPrimary).
		Bold(true).
		Underline(true)

	s.TabInactive = tab.
		Foreground(ColorMuted)

	// Content
	s.Title = lipgloss.NewStyle().
		Foreground(ColorText).
		Bold(true).
		MarginBottom(1)

	s.Subtitle = lipgloss.NewStyle().
		Foreground(ColorSecondary).
		Bold(true)

	s.Description = lipgloss.NewStyle().
		Foreground(ColorMuted)

	s.ListItemSelected = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		SetString("> ")

	// Record display
	s.RecordName = lipgloss.NewStyle().
		Foreground(ColorText).
		Bold(true)

	s.RecordVersion = lipgloss.NewStyle().
		Foreground(ColorSuccess)

	s.RecordSource = lipgloss.NewStyle().
		Foreground(ColorSecondary).
		Italic(true)

	s.RecordDesc = lipgloss.NewStyle().
		Foreground(ColorMuted)

	// Status indicators
	s.Success = lipgloss.NewStyle().
		Foreground(ColorSuccess).
		Bold(true)

	s.Error = lipgloss.NewStyle().
		Foreground(ColorError).
		Bold(true)

	s.InputPrompt = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true)

	// Help
	s.HelpKey = lipgloss.NewStyle().
		Foreground(ColorSecondary).
		Bold(true)

	s.HelpDesc = lipgloss.NewStyle().
		Foreground(ColorMuted)

	s.HelpSep = lipgloss.NewStyle().
		Foreground(ColorMuted).
		SetString(" - ")

	// Dialog
	s.Dialog = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(1, 2).
		Width(60)

	s.DialogTitle = lipgloss.NewStyle().
		Foreground(ColorText).
		Bold(true).
		MarginBottom(1)

	s.DialogButton = lipgloss.NewStyle().
		Foreground(ColorText).
		Background(ColorPrimary).
		Padding(0, 2).
		MarginRight(1)

	return s
}

// StatusStyle returns the style of a record status
func StatusStyle(status provider.Status) lipgloss.Style {
	color, ok := StatusColors[status]
	if !ok {
		color = ColorMuted
	}
	return lipgloss.NewStyle().Foreground(color)
}

// Badge creates a badge-style label
func Badge(text string, color lipgloss.Color) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(color).
		Padding(0, 1).
		Render(text)
}

// BackendBadge creates a badge for a backend
func BackendBadge(backend string) string {
	color, ok := BackendColors[backend]
	if !ok {
		color = ColorMuted
	}
	return Badge(backend, color)
}
