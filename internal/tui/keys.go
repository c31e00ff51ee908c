package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// KeyMap holds the bindings of the main screen.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding

	// Tabs[i] jumps to the i-th tab.
	Tabs []key.Binding

	Enter  key.Binding
	Search key.Binding
	Filter key.Binding
	Cancel key.Binding
	Back   key.Binding
	Help   key.Binding
	Quit   key.Binding

	Install   key.Binding
	Uninstall key.Binding
	Update    key.Binding
	UpdateAll key.Binding
	Source    key.Binding
	Launch    key.Binding
	Refresh   key.Binding
}

func bind(help, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

// DefaultKeyMap returns the default bindings, with one number key per tab.
func DefaultKeyMap(tabs []Tab) KeyMap {
	km := KeyMap{
		Up:       bind("↑/k", "move up", "up", "k"),
		Down:     bind("↓/j", "move down", "down", "j"),
		Left:     bind("←", "previous tab", "left"),
		Right:    bind("→", "next tab", "right"),
		PageUp:   bind("pgup", "page up", "pgup", "ctrl+u"),
		PageDown: bind("pgdown", "page down", "pgdown", "ctrl+d"),
		Home:     bind("g", "go to top", "home", "g"),
		End:      bind("G", "go to bottom", "end", "G"),

		Enter:  bind("enter", "details", "enter"),
		Search: bind("/", "search", "/"),
		Filter: bind("f", "filter", "f"),
		Cancel: bind("esc", "cancel", "esc"),
		Back:   bind("b", "back", "backspace", "b"),
		Help:   bind("?", "help", "?"),
		Quit:   bind("q", "quit", "q", "ctrl+c"),

		Install:   bind("i", "install", "i"),
		Uninstall: bind("r", "remove", "r", "d"),
		Update:    bind("u", "update", "u"),
		UpdateAll: bind("U", "update all", "U"),
		Source:    bind("s", "next source", "s"),
		Launch:    bind("o", "open", "o"),
		Refresh:   bind("R", "refresh", "R", "ctrl+r"),
	}
	for i, t := range tabs {
		n := strconv.Itoa(i + 1)
		km.Tabs = append(km.Tabs, bind(n, strings.ToLower(t.Name), n))
	}
	return km
}

// FullHelp groups the bindings for the help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.PageUp, k.PageDown, k.Home, k.End},
		k.Tabs,
		{k.Enter, k.Search, k.Filter, k.Back, k.Cancel},
		{k.Install, k.Uninstall, k.Update, k.UpdateAll, k.Source, k.Launch, k.Refresh},
		{k.Help, k.Quit},
	}
}
