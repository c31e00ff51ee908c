package tui

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"shelf/internal/history"
	"shelf/pkg/coordinator"
	"shelf/pkg/provider"
	"shelf/pkg/sources"
)

// View represents different views in the TUI
type View int

const (
	ViewInstalled View = iota
	ViewSearch
	ViewUpdates
	ViewHistory
	ViewDetails
	ViewHelp
)

// Tab represents a navigable tab
type Tab struct {
	Name string
	View View
}

// DefaultTabs returns the default tab configuration
func DefaultTabs() []Tab {
	return []Tab{
		{Name: "Installed", View: ViewInstalled},
		{Name: "Search", View: ViewSearch},
		{Name: "Updates", View: ViewUpdates},
		{Name: "History", View: ViewHistory},
	}
}

// HistoryLister is the part of the history store the TUI reads.
type HistoryLister interface {
	List(limit int) ([]history.Entry, error)
}

// Item is one row of a record list. Group is set for search results, Update for
// the updates tab.
type Item struct {
	Record *provider.Record
	Group  *sources.Group
	Update string
}

// Model holds the application state
type Model struct {
	// Core state
	ready    bool
	quitting bool

	// Dimensions
	width  int
	height int

	// Navigation
	tabs       []Tab
	activeTab  int
	activeView View
	prevView   View

	// Data
	coord          *coordinator.Coordinator
	history        HistoryLister
	installed      []*provider.Record
	groups         []*sources.Group
	updates        []coordinator.Update
	historyEntries []history.Entry
	selected       *Item
	description    string

	// UI state
	loading      bool
	loadingMsg   string
	errorMsg     string
	successMsg   string
	filterText   string
	searchQuery  string
	inputMode    bool
	inputPrompt  string
	inputValue   string
	inputHandler func(string)

	// Cursor positions for each view
	cursors map[View]int

	// Scroll offsets for each view
	scrolls map[View]int

	// Styles and keys
	styles *Styles
	keys   KeyMap

	// Confirmation dialog
	showConfirm   bool
	confirmTitle  string
	confirmAction func()
}

// NewModel creates a new TUI model. hist may be nil.
func NewModel(coord *coordinator.Coordinator, hist HistoryLister) *Model {
	tabs := DefaultTabs()
	return &Model{
		tabs:       tabs,
		activeTab:  0,
		activeView: ViewInstalled,
		coord:      coord,
		history:    hist,
		cursors:    make(map[View]int),
		scrolls:    make(map[View]int),
		styles:     DefaultStyles(),
		keys:       DefaultKeyMap(tabs),
	}
}

// SetSize sets the terminal size
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// CurrentTab returns the current tab
func (m *Model) CurrentTab() Tab {
	if m.activeTab >= 0 && m.activeTab < len(m.tabs) {
		return m.tabs[m.activeTab]
	}
	return m.tabs[0]
}

// Cursor returns the cursor position for the current view
func (m *Model) Cursor() int {
	return m.cursors[m.activeView]
}

// SetCursor sets the cursor position for the current view
func (m *Model) SetCursor(pos int) {
	m.cursors[m.activeView] = pos
}

// Scroll returns the scroll offset for the current view
func (m *Model) Scroll() int {
	return m.scrolls[m.activeView]
}

// SetScroll sets the scroll offset for the current view
func (m *Model) SetScroll(offset int) {
	m.scrolls[m.activeView] = offset
}

// VisibleHeight returns the height available for list content
func (m *Model) VisibleHeight() int {
	// Account for header (2), tabs (1), footer (2), padding (2)
	h := m.height - 7
	if h < 1 {
		return 1
	}
	return h
}

// ListItems returns the rows of the current view
func (m *Model) ListItems() []Item {
	var items []Item
	switch m.activeView {
	case ViewInstalled:
		for _, r := range m.installed {
			items = append(items, Item{Record: r})
		}
		return m.filterItems(items)
	case ViewSearch:
		for _, g := range m.groups {
			if r := g.Active(); r != nil {
				items = append(items, Item{Record: r, Group: g})
			}
		}
		return items
	case ViewUpdates:
		for _, u := range m.updates {
			items = append(items, Item{Record: u.Candidate.Record, Update: u.VersionLabel})
		}
		return items
	default:
		return nil
	}
}

// filterItems ranks items by fuzzy match against the current filter text
func (m *Model) filterItems(items []Item) []Item {
	query := strings.TrimSpace(m.filterText)
	if query == "" {
		return items
	}

	matches := fuzzy.FindFrom(query, itemSource(items))
	out := make([]Item, len(matches))
	for i, match := range matches {
		out[i] = items[match.Index]
	}
	return out
}

type itemSource []Item

func (s itemSource) String(i int) string {
	return s[i].Record.Name + " " + s[i].Record.ID + " " + s[i].Record.Description
}
func (s itemSource) Len() int { return len(s) }

// SelectedItem returns the row under the cursor
func (m *Model) SelectedItem() *Item {
	if m.activeView == ViewDetails {
		return m.selected
	}
	items := m.ListItems()
	cursor := m.Cursor()
	if cursor >= 0 && cursor < len(items) {
		return &items[cursor]
	}
	return nil
}

// MoveCursor moves the cursor by delta, clamping to valid range
func (m *Model) MoveCursor(delta int) {
	items := m.ListItems()
	if m.activeView == ViewHistory {
		items = make([]Item, len(m.historyEntries))
	}
	if len(items) == 0 {
		return
	}

	newPos := m.Cursor() + delta
	if newPos < 0 {
		newPos = 0
	}
	if newPos >= len(items) {
		newPos = len(items) - 1
	}
	m.SetCursor(newPos)

	// Adjust scroll to keep cursor visible
	visibleHeight := m.VisibleHeight()
	scroll := m.Scroll()

	if newPos < scroll {
		m.SetScroll(newPos)
	} else if newPos >= scroll+visibleHeight {
		m.SetScroll(newPos - visibleHeight + 1)
	}
}

// GoToTop moves cursor to the top
func (m *Model) GoToTop() {
	m.SetCursor(0)
	m.SetScroll(0)
}

// GoToBottom moves cursor to the bottom
func (m *Model) GoToBottom() {
	items := m.ListItems()
	if len(items) == 0 {
		return
	}
	m.SetCursor(len(items) - 1)

	visibleHeight := m.VisibleHeight()
	if len(items) > visibleHeight {
		m.SetScroll(len(items) - visibleHeight)
	}
}

// clampCursor keeps the cursor inside the list after it shrank.
func (m *Model) clampCursor(v View, n int) {
	if m.cursors[v] >= n {
		m.cursors[v] = max(n-1, 0)
	}
	if m.scrolls[v] > m.cursors[v] {
		m.scrolls[v] = m.cursors[v]
	}
}

// NextTab switches to the next tab
func (m *Model) NextTab() {
	m.SetTab((m.activeTab + 1) % len(m.tabs))
}

// PrevTab switches to the previous tab
func (m *Model) PrevTab() {
	i := m.activeTab - 1
	if i < 0 {
		i = len(m.tabs) - 1
	}
	m.SetTab(i)
}

// SetTab switches to a specific tab by index
func (m *Model) SetTab(index int) {
	if index >= 0 && index < len(m.tabs) {
		m.activeTab = index
		m.activeView = m.tabs[m.activeTab].View
	}
}

// ShowDetails shows the details view for the selected row
func (m *Model) ShowDetails() bool {
	item := m.SelectedItem()
	if item == nil {
		return false
	}
	m.selected = item
	m.description = ""
	m.prevView = m.activeView
	m.activeView = ViewDetails
	return true
}

// GoBack returns to the previous view
func (m *Model) GoBack() {
	if m.activeView == ViewDetails || m.activeView == ViewHelp {
		m.activeView = m.prevView
	}
}

// SetLoading sets the loading state
func (m *Model) SetLoading(loading bool, msg string) {
	m.loading = loading
	m.loadingMsg = msg
}

// SetError sets an error message
func (m *Model) SetError(msg string) {
	m.errorMsg = msg
	m.successMsg = ""
}

// SetSuccess sets a success message
func (m *Model) SetSuccess(msg string) {
	m.successMsg = msg
	m.errorMsg = ""
}

// ClearMessages clears all messages
func (m *Model) ClearMessages() {
	m.errorMsg = ""
	m.successMsg = ""
}

// StartInput starts input mode
func (m *Model) StartInput(prompt string, handler func(string)) {
	m.inputMode = true
	m.inputPrompt = prompt
	m.inputValue = ""
	m.inputHandler = handler
}

// FinishInput finishes input mode and calls the handler
func (m *Model) FinishInput() {
	handler, value := m.inputHandler, m.inputValue
	m.CancelInput()
	if handler != nil {
		handler(value)
	}
}

// CancelInput cancels input mode
func (m *Model) CancelInput() {
	m.inputMode = false
	m.inputPrompt = ""
	m.inputValue = ""
	m.inputHandler = nil
}

// ShowConfirm shows a confirmation dialog
func (m *Model) ShowConfirm(title string, action func()) {
	m.showConfirm = true
	m.confirmTitle = title
	m.confirmAction = action
}

// ConfirmYes executes the confirmation action
func (m *Model) ConfirmYes() {
	if m.confirmAction != nil {
		m.confirmAction()
	}
	m.showConfirm = false
	m.confirmTitle = ""
	m.confirmAction = nil
}

// ConfirmNo cancels the confirmation
func (m *Model) ConfirmNo() {
	m.showConfirm = false
	m.confirmTitle = ""
	m.confirmAction = nil
}
