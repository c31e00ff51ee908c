package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"shelf/internal/history"
	"shelf/pkg/coordinator"
	"shelf/pkg/provider"
	"shelf/pkg/sources"
)

// Messages for async operations
type (
	installedLoadedMsg struct {
		records []*provider.Record
		err     error
	}

	searchResultsMsg struct {
		query  string
		groups []*sources.Group
		err    error
	}

	updatesLoadedMsg struct {
		updates []coordinator.Update
		err     error
	}

	historyLoadedMsg struct {
		entries []history.Entry
		err     error
	}

	descriptionMsg struct {
		key  string
		text string
	}

	sourceSelectedMsg struct {
		record *provider.Record
		err    error
	}

	launchedMsg struct {
		name string
		err  error
	}

	eventMsg        coordinator.Event
	eventsClosedMsg struct{}
)

// App wraps the Model with bubbletea components
type App struct {
	*Model
	ctx       context.Context
	spinner   spinner.Model
	textInput textinput.Model

	events      <-chan coordinator.Event
	unsubscribe func()

	// pending collects commands produced by input and confirm handlers.
	pending []tea.Cmd
	// bulkRunning counts backends whose bulk update has not concluded.
	bulkRunning int
}

// NewApp creates a new TUI application
func NewApp(ctx context.Context, coord *coordinator.Coordinator, hist HistoryLister) *App {
	// Initialize spinner
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorPrimary)

	// Initialize text input
	ti := textinput.New()
	ti.Placeholder = "Type to search..."
	ti.CharLimit = 100
	ti.Width = 40

	events, unsubscribe := coord.Subscribe(256)

	return &App{
		Model:       NewModel(coord, hist),
		ctx:         ctx,
		spinner:     sp,
		textInput:   ti,
		events:      events,
		unsubscribe: unsubscribe,
	}
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	a.SetLoading(true, "Loading applications...")
	return tea.Batch(
		a.spinner.Tick,
		a.loadInstalled(),
		a.loadHistory(),
		a.waitForEvent(),
	)
}

func (a *App) later(cmd tea.Cmd) {
	a.pending = append(a.pending, cmd)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetSize(msg.Width, msg.Height)
		a.ready = true

	case tea.KeyMsg:
		cmds = append(cmds, a.handleKey(msg))

	case installedLoadedMsg:
		a.SetLoading(false, "")
		if msg.err != nil {
			a.SetError(msg.err.Error())
		}
		a.installed = msg.records
		a.clampCursor(ViewInstalled, len(a.installed))

	case searchResultsMsg:
		a.SetLoading(false, "")
		if msg.query != a.searchQuery {
			break
		}
		a.groups = msg.groups
		a.cursors[ViewSearch], a.scrolls[ViewSearch] = 0, 0
		if msg.err != nil {
			a.SetError(msg.err.Error())
		} else if len(msg.groups) == 0 {
			a.SetError("No applications found")
		}

	case updatesLoadedMsg:
		a.SetLoading(false, "")
		if msg.err != nil {
			a.SetError(msg.err.Error())
		}
		if msg.err == nil || len(msg.updates) > 0 {
			a.updates = msg.updates
			a.clampCursor(ViewUpdates, len(a.updates))
		}

	case historyLoadedMsg:
		if msg.err == nil {
			a.historyEntries = msg.entries
		}

	case descriptionMsg:
		if a.selected != nil && a.selected.Record.Key() == msg.key {
			a.description = msg.text
		}

	case sourceSelectedMsg:
		if msg.err != nil {
			a.SetError(msg.err.Error())
		} else {
			v := msg.record.View()
			a.SetSuccess(fmt.Sprintf("%s from %s", v.Name, v.Source.ID()))
		}

	case launchedMsg:
		if msg.err != nil {
			a.SetError(msg.err.Error())
		} else {
			a.SetSuccess("Launched " + msg.name)
		}

	case eventMsg:
		cmds = append(cmds, a.handleEvent(coordinator.Event(msg)), a.waitForEvent())

	case eventsClosedMsg:
		// subscription cancelled

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	cmds = append(cmds, a.pending...)
	a.pending = nil
	return a, tea.Batch(cmds...)
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	// Handle confirmation dialog first
	if a.showConfirm {
		switch msg.String() {
		case "y", "Y", "enter":
			a.ConfirmYes()
		case "n", "N", "esc", "q":
			a.ConfirmNo()
		}
		return nil
	}

	// Handle input mode
	if a.inputMode {
		switch msg.String() {
		case "enter":
			a.FinishInput()
			return nil
		case "esc":
			a.CancelInput()
			return nil
		default:
			var cmd tea.Cmd
			a.textInput, cmd = a.textInput.Update(msg)
			a.inputValue = a.textInput.Value()
			return cmd
		}
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		a.quitting = true
		a.unsubscribe()
		return tea.Quit

	case key.Matches(msg, a.keys.Help):
		if a.activeView == ViewHelp {
			a.GoBack()
		} else {
			a.prevView = a.activeView
			a.activeView = ViewHelp
		}

	case key.Matches(msg, a.keys.Tabs...):
		for i, b := range a.keys.Tabs {
			if key.Matches(msg, b) {
				return a.openTab(i)
			}
		}

	case key.Matches(msg, a.keys.Left):
		a.PrevTab()
	case key.Matches(msg, a.keys.Right):
		a.NextTab()

	case key.Matches(msg, a.keys.Back):
		a.GoBack()
	case key.Matches(msg, a.keys.Cancel):
		a.GoBack()
		a.ClearMessages()

	// Navigation
	case key.Matches(msg, a.keys.Up):
		a.MoveCursor(-1)
	case key.Matches(msg, a.keys.Down):
		a.MoveCursor(1)
	case key.Matches(msg, a.keys.PageUp):
		a.MoveCursor(-a.VisibleHeight())
	case key.Matches(msg, a.keys.PageDown):
		a.MoveCursor(a.VisibleHeight())
	case key.Matches(msg, a.keys.Home):
		a.GoToTop()
	case key.Matches(msg, a.keys.End):
		a.GoToBottom()

	// Actions
	case key.Matches(msg, a.keys.Enter):
		if a.activeView != ViewHistory && a.ShowDetails() {
			return a.loadDescription(a.selected.Record)
		}

	case key.Matches(msg, a.keys.Search):
		a.SetTab(1)
		a.startSearch()

	case key.Matches(msg, a.keys.Filter):
		a.startFilter()

	case key.Matches(msg, a.keys.Refresh):
		return a.refresh()

	case key.Matches(msg, a.keys.Install):
		if item := a.SelectedItem(); item != nil {
			r := item.Record
			if st := r.Status(); st == provider.StatusNotInstalled || st == provider.StatusError {
				a.ShowConfirm(fmt.Sprintf("Install %s from %s?", r.Name, r.Source().ID()), func() {
					a.start(a.coord.Install(a.ctx, r, nil))
				})
			}
		}

	case key.Matches(msg, a.keys.Uninstall):
		if item := a.SelectedItem(); item != nil {
			r := item.Record
			if st := r.Status(); st.IsInstalled() || st == provider.StatusError {
				a.ShowConfirm(fmt.Sprintf("Remove %s?", r.Name), func() {
					a.start(a.coord.Uninstall(a.ctx, r, nil))
				})
			}
		}

	case key.Matches(msg, a.keys.Update):
		if item := a.SelectedItem(); item != nil && item.Record.Status() == provider.StatusUpdateAvailable {
			r := item.Record
			a.ShowConfirm(fmt.Sprintf("Update %s?", r.Name), func() {
				a.start(a.coord.Update(a.ctx, r, nil))
			})
		}

	case key.Matches(msg, a.keys.UpdateAll):
		if a.bulkRunning == 0 {
			a.ShowConfirm("Update everything?", func() {
				a.bulkRunning = len(a.coord.Registry().Available())
				a.SetLoading(true, "Updating all...")
				a.coord.UpdateAll(a.ctx, nil)
			})
		}

	case key.Matches(msg, a.keys.Source):
		if item := a.SelectedItem(); item != nil && item.Group != nil {
			return a.nextSource(item.Group)
		}

	case key.Matches(msg, a.keys.Launch):
		if item := a.SelectedItem(); item != nil && item.Record.Status().IsInstalled() {
			return a.launch(item.Record)
		}
	}

	return nil
}

// start reports synchronous rejections of an operation. Progress arrives as events.
func (a *App) start(_ <-chan coordinator.Result, err error) {
	switch {
	case errors.Is(err, provider.ErrBusy):
		a.SetError("Another operation is running for this application")
	case err != nil:
		a.SetError(err.Error())
	default:
		a.ClearMessages()
	}
}

func (a *App) handleEvent(ev coordinator.Event) tea.Cmd {
	switch ev.Kind {
	case coordinator.EventOperationFinished:
		res := ev.Result
		if res.Success {
			a.SetSuccess(fmt.Sprintf("%s %s: done", res.Op, ev.Record.Name))
		} else {
			a.SetError(fmt.Sprintf("%s %s: %v", res.Op, ev.Record.Name, res.Err))
		}
		cmds := []tea.Cmd{a.loadHistory(), a.loadInstalled()}
		if a.updates != nil {
			cmds = append(cmds, a.loadUpdates())
		}
		return tea.Batch(cmds...)

	case coordinator.EventBackendUpdated:
		res := ev.Backend
		if res.Success {
			a.SetSuccess(res.Backend + " updated")
		} else {
			a.SetError(fmt.Sprintf("%s: %v", res.Backend, res.Err))
		}
		if a.bulkRunning > 0 {
			a.bulkRunning--
		}
		if a.bulkRunning > 0 {
			return nil
		}
		a.SetLoading(false, "")
		return tea.Batch(a.loadHistory(), a.loadInstalled(), a.loadUpdates())
	}
	return nil
}

// View implements tea.Model
func (a *App) View() string {
	if !a.ready {
		return "Loading..."
	}

	if a.quitting {
		return ""
	}

	var b strings.Builder

	// Header
	b.WriteString(a.renderHeader())
	b.WriteString("\n")

	// Tabs
	b.WriteString(a.renderTabs())
	b.WriteString("\n")

	// Content
	b.WriteString(a.renderContent())

	// Footer
	b.WriteString(a.renderFooter())

	// Overlay: Confirmation dialog
	if a.showConfirm {
		return a.renderWithDialog()
	}

	return b.String()
}

// renderHeader renders the header bar
func (a *App) renderHeader() string {
	title := a.styles.Header.Render(" Shelf - Flatpak & AppImage ")

	// Right side: loading indicator or status
	var right string
	if a.loading {
		right = a.spinner.View() + " " + a.loadingMsg
	} else if a.errorMsg != "" {
		right = a.styles.Error.Render(a.errorMsg)
	} else if a.successMsg != "" {
		right = a.styles.Success.Render(a.successMsg)
	}

	// Pad to full width
	padding := a.width - lipgloss.Width(title) - lipgloss.Width(right) - 2
	if padding < 0 {
		padding = 0
	}

	return title + strings.Repeat(" ", padding) + right
}

// renderTabs renders the tab bar
func (a *App) renderTabs() string {
	var tabs []string
	for i, tab := range a.tabs {
		style := a.styles.TabInactive
		if i == a.activeTab {
			style = a.styles.TabActive
		}
		tabs = append(tabs, style.Render(fmt.Sprintf("[%d] %s", i+1, tab.Name)))
	}

	return lipgloss.NewStyle().
		Width(a.width).
		Background(ColorBgAlt).
		Padding(0, 1).
		Render(strings.Join(tabs, " "))
}

// renderContent renders the main content area
func (a *App) renderContent() string {
	height := a.height - 5 // Account for header, tabs, footer

	var content string
	switch a.activeView {
	case ViewInstalled:
		title := "Installed"
		if a.filterText != "" {
			title += " - Filter: " + a.filterText
		}
		content = a.renderRecordList(title)
	case ViewSearch:
		content = a.renderSearchView()
	case ViewUpdates:
		content = a.renderRecordList("Available Updates")
	case ViewHistory:
		content = a.renderHistoryView()
	case ViewDetails:
		content = a.renderDetailsView()
	case ViewHelp:
		content = a.renderHelpView()
	}

	return lipgloss.NewStyle().
		Width(a.width).
		Height(height).
		Render(content)
}

// renderRecordList renders the rows of the current view
func (a *App) renderRecordList(title string) string {
	var b strings.Builder

	items := a.ListItems()
	b.WriteString(a.styles.Title.Render(fmt.Sprintf("%s (%d)", title, len(items))))
	b.WriteString("\n\n")

	if len(items) == 0 {
		b.WriteString(a.styles.Description.Render("Nothing to show"))
		return b.String()
	}
	b.WriteString(a.renderItems(items, a.VisibleHeight()))
	return b.String()
}

func (a *App) renderItems(items []Item, visibleHeight int) string {
	var b strings.Builder

	scroll := a.Scroll()
	cursor := a.Cursor()
	end := min(scroll+visibleHeight, len(items))

	for i := scroll; i < end; i++ {
		b.WriteString(a.renderRecordLine(items[i], i == cursor))
		b.WriteString("\n")
	}

	// Scroll indicator
	if len(items) > visibleHeight {
		b.WriteString(a.styles.Description.Render(fmt.Sprintf("\n  (%d/%d)", cursor+1, len(items))))
	}
	return b.String()
}

// renderRecordLine renders a single record row
func (a *App) renderRecordLine(item Item, selected bool) string {
	v := item.Record.View()

	cursor := "  "
	if selected {
		cursor = a.styles.ListItemSelected.String()
	}

	name := lipgloss.NewStyle().Foreground(ColorText).Width(28).Render(truncate(v.Name, 27))
	if selected {
		name = a.styles.RecordName.Width(28).Render(truncate(v.Name, 27))
	}

	version := v.Version
	if item.Update != "" {
		version = item.Update
	}
	version = a.styles.RecordVersion.Width(18).Render(truncate(version, 17))

	badge := BackendBadge(v.Backend)
	source := a.styles.RecordSource.Width(20).Render(truncate(v.Source.ID(), 19))
	status := StatusStyle(v.Status).Width(17).Render(v.Status.String())

	line := cursor + name + " " + version + " " + badge + " " + source + " " + status
	if room := a.width - lipgloss.Width(line) - 2; room > 10 {
		line += " " + a.styles.RecordDesc.Render(truncate(v.Description, room))
	}
	return line
}

// renderSearchView renders the search view
func (a *App) renderSearchView() string {
	var b strings.Builder

	switch {
	case a.inputMode && a.inputPrompt == searchPrompt:
		b.WriteString(a.styles.InputPrompt.Render(searchPrompt))
		b.WriteString(a.textInput.View())
		b.WriteString("\n\n")
	case a.searchQuery != "":
		b.WriteString(a.styles.Title.Render(fmt.Sprintf("Results for '%s' (%d)", a.searchQuery, len(a.groups))))
		b.WriteString("\n\n")
	default:
		b.WriteString(a.styles.Title.Render("Search Applications"))
		b.WriteString("\n")
		b.WriteString(a.styles.Description.Render("Press / to search"))
		b.WriteString("\n\n")
	}

	items := a.ListItems()
	if len(items) > 0 {
		b.WriteString(a.renderItems(items, a.VisibleHeight()-4))
	} else if a.searchQuery != "" && !a.loading {
		b.WriteString(a.styles.Description.Render("No results found"))
	}

	return b.String()
}

// renderHistoryView renders the history view
func (a *App) renderHistoryView() string {
	var b strings.Builder

	b.WriteString(a.styles.Title.Render("Operation History"))
	b.WriteString("\n\n")

	if len(a.historyEntries) == 0 {
		b.WriteString(a.styles.Description.Render("No operations recorded"))
		return b.String()
	}

	scroll := a.Scroll()
	end := min(scroll+a.VisibleHeight(), len(a.historyEntries))
	for i := scroll; i < end; i++ {
		entry := a.historyEntries[i]

		status := a.styles.Success.Render("OK")
		if !entry.Success {
			status = a.styles.Error.Render("FAILED") + " " + a.styles.Description.Render(truncate(entry.Error, 50))
		}

		cursor := "  "
		if i == a.Cursor() {
			cursor = a.styles.ListItemSelected.String()
		}

		app := entry.Name
		if app == "" {
			app = "all"
		}

		line := fmt.Sprintf("%s%-16s  %-12s  %-9s  %-30s  %s",
			cursor,
			humanize.Time(entry.Timestamp),
			entry.Operation,
			entry.Backend,
			truncate(app, 30),
			status)
		b.WriteString(line)
		b.WriteString("\n")
	}

	return b.String()
}

// renderDetailsView renders record details
func (a *App) renderDetailsView() string {
	var b strings.Builder

	if a.selected == nil {
		b.WriteString(a.styles.Error.Render("Nothing selected"))
		return b.String()
	}

	r := a.selected.Record
	v := r.View()

	// Header
	b.WriteString(a.styles.Title.Render(v.Name))
	b.WriteString(" ")
	b.WriteString(BackendBadge(v.Backend))
	b.WriteString("\n\n")

	field := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(a.styles.Subtitle.Render(fmt.Sprintf("%-16s", label)))
		b.WriteString(value)
		b.WriteString("\n")
	}
	field("ID", v.ID)
	field("Version", a.styles.RecordVersion.Render(v.Version))
	field("Source", v.Source.ID())
	field("Status", StatusStyle(v.Status).Render(v.Status.String()))
	if v.Status.IsInstalled() {
		field("Installed from", a.coord.InstalledFrom(r))
	}
	if v.Size > 0 {
		field("Size", humanize.IBytes(v.Size))
	}
	if g := a.selected.Group; g != nil {
		if opts := a.coord.SourceLabels(g); len(opts) > 1 {
			labels := make([]string, len(opts))
			for i, o := range opts {
				labels[i] = o.Label
				if o.Record == g.Active() {
					labels[i] = a.styles.RecordSource.Render(o.Label + " *")
				}
			}
			field("Sources", strings.Join(labels, ", "))
		}
	}
	b.WriteString("\n")

	desc := a.description
	if desc == "" {
		desc = v.Description
	}
	b.WriteString(a.styles.Description.Width(max(a.width-4, 20)).Render(desc))
	b.WriteString("\n\n")

	// Actions
	b.WriteString(a.styles.Subtitle.Render("Actions"))
	b.WriteString("\n")
	switch {
	case v.Status.Busy():
		b.WriteString("  " + a.spinner.View() + " " + v.Status.String() + "\n")
	case v.Status == provider.StatusUpdateAvailable:
		b.WriteString("  [u] Update  [r] Remove  [o] Open\n")
	case v.Status.IsInstalled():
		b.WriteString("  [r] Remove  [o] Open\n")
	default:
		b.WriteString("  [i] Install\n")
	}
	b.WriteString("  [b] Back\n")

	return b.String()
}

// renderHelpView renders the help view
func (a *App) renderHelpView() string {
	var b strings.Builder

	b.WriteString(a.styles.Title.Render("Keyboard Shortcuts"))
	b.WriteString("\n\n")

	for _, group := range a.keys.FullHelp() {
		for _, k := range group {
			h := k.Help()
			b.WriteString(fmt.Sprintf("  %s%s%s\n",
				a.styles.HelpKey.Width(12).Render(h.Key),
				a.styles.HelpSep.String(),
				a.styles.HelpDesc.Render(h.Desc)))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// renderFooter renders the footer bar
func (a *App) renderFooter() string {
	var hints []string

	switch a.activeView {
	case ViewInstalled:
		hints = []string{"r:remove", "u:update", "o:open", "f:filter", "Enter:details"}
	case ViewSearch:
		hints = []string{"i:install", "s:source", "/:search", "Enter:details"}
	case ViewUpdates:
		hints = []string{"u:update", "U:update all", "R:refresh"}
	case ViewDetails:
		hints = []string{"i:install", "r:remove", "u:update", "b:back"}
	}

	hints = append(hints, "?:help", "q:quit")

	return lipgloss.NewStyle().
		Width(a.width).
		Background(ColorBgAlt).
		Foreground(ColorMuted).
		Padding(0, 1).
		Render(strings.Join(hints, "  "))
}

// renderWithDialog renders the confirmation dialog
func (a *App) renderWithDialog() string {
	dialog := a.styles.Dialog.Render(
		a.styles.DialogTitle.Render(a.confirmTitle) + "\n\n" +
			a.styles.DialogButton.Render("[Y]es") + " " +
			lipgloss.NewStyle().Foreground(ColorMuted).Render("[N]o"),
	)

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, dialog,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(ColorBg))
}

// openTab switches to tab i and loads what its view shows on first visit.
func (a *App) openTab(i int) tea.Cmd {
	a.SetTab(i)
	switch a.activeView {
	case ViewSearch:
		if a.searchQuery == "" {
			a.startSearch()
		}
	case ViewUpdates:
		if a.updates == nil {
			return a.loadUpdates()
		}
	case ViewHistory:
		return a.loadHistory()
	}
	return nil
}

const searchPrompt = "Search: "

// startSearch initiates search input
func (a *App) startSearch() {
	a.textInput.SetValue("")
	a.textInput.Focus()
	a.StartInput(searchPrompt, func(query string) {
		query = strings.TrimSpace(query)
		if query == "" {
			return
		}
		a.searchQuery = query
		a.SetLoading(true, "Searching...")
		a.later(a.search(query))
	})
}

// startFilter initiates filter input
func (a *App) startFilter() {
	a.textInput.SetValue(a.filterText)
	a.textInput.Focus()
	a.StartInput("Filter: ", func(filter string) {
		a.filterText = filter
		a.SetCursor(0)
		a.SetScroll(0)
	})
}

func (a *App) refresh() tea.Cmd {
	switch a.activeView {
	case ViewSearch:
		if a.searchQuery != "" {
			a.SetLoading(true, "Searching...")
			return a.search(a.searchQuery)
		}
	case ViewUpdates:
		a.SetLoading(true, "Checking for updates...")
		return a.loadUpdates()
	case ViewHistory:
		return a.loadHistory()
	default:
		a.SetLoading(true, "Loading applications...")
		return a.loadInstalled()
	}
	return nil
}

// nextSource activates the source after the active one.
func (a *App) nextSource(g *sources.Group) tea.Cmd {
	opts := a.coord.SourceLabels(g)
	if len(opts) < 2 {
		return nil
	}
	next := opts[0]
	for i, o := range opts {
		if o.Record == g.Active() {
			next = opts[(i+1)%len(opts)]
		}
	}
	return func() tea.Msg {
		r, err := g.Select(a.ctx, next.ID, a.coord)
		return sourceSelectedMsg{record: r, err: err}
	}
}

// Async commands

func (a *App) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-a.events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(ev)
	}
}

func (a *App) loadInstalled() tea.Cmd {
	return func() tea.Msg {
		records, err := a.coord.ListInstalled(a.ctx)
		return installedLoadedMsg{records: records, err: err}
	}
}

func (a *App) search(query string) tea.Cmd {
	return func() tea.Msg {
		groups, err := a.coord.Search(a.ctx, query)
		return searchResultsMsg{query: query, groups: groups, err: err}
	}
}

func (a *App) loadUpdates() tea.Cmd {
	return func() tea.Msg {
		updates, err := a.coord.ListUpdates(a.ctx)
		if updates == nil && err == nil {
			updates = []coordinator.Update{}
		}
		return updatesLoadedMsg{updates: updates, err: err}
	}
}

func (a *App) loadHistory() tea.Cmd {
	return func() tea.Msg {
		if a.history == nil {
			return historyLoadedMsg{}
		}

		entries, err := a.history.List(100)
		return historyLoadedMsg{entries: entries, err: err}
	}
}

func (a *App) loadDescription(r *provider.Record) tea.Cmd {
	return func() tea.Msg {
		return descriptionMsg{key: r.Key(), text: a.coord.LongDescription(a.ctx, r)}
	}
}

func (a *App) launch(r *provider.Record) tea.Cmd {
	return func() tea.Msg {
		return launchedMsg{name: r.Name, err: a.coord.Run(a.ctx, r)}
	}
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if n <= 3 || len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// Run starts the TUI application
func Run(ctx context.Context, coord *coordinator.Coordinator, hist HistoryLister) error {
	app := NewApp(ctx, coord, hist)
	defer app.unsubscribe()

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
