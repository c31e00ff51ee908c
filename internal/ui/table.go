package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"shelf/internal/history"
	"shelf/pkg/coordinator"
	"shelf/pkg/provider"
	"shelf/pkg/sources"
)

// Table wraps tabwriter for consistent styling.
type Table struct {
	writer  *tabwriter.Writer
	headers []string
}

// NewTable creates a new table writing to stdout.
func NewTable(header []string) *Table {
	return NewTableWriter(os.Stdout, header)
}

// NewTableWriter creates a new table that writes to a specific writer.
func NewTableWriter(w io.Writer, header []string) *Table {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	t := &Table{
		writer:  tw,
		headers: header,
	}
	if len(header) > 0 {
		row := make([]string, len(header))
		for i, h := range header {
			row[i] = Label.Sprint(strings.ToUpper(h))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return t
}

// AddRow adds a row to the table.
func (t *Table) AddRow(row ...string) {
	fmt.Fprintln(t.writer, strings.Join(row, "\t"))
}

// Render flushes the table.
func (t *Table) Render() {
	t.writer.Flush()
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func size(v provider.RecordView) string {
	if v.Size == 0 {
		return "-"
	}
	return humanize.IBytes(v.Size)
}

// PrintRecords prints records in a table on stdout.
func PrintRecords(views []provider.RecordView) {
	FprintRecords(os.Stdout, views)
}

// FprintRecords prints records in a table.
func FprintRecords(w io.Writer, views []provider.RecordView) {
	if len(views) == 0 {
		fmt.Fprintln(w, Muted.Sprint("No applications found"))
		return
	}

	t := NewTableWriter(w, []string{"backend", "name", "id", "version", "source", "size", "status"})
	for _, v := range views {
		t.AddRow(
			Backend.Sprint(v.Backend),
			RecordName.Sprint(v.Name),
			v.ID,
			RecordVersion.Sprint(v.Version),
			RecordSource.Sprint(v.Source.ID()),
			size(v),
			StatusText(v.Status),
		)
	}
	t.Render()
}

// PrintGroups prints search results with one line per application and its sources.
func PrintGroups(groups []*sources.Group, labels func(*sources.Group) []sources.Option) {
	FprintGroups(os.Stdout, groups, labels)
}

// FprintGroups prints search results grouped by application.
func FprintGroups(w io.Writer, groups []*sources.Group, labels func(*sources.Group) []sources.Option) {
	if len(groups) == 0 {
		fmt.Fprintln(w, Muted.Sprint("No applications found"))
		return
	}

	fmt.Fprintln(w, Header.Sprintf("Found %d applications", len(groups)))
	for _, g := range groups {
		active := g.Active()
		v := active.View()

		version := ""
		if v.Version != "" {
			version = " " + RecordVersion.Sprint(v.Version)
		}
		fmt.Fprintf(w, "\n%s %s%s %s\n", Backend.Sprint("["+v.Backend+"]"), RecordName.Sprint(v.Name), version, StatusText(v.Status))
		fmt.Fprintf(w, "  %s\n", Muted.Sprint(v.ID))
		if v.Description != "" {
			fmt.Fprintf(w, "  %s\n", truncate(v.Description, 70))
		}

		opts := labels(g)
		if len(opts) < 2 {
			continue
		}
		names := make([]string, len(opts))
		for i, o := range opts {
			names[i] = o.Label
			if o.Record == active {
				names[i] = RecordSource.Sprint(o.Label + " *")
			}
		}
		fmt.Fprintf(w, "  %s %s\n", Muted.Sprint("sources:"), strings.Join(names, ", "))
	}
}

// PrintUpdates prints pending updates on stdout.
func PrintUpdates(updates []coordinator.Update) {
	FprintUpdates(os.Stdout, updates)
}

// FprintUpdates prints pending updates.
func FprintUpdates(w io.Writer, updates []coordinator.Update) {
	if len(updates) == 0 {
		fmt.Fprintln(w, Success.Sprint(symbols.ok+" Everything is up to date"))
		return
	}

	t := NewTableWriter(w, []string{"backend", "name", "id", "version", "size"})
	for _, u := range updates {
		v := u.Candidate.Record.View()
		sz := u.Candidate.Size
		if sz == "" {
			sz = "-"
		}
		t.AddRow(Backend.Sprint(v.Backend), RecordName.Sprint(v.Name), v.ID, RecordVersion.Sprint(u.VersionLabel), sz)
	}
	t.Render()
}

// RecordInfo is the detail view of one record.
type RecordInfo struct {
	View          provider.RecordView
	Description   string
	InstalledFrom string
	Sources       []sources.Option
}

// PrintRecordInfo prints detailed information about a record on stdout.
func PrintRecordInfo(info RecordInfo) {
	FprintRecordInfo(os.Stdout, info)
}

// FprintRecordInfo prints detailed information about a record.
func FprintRecordInfo(w io.Writer, info RecordInfo) {
	v := info.View
	fmt.Fprintln(w, Header.Sprint(v.Name))

	printField(w, "ID", v.ID)
	printField(w, "Backend", v.Backend)
	printField(w, "Status", StatusText(v.Status))
	printField(w, "Version", v.Version)
	printField(w, "Source", v.Source.ID())
	if info.InstalledFrom != "" && v.Status.IsInstalled() {
		printField(w, "Installed from", info.InstalledFrom)
	}
	if v.Size > 0 {
		printField(w, "Size", humanize.IBytes(v.Size))
	}
	if len(info.Sources) > 1 {
		labels := make([]string, len(info.Sources))
		for i, o := range info.Sources {
			labels[i] = o.Label
		}
		printField(w, "Sources", strings.Join(labels, ", "))
	}

	desc := info.Description
	if desc == "" {
		desc = v.Description
	}
	if desc != "" {
		fmt.Fprintf(w, "\n%s\n", desc)
	}
}

// printField prints a single field with formatting.
func printField(w io.Writer, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(w, "  %s: %s\n", Info.Sprint(label), value)
}

// PrintHistory prints history entries on stdout, newest first.
func PrintHistory(entries []history.Entry) {
	FprintHistory(os.Stdout, entries)
}

// FprintHistory prints history entries, newest first.
func FprintHistory(w io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, Muted.Sprint("No operations recorded"))
		return
	}

	t := NewTableWriter(w, []string{"time", "operation", "backend", "application", "source", "result"})
	for _, e := range entries {
		result := Success.Sprint(symbols.ok)
		if !e.Success {
			result = Error.Sprint(symbols.fail) + " " + truncate(e.Error, 40)
		}
		app := e.Name
		if app == "" {
			app = e.RecordID
		}
		if app == "" {
			app = "-"
		}
		t.AddRow(
			humanize.Time(e.Timestamp),
			string(e.Operation),
			Backend.Sprint(e.Backend),
			app,
			e.Source,
			result,
		)
	}
	t.Render()
}
