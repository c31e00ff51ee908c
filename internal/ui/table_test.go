package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"shelf/internal/history"
	"shelf/pkg/coordinator"
	"shelf/pkg/provider"
	"shelf/pkg/provider/providertest"
	"shelf/pkg/sources"
)

func init() {
	color.NoColor = true
}

func TestFprintRecords(t *testing.T) {
	var buf bytes.Buffer
	FprintRecords(&buf, []provider.RecordView{
		{Backend: "flatpak", Name: "Maps", ID: "org.gnome.Maps", Version: "46", Source: provider.Source{Remote: "flathub", Branch: "stable"}, Size: 3 << 20, Status: provider.StatusInstalled},
		{Backend: "appimage", Name: "Tool", ID: "abc", Status: provider.StatusUpdateAvailable},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], "BACKEND")
	assert.Contains(t, lines[1], "flathub:stable")
	assert.Contains(t, lines[1], "3.0 MiB")
	assert.Contains(t, lines[2], "update available")
}

func TestFprintRecordsEmpty(t *testing.T) {
	var buf bytes.Buffer
	FprintRecords(&buf, nil)
	assert.Equal(t, "No applications found\n", buf.String())
}

func TestFprintGroupsMarksActiveSource(t *testing.T) {
	fp := providertest.New("flatpak")
	groups := sources.GroupRecords([]*provider.Record{
		fp.Record("org.gnome.TextEditor", "Text Editor", "gnome-nightly", "master", "47.alpha"),
		fp.Record("org.gnome.TextEditor", "Text Editor", "flathub", "stable", "46"),
	})

	var buf bytes.Buffer
	FprintGroups(&buf, groups, func(g *sources.Group) []sources.Option { return g.Options(nil) })

	out := buf.String()
	assert.Contains(t, out, "Found 1 applications")
	assert.Contains(t, out, "Text Editor 46")
	assert.Contains(t, out, "sources: gnome-nightly, flathub *")
}

func TestFprintUpdates(t *testing.T) {
	fp := providertest.New("flatpak")
	r := fp.Record("org.gnome.Maps", "Maps", "flathub", "stable", "46")

	var buf bytes.Buffer
	FprintUpdates(&buf, []coordinator.Update{{
		Candidate:    provider.UpdateCandidate{ID: r.ID, TargetVersion: "47", Record: r},
		VersionLabel: "46 > 47",
	}})
	assert.Contains(t, buf.String(), "46 > 47")

	buf.Reset()
	FprintUpdates(&buf, nil)
	assert.Contains(t, buf.String(), "up to date")
}

func TestFprintRecordInfo(t *testing.T) {
	var buf bytes.Buffer
	FprintRecordInfo(&buf, RecordInfo{
		View: provider.RecordView{
			Name: "Maps", ID: "org.gnome.Maps", Backend: "flatpak", Status: provider.StatusInstalled,
			Source: provider.Source{Remote: "flathub", Branch: "stable"}, Description: "short",
		},
		Description:   "A long description.",
		InstalledFrom: "Flathub (stable)",
	})

	out := buf.String()
	assert.Contains(t, out, "Installed from: Flathub (stable)")
	assert.Contains(t, out, "A long description.")
	assert.NotContains(t, out, "Size:")
}

func TestFprintHistory(t *testing.T) {
	ok := history.Entry{Timestamp: time.Now(), Operation: provider.OpInstall, Backend: "flatpak", Name: "Maps", Success: true}
	failed := history.Entry{Timestamp: time.Now(), Operation: provider.OpUpdateAll, Backend: "appimage"}
	failed.Finish(errors.New("disk full"))

	var buf bytes.Buffer
	FprintHistory(&buf, []history.Entry{ok, failed})

	out := buf.String()
	assert.Contains(t, out, "Maps")
	assert.Contains(t, out, "update-all")
	assert.Contains(t, out, "disk full")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a b", truncate("a\n  b", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
