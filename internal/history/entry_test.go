package history

import (
	"errors"
	"strings"
	"testing"

	"shelf/pkg/provider"
)

type extra struct{}

func (extra) Backend() string { return "flatpak" }
func (extra) Version() string { return "1.0" }

func (extra) Source() provider.Source {
	return provider.Source{Remote: "flathub", Branch: "stable"}
}

func TestNewEntry(t *testing.T) {
	r := provider.NewRecord("flatpak", "org.gnome.Maps", "Maps", "", provider.StatusNotInstalled, extra{})
	entry := NewEntry(provider.OpInstall, "flatpak", r)

	if entry.ID == "" {
		t.Error("entry ID should not be empty")
	}
	if entry.Operation != provider.OpInstall {
		t.Errorf("expected operation install, got %s", entry.Operation)
	}
	if entry.RecordID != "org.gnome.Maps" {
		t.Errorf("expected record id org.gnome.Maps, got %q", entry.RecordID)
	}
	if entry.Source != "flathub:stable" {
		t.Errorf("expected source flathub:stable, got %q", entry.Source)
	}
	if entry.Success {
		t.Error("new entry should have Success = false")
	}
	if entry.Timestamp.IsZero() {
		t.Error("entry timestamp should be set")
	}
}

func TestNewEntryIDsAreUnique(t *testing.T) {
	a := NewEntry(provider.OpUpdateAll, "flatpak", nil)
	b := NewEntry(provider.OpUpdateAll, "flatpak", nil)
	if a.ID == b.ID {
		t.Errorf("expected distinct ids, got %s twice", a.ID)
	}
}

func TestEntryFinish(t *testing.T) {
	entry := NewEntry(provider.OpUninstall, "appimage", nil)
	entry.Finish(nil)
	if !entry.Success || entry.Error != "" {
		t.Errorf("Finish(nil) = %v %q, want success", entry.Success, entry.Error)
	}

	entry = NewEntry(provider.OpUninstall, "appimage", nil)
	entry.Finish(errors.New("permission denied"))
	if entry.Success {
		t.Error("Finish(err) should mark the entry failed")
	}
	if entry.Error != "permission denied" {
		t.Errorf("expected error message, got %q", entry.Error)
	}
}

func TestEntrySummary(t *testing.T) {
	r := provider.NewRecord("flatpak", "org.gnome.Maps", "Maps", "", provider.StatusInstalled, extra{})

	entry := NewEntry(provider.OpUpdate, "flatpak", r)
	entry.Finish(nil)
	summary := entry.Summary()
	for _, want := range []string{"update", "org.gnome.Maps@flathub:stable", "[flatpak]", "(success)"} {
		if !strings.Contains(summary, want) {
			t.Errorf("Summary() = %q, want it to contain %q", summary, want)
		}
	}

	bulk := NewEntry(provider.OpUpdateAll, "flatpak", nil)
	bulk.Finish(errors.New("x"))
	if !strings.Contains(bulk.Summary(), "update-all [flatpak] (failed)") {
		t.Errorf("unexpected bulk summary %q", bulk.Summary())
	}
}
