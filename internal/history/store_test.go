package history

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"shelf/pkg/provider"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "data", "history.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func record(t *testing.T, store *Store, op provider.Operation, backend string) *Entry {
	t.Helper()
	entry := NewEntry(op, backend, nil)
	entry.Finish(nil)
	if err := store.Record(entry); err != nil {
		t.Fatalf("Record() error: %v", err)
	}
	return entry
}

func TestRecord(t *testing.T) {
	store := setupTestStore(t)
	record(t, store, provider.OpInstall, "flatpak")

	count, err := store.Count()
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}
}

func TestList(t *testing.T) {
	store := setupTestStore(t)

	for i := 0; i < 5; i++ {
		record(t, store, provider.OpInstall, "flatpak")
	}

	entries, err := store.List(0)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(entries) != 5 {
		t.Errorf("expected 5 entries, got %d", len(entries))
	}

	limited, err := store.List(3)
	if err != nil {
		t.Fatalf("List(3) error: %v", err)
	}
	if len(limited) != 3 {
		t.Errorf("expected 3 entries with limit, got %d", len(limited))
	}

	for i := 1; i < len(entries); i++ {
		if entries[i-1].Timestamp.Before(entries[i].Timestamp) {
			t.Error("List() should return entries in reverse chronological order")
		}
	}
}

func TestSameTimestamp(t *testing.T) {
	store := setupTestStore(t)
	now := time.Now()

	for _, id := range []string{"a", "b"} {
		if err := store.Record(&Entry{ID: id, Timestamp: now, Operation: provider.OpInstall}); err != nil {
			t.Fatalf("Record() error: %v", err)
		}
	}

	count, _ := store.Count()
	if count != 2 {
		t.Errorf("entries with equal timestamps overwrote each other: count %d", count)
	}
}

func TestFilter(t *testing.T) {
	store := setupTestStore(t)
	record(t, store, provider.OpInstall, "flatpak")
	record(t, store, provider.OpInstall, "appimage")
	record(t, store, provider.OpUninstall, "flatpak")

	entries, err := store.Filter(0, func(e Entry) bool { return e.Backend == "flatpak" })
	if err != nil {
		t.Fatalf("Filter() error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 flatpak entries, got %d", len(entries))
	}
	if entries[0].Operation != provider.OpUninstall {
		t.Errorf("expected newest first, got %s", entries[0].Operation)
	}
}

func TestGet(t *testing.T) {
	store := setupTestStore(t)
	entry := record(t, store, provider.OpInstall, "flatpak")

	retrieved, err := store.Get(entry.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if retrieved.ID != entry.ID {
		t.Errorf("Get() returned wrong entry: %s != %s", retrieved.ID, entry.ID)
	}

	_, err = store.Get("nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestLast(t *testing.T) {
	store := setupTestStore(t)

	entry, err := store.Last()
	if err != nil {
		t.Fatalf("Last() on empty store error: %v", err)
	}
	if entry != nil {
		t.Error("Last() should return nil for empty store")
	}

	record(t, store, provider.OpInstall, "flatpak")
	time.Sleep(time.Millisecond)
	second := record(t, store, provider.OpUninstall, "flatpak")

	last, err := store.Last()
	if err != nil {
		t.Fatalf("Last() error: %v", err)
	}
	if last.ID != second.ID {
		t.Errorf("Last() returned wrong entry: %s != %s", last.ID, second.ID)
	}
}

func TestClear(t *testing.T) {
	store := setupTestStore(t)
	for i := 0; i < 3; i++ {
		record(t, store, provider.OpInstall, "flatpak")
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}

	count, err := store.Count()
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if count != 0 {
		t.Errorf("expected count 0 after Clear(), got %d", count)
	}
}

func TestPrune(t *testing.T) {
	store := setupTestStore(t)

	old := &Entry{
		ID:        "old-entry",
		Timestamp: time.Now().Add(-48 * time.Hour),
		Operation: provider.OpInstall,
		Backend:   "flatpak",
		Success:   true,
	}
	if err := store.Record(old); err != nil {
		t.Fatalf("Record() error: %v", err)
	}
	record(t, store, provider.OpInstall, "flatpak")

	deleted, err := store.Prune(24 * time.Hour)
	if err != nil {
		t.Fatalf("Prune() error: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted entry, got %d", deleted)
	}

	count, _ := store.Count()
	if count != 1 {
		t.Errorf("expected 1 entry after prune, got %d", count)
	}
}

func TestClose(t *testing.T) {
	store := setupTestStore(t)

	if err := store.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
}
