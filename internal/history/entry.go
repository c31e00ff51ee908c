// Package history records finished package operations in a bbolt database.
package history

import (
	"time"

	"github.com/google/uuid"

	"shelf/pkg/provider"
)

// Entry is one finished operation.
type Entry struct {
	ID        string             `json:"id"`
	Timestamp time.Time          `json:"timestamp"`
	Operation provider.Operation `json:"operation"`
	Backend   string             `json:"backend"`
	RecordID  string             `json:"record_id,omitempty"`
	Name      string             `json:"name,omitempty"`
	Source    string             `json:"source,omitempty"`
	Success   bool               `json:"success"`
	Error     string             `json:"error,omitempty"`
	Duration  time.Duration      `json:"duration"`
}

// NewEntry creates an entry for an operation on r. r is nil for bulk operations.
func NewEntry(op provider.Operation, backend string, r *provider.Record) *Entry {
	e := &Entry{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Operation: op,
		Backend:   backend,
	}
	if r != nil {
		e.RecordID = r.ID
		e.Name = r.Name
		e.Source = r.Source().ID()
	}
	return e
}

// Finish stores the outcome and the time elapsed since the entry was created.
func (e *Entry) Finish(err error) {
	e.Duration = time.Since(e.Timestamp)
	e.Success = err == nil
	if err != nil {
		e.Error = err.Error()
	}
}

// FormatTime returns a human-readable timestamp.
func (e *Entry) FormatTime() string {
	return e.Timestamp.Format("2006-01-02 15:04:05")
}

// Summary returns a one-line description of the entry.
func (e *Entry) Summary() string {
	status := "success"
	if !e.Success {
		status = "failed"
	}

	if e.RecordID == "" {
		return e.FormatTime() + " " + string(e.Operation) + " [" + e.Backend + "] (" + status + ")"
	}

	target := e.RecordID
	if e.Source != "" {
		target += "@" + e.Source
	}
	return e.FormatTime() + " " + string(e.Operation) + " " + target + " [" + e.Backend + "] (" + status + ")"
}
