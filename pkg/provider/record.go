package provider

import (
	"fmt"
	"sync"
)

// Record is one installable unit from one source. Identity fields are set by the
// backend that created it; the status is only changed through the methods below.
type Record struct {
	Name        string
	Description string
	ID          string
	Backend     string
	Size        *uint64
	Extra       Extra

	mu     sync.Mutex
	status Status
	gen    uint64
}

// NewRecord creates a record owned by backend with the given initial status.
func NewRecord(backend, id, name, description string, status Status, extra Extra) *Record {
	return &Record{
		Name:        name,
		Description: description,
		ID:          id,
		Backend:     backend,
		Extra:       extra,
		status:      status,
	}
}

// Source returns the record's source, or an empty Source without extra data.
func (r *Record) Source() Source {
	if r.Extra == nil {
		return Source{}
	}
	return r.Extra.Source()
}

// Version returns the version reported by the backend, if any.
func (r *Record) Version() string {
	if r.Extra == nil {
		return ""
	}
	return r.Extra.Version()
}

// Key uniquely identifies the record across backends and sources.
func (r *Record) Key() string {
	return r.Backend + "/" + r.ID + "@" + r.Source().ID()
}

// Status returns the current status.
func (r *Record) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Generation returns a counter bumped whenever an operation starts or finishes.
// Probes capture it before querying the backend and pass it to ApplyProbe.
func (r *Record) Generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen
}

// Begin moves the record into the transient status of op.
// It returns the previous status, or ErrBusy when another operation is running.
func (r *Record) Begin(op Operation) (Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.status
	if prev.Busy() {
		return prev, fmt.Errorf("%w: %s is %s", ErrBusy, r.ID, prev)
	}

	next := op.Pending()
	if !CanTransition(prev, next) {
		return prev, fmt.Errorf("%w: cannot %s %s while %s", ErrInvalidTransition, op, r.ID, prev)
	}

	r.status = next
	r.gen++
	return prev, nil
}

// Finish resolves op. A failed operation always ends in StatusError.
func (r *Record) Finish(op Operation, success bool) (from, to Status) {
	r.mu.Lock()
	defer r.mu.Unlock()

	from = r.status
	to = StatusError
	if success {
		to = op.Done()
	}
	r.status = to
	r.gen++
	return from, to
}

// ApplyProbe stores the result of a status re-check. The result is dropped when an
// operation started or finished since gen was read, or while one is running.
func (r *Record) ApplyProbe(gen uint64, status Status) (from Status, applied bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	from = r.status
	if r.gen != gen || from.Busy() {
		return from, false
	}
	if from != status && !CanTransition(from, status) {
		return from, false
	}
	r.status = status
	return from, true
}

// View returns an immutable snapshot for presentation.
func (r *Record) View() RecordView {
	r.mu.Lock()
	status := r.status
	r.mu.Unlock()

	v := RecordView{
		Key:         r.Key(),
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Backend:     r.Backend,
		Status:      status,
		Version:     r.Version(),
		Source:      r.Source(),
	}
	if r.Size != nil {
		v.Size = *r.Size
	}
	return v
}

// RecordView is a read-only copy of a Record.
type RecordView struct {
	Key         string
	ID          string
	Name        string
	Description string
	Backend     string
	Status      Status
	Version     string
	Source      Source
	Size        uint64
}

// UpdateCandidate is one entry of a backend's "what can be updated" scan.
type UpdateCandidate struct {
	ID            string
	TargetVersion string
	Size          string
	Origin        string
	Branch        string

	// Record is set once the candidate is joined against the installed records.
	Record *Record
}
