// Package coordinator runs package operations on background workers and owns every
// status change of the records it hands out.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"shelf/internal/history"
	"shelf/pkg/provider"
)

// ErrPanic wraps a panic recovered from a backend call.
var ErrPanic = errors.New("backend panicked")

// Recorder persists finished operations.
type Recorder interface {
	Record(entry *history.Entry) error
}

// Options configures a Coordinator.
type Options struct {
	// MaxWorkers bounds concurrent backend calls. Defaults to 4.
	MaxWorkers int
	// OperationTimeout bounds each status-changing call. Zero disables it.
	OperationTimeout time.Duration
	// Recorder receives an entry per finished operation. May be nil.
	Recorder Recorder
	Logger   zerolog.Logger
}

// Coordinator is safe for concurrent use.
type Coordinator struct {
	reg     *provider.Registry
	sem     *semaphore.Weighted
	workers int
	timeout time.Duration
	rec     Recorder
	log     zerolog.Logger

	wg sync.WaitGroup

	mu      sync.RWMutex
	tracked map[string]*provider.Record
	order   []string

	subsMu  sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

// New creates a Coordinator over the backends of reg.
func New(reg *provider.Registry, opts Options) *Coordinator {
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 4
	}
	return &Coordinator{
		reg:     reg,
		sem:     semaphore.NewWeighted(int64(opts.MaxWorkers)),
		workers: opts.MaxWorkers,
		timeout: opts.OperationTimeout,
		rec:     opts.Recorder,
		log:     opts.Logger.With().Str("component", "coordinator").Logger(),
		tracked: make(map[string]*provider.Record),
		subs:    make(map[int]chan Event),
	}
}

// Registry returns the registry the coordinator dispatches to.
func (c *Coordinator) Registry() *provider.Registry { return c.reg }

// Wait blocks until every started operation has delivered its result.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Track registers records for Snapshot and Filter and returns the canonical record
// for each key. A record already tracked under the same key is kept and receives the
// new record's status as a probe result.
func (c *Coordinator) Track(records ...*provider.Record) []*provider.Record {
	return c.track(records, true)
}

func (c *Coordinator) track(records []*provider.Record, probe bool) []*provider.Record {
	out := make([]*provider.Record, len(records))
	var probes []*provider.Record

	c.mu.Lock()
	for i, r := range records {
		k := r.Key()
		existing, ok := c.tracked[k]
		if !ok {
			c.tracked[k] = r
			c.order = append(c.order, k)
			out[i] = r
			continue
		}
		out[i] = existing
		if probe && existing != r {
			probes = append(probes, existing, r)
		}
	}
	c.mu.Unlock()

	for i := 0; i < len(probes); i += 2 {
		existing, fresh := probes[i], probes[i+1]
		c.applyProbe(existing, existing.Generation(), fresh.Status())
	}
	return out
}

// Lookup returns the tracked record with the given key.
func (c *Coordinator) Lookup(key string) (*provider.Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.tracked[key]
	return r, ok
}

// Snapshot returns read-only views of all tracked records in tracking order.
func (c *Coordinator) Snapshot() []provider.RecordView {
	records := c.trackedRecords("")
	out := make([]provider.RecordView, len(records))
	for i, r := range records {
		out[i] = r.View()
	}
	return out
}

// trackedRecords returns the tracked records, optionally restricted to one backend.
func (c *Coordinator) trackedRecords(backend string) []*provider.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*provider.Record, 0, len(c.order))
	for _, k := range c.order {
		r := c.tracked[k]
		if backend == "" || r.Backend == backend {
			out = append(out, r)
		}
	}
	return out
}

// call runs fn on a worker slot and converts panics into errors.
func (c *Coordinator) call(ctx context.Context, name string, fn func(context.Context) error) (err error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.sem.Release(1)

	defer func() {
		if p := recover(); p != nil {
			c.log.Error().Str("call", name).Interface("panic", p).Bytes("stack", debug.Stack()).Msg("recovered")
			err = fmt.Errorf("%w: %s: %v", ErrPanic, name, p)
		}
	}()
	return fn(ctx)
}

// operationContext detaches ctx from the caller's cancellation and applies the
// configured timeout.
func (c *Coordinator) operationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

func (c *Coordinator) record(entry *history.Entry) {
	if c.rec == nil {
		return
	}
	if err := c.rec.Record(entry); err != nil {
		c.log.Warn().Err(err).Msg("history not recorded")
	}
}

// applyProbe stores a probe result and publishes the change.
func (c *Coordinator) applyProbe(r *provider.Record, gen uint64, status provider.Status) {
	from, applied := r.ApplyProbe(gen, status)
	if !applied {
		if from != status {
			c.log.Debug().Str("record", r.Key()).Stringer("status", status).Msg("stale probe dropped")
		}
		return
	}
	if from != status {
		c.publishStatus(r, from, status)
	}
}
