package coordinator

import (
	"context"
	"fmt"

	"shelf/internal/history"
	"shelf/pkg/provider"
)

// Result is the outcome of one operation. It is delivered exactly once.
type Result struct {
	OpID    string
	Op      provider.Operation
	Record  *provider.Record
	View    provider.RecordView
	Success bool
	Err     error
}

// Completion is called with the Result after it was sent on the result channel.
type Completion func(Result)

// Install installs r from its source.
func (c *Coordinator) Install(ctx context.Context, r *provider.Record, done Completion) (<-chan Result, error) {
	return c.start(ctx, provider.OpInstall, r, done)
}

// InstallFile installs a record created from a local file.
func (c *Coordinator) InstallFile(ctx context.Context, r *provider.Record, done Completion) (<-chan Result, error) {
	return c.start(ctx, provider.OpInstallFile, r, done)
}

// Uninstall removes r.
func (c *Coordinator) Uninstall(ctx context.Context, r *provider.Record, done Completion) (<-chan Result, error) {
	return c.start(ctx, provider.OpUninstall, r, done)
}

// Update updates r.
func (c *Coordinator) Update(ctx context.Context, r *provider.Record, done Completion) (<-chan Result, error) {
	return c.start(ctx, provider.OpUpdate, r, done)
}

// start validates the request, moves the tracked record for r's key into the
// transient status and hands the backend call to a worker. Contract violations
// and busy records are reported synchronously and never reach a worker.
func (c *Coordinator) start(ctx context.Context, op provider.Operation, r *provider.Record, done Completion) (<-chan Result, error) {
	b, err := c.reg.For(r)
	if err != nil {
		return nil, err
	}
	if err := b.Validate(r); err != nil {
		return nil, err
	}
	r = c.track([]*provider.Record{r}, false)[0]

	from, err := r.Begin(op)
	if err != nil {
		c.log.Debug().Err(err).Str("record", r.Key()).Msg("operation rejected")
		return nil, err
	}
	c.publishStatus(r, from, op.Pending())

	out := make(chan Result, 1)
	entry := history.NewEntry(op, r.Backend, r)
	c.log.Info().Str("op", string(op)).Str("id", entry.ID).Str("record", r.Key()).Msg("started")

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.finish(out, done, entry, op, r, c.execute(ctx, op, b, r))
	}()
	return out, nil
}

func (c *Coordinator) execute(ctx context.Context, op provider.Operation, b provider.Backend, r *provider.Record) error {
	ctx, cancel := c.operationContext(ctx)
	defer cancel()
	defer b.InvalidateUpdates()

	return c.call(ctx, string(op)+" "+r.Key(), func(ctx context.Context) error {
		switch op {
		case provider.OpInstall:
			return b.Install(ctx, r)
		case provider.OpInstallFile:
			return b.InstallFile(ctx, r)
		case provider.OpUninstall:
			return b.Uninstall(ctx, r)
		case provider.OpUpdate:
			return b.Update(ctx, r)
		}
		return fmt.Errorf("%w: unknown operation %q", provider.ErrContract, op)
	})
}

// finish resolves the record's status before the result is delivered.
func (c *Coordinator) finish(out chan<- Result, done Completion, entry *history.Entry, op provider.Operation, r *provider.Record, err error) {
	from, to := r.Finish(op, err == nil)
	c.publishStatus(r, from, to)

	entry.Finish(err)
	c.record(entry)

	res := Result{OpID: entry.ID, Op: op, Record: r, View: r.View(), Success: err == nil, Err: err}
	if err != nil {
		c.log.Error().Err(err).Str("op", string(op)).Str("record", r.Key()).Msg("failed")
	} else {
		c.log.Info().Str("op", string(op)).Str("record", r.Key()).Msg("finished")
	}

	out <- res
	close(out)
	if done != nil {
		c.callback(func() { done(res) })
	}
	c.publish(Event{Kind: EventOperationFinished, Record: res.View, From: from, To: to, Result: res})
}

// callback shields the worker from panicking completions.
func (c *Coordinator) callback(fn func()) {
	defer func() {
		if p := recover(); p != nil {
			c.log.Error().Interface("panic", p).Msg("completion panicked")
		}
	}()
	fn()
}

// Run launches an installed record.
func (c *Coordinator) Run(ctx context.Context, r *provider.Record) error {
	b, err := c.reg.For(r)
	if err != nil {
		return err
	}
	if !r.Status().IsInstalled() {
		return fmt.Errorf("%s is %s", r.ID, r.Status())
	}
	return c.call(ctx, "run "+r.Key(), func(ctx context.Context) error {
		return b.Run(ctx, r)
	})
}

// RecordFromFile creates a record for a local package file using the first backend
// that can import it.
func (c *Coordinator) RecordFromFile(ctx context.Context, path string) (*provider.Record, error) {
	b, ok := c.reg.FileImporter(path)
	if !ok {
		return nil, fmt.Errorf("%w: no backend can import %s", provider.ErrUnsupported, path)
	}

	var r *provider.Record
	err := c.call(ctx, "import "+path, func(ctx context.Context) error {
		var err error
		r, err = b.RecordFromFile(ctx, path)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.Track(r)[0], nil
}
