package provider

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// maxRefreshAttempts bounds how often a refresh restarts after being invalidated.
const maxRefreshAttempts = 3

// ScanFunc performs the expensive "what can be updated" query.
type ScanFunc func(ctx context.Context) ([]UpdateCandidate, error)

// UpdateCache memoizes a backend's update scan until it is invalidated.
//
// The cache starts dirty and is marked clean only by a successful scan that was not
// overtaken by an Invalidate call. Concurrent refreshes of the same epoch share a
// single scan.
type UpdateCache struct {
	scan  ScanFunc
	group singleflight.Group
	scans atomic.Int64

	mu       sync.Mutex
	snapshot []UpdateCandidate
	byID     map[string]UpdateCandidate
	dirty    bool
	epoch    uint64
}

// NewUpdateCache creates a dirty cache around scan.
func NewUpdateCache(scan ScanFunc) *UpdateCache {
	return &UpdateCache{
		scan:  scan,
		dirty: true,
	}
}

// NeedsRefresh reports whether the cache must be refreshed before it is trusted.
func (c *UpdateCache) NeedsRefresh() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

// Invalidate marks the cache dirty. A refresh already in flight will not store its result.
func (c *UpdateCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dirty = true
	c.epoch++
}

// Scans returns how many scans have been executed.
func (c *UpdateCache) Scans() int64 {
	return c.scans.Load()
}

// Refresh scans when the cache is dirty and is a no-op otherwise.
func (c *UpdateCache) Refresh(ctx context.Context) error {
	_, err := c.List(ctx)
	return err
}

// List returns the cached candidates, scanning first when dirty.
func (c *UpdateCache) List(ctx context.Context) ([]UpdateCandidate, error) {
	var last []UpdateCandidate

	for attempt := 0; attempt < maxRefreshAttempts; attempt++ {
		c.mu.Lock()
		if !c.dirty {
			out := cloneCandidates(c.snapshot)
			c.mu.Unlock()
			return out, nil
		}
		epoch := c.epoch
		c.mu.Unlock()

		v, err, _ := c.group.Do(strconv.FormatUint(epoch, 10), func() (interface{}, error) {
			c.scans.Add(1)
			return c.scan(ctx)
		})
		if err != nil {
			return nil, err
		}
		last = v.([]UpdateCandidate)

		c.mu.Lock()
		if c.epoch == epoch {
			c.store(last)
			out := cloneCandidates(c.snapshot)
			c.mu.Unlock()
			return out, nil
		}
		c.mu.Unlock()
	}

	// Invalidated on every attempt: hand back the newest scan but stay dirty.
	return cloneCandidates(last), nil
}

// Contains reports whether id has an update, refreshing first when dirty.
func (c *UpdateCache) Contains(ctx context.Context, id string) (bool, error) {
	list, err := c.List(ctx)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		_, ok := c.byID[id]
		return ok, nil
	}
	for _, u := range list {
		if u.ID == id {
			return true, nil
		}
	}
	return false, nil
}

// store must be called with c.mu held.
func (c *UpdateCache) store(list []UpdateCandidate) {
	c.snapshot = cloneCandidates(list)
	c.byID = make(map[string]UpdateCandidate, len(list))
	for _, u := range list {
		c.byID[u.ID] = u
	}
	c.dirty = false
}

func cloneCandidates(in []UpdateCandidate) []UpdateCandidate {
	if in == nil {
		return nil
	}
	out := make([]UpdateCandidate, len(in))
	copy(out, in)
	return out
}
