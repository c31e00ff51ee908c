package provider

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateCacheStartsDirty(t *testing.T) {
	c := NewUpdateCache(func(context.Context) ([]UpdateCandidate, error) { return nil, nil })
	assert.True(t, c.NeedsRefresh())
}

func TestUpdateCacheReusesScan(t *testing.T) {
	c := NewUpdateCache(func(context.Context) ([]UpdateCandidate, error) {
		return []UpdateCandidate{{ID: "org.gnome.Maps", TargetVersion: "46"}}, nil
	})
	ctx := context.Background()

	first, err := c.Contains(ctx, "org.gnome.Maps")
	require.NoError(t, err)
	second, err := c.Contains(ctx, "org.gnome.Maps")
	require.NoError(t, err)

	assert.True(t, first)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), c.Scans())
	assert.False(t, c.NeedsRefresh())

	missing, err := c.Contains(ctx, "org.gnome.Weather")
	require.NoError(t, err)
	assert.False(t, missing)
	assert.Equal(t, int64(1), c.Scans())
}

func TestUpdateCacheInvalidate(t *testing.T) {
	var updates atomic.Value
	updates.Store([]UpdateCandidate{{ID: "a"}})
	c := NewUpdateCache(func(context.Context) ([]UpdateCandidate, error) {
		return updates.Load().([]UpdateCandidate), nil
	})
	ctx := context.Background()

	list, err := c.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	updates.Store([]UpdateCandidate{})
	c.Invalidate()
	assert.True(t, c.NeedsRefresh())

	list, err = c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, int64(2), c.Scans())
	assert.False(t, c.NeedsRefresh())
}

func TestUpdateCacheRefreshWhenCleanIsNoop(t *testing.T) {
	c := NewUpdateCache(func(context.Context) ([]UpdateCandidate, error) { return nil, nil })
	ctx := context.Background()

	require.NoError(t, c.Refresh(ctx))
	require.NoError(t, c.Refresh(ctx))
	assert.Equal(t, int64(1), c.Scans())
}

func TestUpdateCacheScanErrorKeepsDirty(t *testing.T) {
	boom := errors.New("flatpak exited 1")
	c := NewUpdateCache(func(context.Context) ([]UpdateCandidate, error) { return nil, boom })

	_, err := c.List(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.True(t, c.NeedsRefresh())
}

func TestUpdateCacheInvalidationBeatsInflightRefresh(t *testing.T) {
	var (
		calls   atomic.Int32
		started = make(chan struct{})
		release = make(chan struct{})
	)
	var c *UpdateCache
	c = NewUpdateCache(func(context.Context) ([]UpdateCandidate, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
			return []UpdateCandidate{{ID: "stale"}}, nil
		}
		return []UpdateCandidate{{ID: "fresh"}}, nil
	})

	var (
		wg     sync.WaitGroup
		result []UpdateCandidate
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		result, _ = c.List(context.Background())
	}()

	<-started
	c.Invalidate()
	close(release)
	wg.Wait()

	require.Len(t, result, 1)
	assert.Equal(t, "fresh", result[0].ID)
	assert.Equal(t, int32(2), calls.Load())

	ok, err := c.Contains(context.Background(), "stale")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateCacheConcurrentReadersShareScan(t *testing.T) {
	release := make(chan struct{})
	c := NewUpdateCache(func(context.Context) ([]UpdateCandidate, error) {
		<-release
		return []UpdateCandidate{{ID: "x"}}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.List(context.Background())
		}()
	}
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, c.Scans(), int64(10))
	assert.False(t, c.NeedsRefresh())
}
