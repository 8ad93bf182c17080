package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kellerblick/storefront/internal/logger"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 5, 1, 18, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(clock *fakeClock) *Cache {
	return NewCache(Options{Clock: clock.Now, GCTime: 5 * time.Minute}, logger.Discard())
}

// counter returns a fetch func yielding 1, 2, 3... and the number of calls.
func counter() (FetchFunc, *atomic.Int32) {
	var calls atomic.Int32
	return func(context.Context) (any, error) {
		return int(calls.Add(1)), nil
	}, &calls
}

func TestCache_FetchEmptyWaits(t *testing.T) {
	c := newTestCache(newFakeClock())
	fetch, calls := counter()

	snap, err := c.Fetch(context.Background(), "k", time.Minute, fetch)
	require.NoError(t, err)

	assert.Equal(t, 1, snap.Value)
	assert.Equal(t, StatusFresh, snap.Status)
	assert.True(t, snap.HasValue())
	assert.Equal(t, int32(1), calls.Load())
}

func TestCache_FreshServedWithoutFetch(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)
	fetch, calls := counter()
	ctx := context.Background()

	_, err := c.Fetch(ctx, "k", time.Minute, fetch)
	require.NoError(t, err)

	clock.Advance(time.Minute) // boundary is still fresh
	snap, err := c.Fetch(ctx, "k", time.Minute, fetch)
	require.NoError(t, err)

	assert.Equal(t, 1, snap.Value)
	assert.Equal(t, StatusFresh, snap.Status)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCache_StaleWhileRevalidate(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)
	ctx := context.Background()

	release := make(chan struct{})
	var calls atomic.Int32
	fetch := func(context.Context) (any, error) {
		n := calls.Add(1)
		if n > 1 {
			<-release
		}
		return int(n), nil
	}

	_, err := c.Fetch(ctx, "k", time.Minute, fetch)
	require.NoError(t, err)

	clock.Advance(time.Minute + time.Second)

	snap, err := c.Fetch(ctx, "k", time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Value, "stale value served immediately")
	assert.Equal(t, StatusRefetching, snap.Status)

	// A second read while the refetch runs does not start another.
	snap, err = c.Fetch(ctx, "k", time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Value)
	assert.Equal(t, StatusRefetching, snap.Status)

	close(release)
	c.Wait()

	snap, ok := c.Peek("k")
	require.True(t, ok)
	assert.Equal(t, 2, snap.Value)
	assert.Equal(t, StatusFresh, snap.Status)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCache_ConcurrentFetchesShareOneCall(t *testing.T) {
	c := newTestCache(newFakeClock())

	release := make(chan struct{})
	var calls atomic.Int32
	fetch := func(context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "wines", nil
	}

	const callers = 10
	var wg sync.WaitGroup
	results := make([]any, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := c.Fetch(context.Background(), "k", time.Minute, fetch)
			assert.NoError(t, err)
			results[i] = snap.Value
		}()
	}

	require.Eventually(t, func() bool {
		snap, _ := c.Peek("k")
		return snap.Status == StatusLoading
	}, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, "wines", r)
	}
}

func TestCache_ErrorWithoutData(t *testing.T) {
	c := newTestCache(newFakeClock())
	boom := errors.New("upstream down")

	snap, err := c.Fetch(context.Background(), "k", time.Minute, func(context.Context) (any, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, StatusError, snap.Status)
	assert.False(t, snap.HasValue())

	// The next read tries again.
	snap, err = c.Fetch(context.Background(), "k", time.Minute, func(context.Context) (any, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", snap.Value)
	assert.Nil(t, snap.Err)
}

func TestCache_ErrorKeepsLastGoodValue(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)
	ctx := context.Background()
	boom := errors.New("upstream down")

	var fail atomic.Bool
	var calls atomic.Int32
	fetch := func(context.Context) (any, error) {
		calls.Add(1)
		if fail.Load() {
			return nil, boom
		}
		return "v1", nil
	}

	_, err := c.Fetch(ctx, "k", time.Minute, fetch)
	require.NoError(t, err)

	fail.Store(true)
	clock.Advance(2 * time.Minute)
	_, err = c.Fetch(ctx, "k", time.Minute, fetch)
	require.NoError(t, err)
	c.Wait()

	snap, err := c.Fetch(ctx, "k", time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, "v1", snap.Value)
	assert.Equal(t, StatusError, snap.Status)
	assert.ErrorIs(t, snap.Err, boom)
	assert.Equal(t, int32(2), calls.Load(), "failed attempt waits a stale window before retrying")

	fail.Store(false)
	clock.Advance(2 * time.Minute)
	_, err = c.Fetch(ctx, "k", time.Minute, fetch)
	require.NoError(t, err)
	c.Wait()

	snap, _ = c.Peek("k")
	assert.Equal(t, StatusFresh, snap.Status)
	assert.Nil(t, snap.Err)
}

func TestCache_CallerCancelDoesNotAbortFetch(t *testing.T) {
	c := newTestCache(newFakeClock())

	release := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		<-release
		return "done", ctx.Err()
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := c.Fetch(ctx, "k", time.Minute, fetch)
		errCh <- err
	}()

	require.Eventually(t, func() bool {
		snap, _ := c.Peek("k")
		return snap.Status == StatusLoading
	}, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	close(release)
	require.Eventually(t, func() bool {
		snap, _ := c.Peek("k")
		return snap.Value == "done"
	}, time.Second, time.Millisecond)
}

func TestCache_Invalidate(t *testing.T) {
	c := newTestCache(newFakeClock())
	ctx := context.Background()
	fetch, calls := counter()

	for _, key := range []string{"products:a", "products:b", "facets:a"} {
		_, err := c.Fetch(ctx, key, time.Hour, fetch)
		require.NoError(t, err)
	}

	assert.Equal(t, 2, c.Invalidate("products:"))

	snap, _ := c.Peek("products:a")
	assert.Equal(t, StatusStale, snap.Status)
	snap, _ = c.Peek("facets:a")
	assert.Equal(t, StatusFresh, snap.Status)

	snap, err := c.Fetch(ctx, "products:a", time.Hour, fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Value)
	c.Wait()

	snap, _ = c.Peek("products:a")
	assert.Equal(t, 4, snap.Value)
	assert.Equal(t, StatusFresh, snap.Status)
	assert.Equal(t, int32(4), calls.Load())
}

func TestCache_Subscribe(t *testing.T) {
	c := newTestCache(newFakeClock())
	fetch, _ := counter()

	updates, unsubscribe := c.Subscribe("k")

	_, err := c.Fetch(context.Background(), "k", time.Minute, fetch)
	require.NoError(t, err)

	var statuses []Status
	for len(statuses) < 2 {
		select {
		case snap := <-updates:
			statuses = append(statuses, snap.Status)
		case <-time.After(time.Second):
			t.Fatal("missing update")
		}
	}
	assert.Equal(t, []Status{StatusLoading, StatusFresh}, statuses)

	unsubscribe()
	unsubscribe() // idempotent
	_, open := <-updates
	assert.False(t, open)
}

func TestCache_Prune(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)
	ctx := context.Background()
	fetch, _ := counter()

	_, err := c.Fetch(ctx, "old", time.Minute, fetch)
	require.NoError(t, err)
	_, err = c.Fetch(ctx, "watched", time.Minute, fetch)
	require.NoError(t, err)
	_, unsubscribe := c.Subscribe("watched")
	defer unsubscribe()

	clock.Advance(4 * time.Minute)
	_, err = c.Fetch(ctx, "recent", time.Minute, fetch)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 1, c.Prune())

	_, ok := c.Peek("old")
	assert.False(t, ok)
	_, ok = c.Peek("watched")
	assert.True(t, ok)
	_, ok = c.Peek("recent")
	assert.True(t, ok)
}

func TestCache_MutateDiscardsNilValue(t *testing.T) {
	c := newTestCache(newFakeClock())
	ctx := context.Background()

	_, err := c.Fetch(ctx, "k", time.Minute, func(context.Context) (any, error) { return "v1", nil })
	require.NoError(t, err)

	snap, err := c.Mutate(ctx, "k", func(context.Context, Snapshot) (any, error) { return nil, nil })
	require.NoError(t, err)
	assert.Equal(t, "v1", snap.Value)

	snap, err = c.Mutate(ctx, "k", func(_ context.Context, cur Snapshot) (any, error) {
		return cur.Value.(string) + "+v2", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "v1+v2", snap.Value)
}

func TestCache_InvalidateDuringFetchStoresStale(t *testing.T) {
	c := newTestCache(newFakeClock())
	ctx := context.Background()

	_, err := c.Fetch(ctx, "products:a", time.Hour, func(context.Context) (any, error) { return "v1", nil })
	require.NoError(t, err)
	c.Invalidate("products:")

	started := make(chan struct{})
	release := make(chan struct{})
	snap, err := c.Fetch(ctx, "products:a", time.Hour, func(context.Context) (any, error) {
		close(started)
		<-release
		return "read-before-reload", nil
	})
	require.NoError(t, err)
	assert.Equal(t, StatusRefetching, snap.Status)

	<-started
	assert.Equal(t, 1, c.Invalidate("products:"))
	close(release)
	c.Wait()

	snap, _ = c.Peek("products:a")
	assert.Equal(t, "read-before-reload", snap.Value)
	assert.Equal(t, StatusStale, snap.Status)

	snap, err = c.Fetch(ctx, "products:a", time.Hour, func(context.Context) (any, error) { return "v2", nil })
	require.NoError(t, err)
	c.Wait()
	snap, _ = c.Peek("products:a")
	assert.Equal(t, "v2", snap.Value)
	assert.Equal(t, StatusFresh, snap.Status)
}

func TestCache_MutateFailureKeepsValue(t *testing.T) {
	c := newTestCache(newFakeClock())
	ctx := context.Background()
	boom := errors.New("upstream down")

	_, err := c.Fetch(ctx, "k", time.Minute, func(context.Context) (any, error) { return "v1", nil })
	require.NoError(t, err)

	updates, unsubscribe := c.Subscribe("k")
	defer unsubscribe()

	snap, err := c.Mutate(ctx, "k", func(context.Context, Snapshot) (any, error) { return nil, boom })
	require.ErrorIs(t, err, boom)
	assert.Equal(t, StatusError, snap.Status)
	assert.Equal(t, "v1", snap.Value)
	assert.ErrorIs(t, snap.Err, boom)

	select {
	case got := <-updates:
		assert.Equal(t, StatusError, got.Status)
	case <-time.After(time.Second):
		t.Fatal("missing update")
	}

	snap, err = c.Mutate(ctx, "k", func(context.Context, Snapshot) (any, error) { return "v2", nil })
	require.NoError(t, err)
	assert.Equal(t, StatusFresh, snap.Status)
	assert.NoError(t, snap.Err)
}
