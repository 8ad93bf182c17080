// Package query caches catalog reads by key with per-key staleness windows,
// in-flight de-duplication and infinite pagination.
//
// A fresh entry is served without calling the gateway. A stale entry is
// served immediately while a single background refetch runs. Failed fetches
// keep the last good value and expose the error in the entry's snapshot.
package query

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kellerblick/storefront/internal/logger"
)

// Status is the lifecycle state of a cache entry.
type Status string

// Entry statuses.
const (
	StatusEmpty      Status = "empty"
	StatusLoading    Status = "loading"
	StatusFresh      Status = "fresh"
	StatusStale      Status = "stale"
	StatusRefetching Status = "refetching"
	StatusError      Status = "error"
)

const subscriberBuffer = 16

// Snapshot is a point-in-time view of a cache entry.
type Snapshot struct {
	Key       string
	Value     any // nil until the first successful fetch
	Status    Status
	FetchedAt time.Time
	Err       error
	ErrAt     time.Time
}

// HasValue reports whether the entry holds data.
func (s Snapshot) HasValue() bool {
	return !s.FetchedAt.IsZero()
}

// FetchFunc loads the value for a key. It receives a context detached from
// the caller so that one caller giving up does not fail the others.
type FetchFunc func(ctx context.Context) (any, error)

// Options configures a Cache.
type Options struct {
	// GCTime is how long an unobserved entry survives Prune (default: 5m).
	GCTime time.Duration
	// FetchTimeout bounds every fetch (default: 30s).
	FetchTimeout time.Duration
	// Clock returns the current time (default: time.Now).
	Clock func() time.Time
}

func (o *Options) setDefaults() {
	if o.GCTime == 0 {
		o.GCTime = 5 * time.Minute
	}
	if o.FetchTimeout == 0 {
		o.FetchTimeout = 30 * time.Second
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
}

type entry struct {
	key       string
	value     any
	fetchedAt time.Time
	staleTime time.Duration
	err       error
	errAt     time.Time
	lastUsed  time.Time

	inflight    bool
	invalidated bool
	invalidGen  uint64 // bumped by every Invalidate
	version     uint64 // bumped on every stored value

	nextSub int
	subs    map[int]chan Snapshot
}

func (e *entry) hasValue() bool {
	return !e.fetchedAt.IsZero()
}

func (e *entry) status(now time.Time) Status {
	switch {
	case e.inflight && e.hasValue():
		return StatusRefetching
	case e.inflight:
		return StatusLoading
	case e.err != nil:
		return StatusError
	case !e.hasValue():
		return StatusEmpty
	case e.invalidated || now.Sub(e.fetchedAt) > e.staleTime:
		return StatusStale
	default:
		return StatusFresh
	}
}

// needsRefetch reports whether a held value should be refreshed. A failed
// attempt counts as an attempt, so errors retry once per stale window.
func (e *entry) needsRefetch(now time.Time) bool {
	if e.inflight {
		return false
	}
	if e.invalidated {
		return true
	}
	last := e.fetchedAt
	if e.errAt.After(last) {
		last = e.errAt
	}
	return now.Sub(last) > e.staleTime
}

func (e *entry) snapshot(now time.Time) Snapshot {
	return Snapshot{
		Key:       e.key,
		Value:     e.value,
		Status:    e.status(now),
		FetchedAt: e.fetchedAt,
		Err:       e.err,
		ErrAt:     e.errAt,
	}
}

// Cache is a keyed, staleness-aware cache. Safe for concurrent use.
type Cache struct {
	opts   Options
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]*entry

	group singleflight.Group
	wg    sync.WaitGroup // background refetches
}

// NewCache creates an empty cache.
func NewCache(opts Options, log *slog.Logger) *Cache {
	opts.setDefaults()
	if log == nil {
		log = logger.Discard()
	}
	return &Cache{
		opts:    opts,
		logger:  log,
		entries: make(map[string]*entry),
	}
}

// Fetch returns the entry for key, calling fetch when there is nothing to serve.
//
// Fresh values are returned as is. Stale values are returned immediately and a
// background refetch is started unless one is already running. Without a value
// the caller waits for the shared fetch; an error is returned only in that case.
func (c *Cache) Fetch(ctx context.Context, key string, staleTime time.Duration, fetch FetchFunc) (Snapshot, error) {
	c.mu.Lock()
	e := c.entryLocked(key)
	now := c.opts.Clock()
	e.staleTime = staleTime
	e.lastUsed = now

	if e.hasValue() {
		if e.needsRefetch(now) {
			c.beginLocked(e)
			snap := e.snapshot(now)
			c.mu.Unlock()

			c.publish(key)
			c.wg.Add(1)
			go func() {
				defer c.wg.Done()
				_, _, _ = c.group.Do(key, func() (any, error) { return c.run(key, fetch) })
			}()
			return snap, nil
		}
		snap := e.snapshot(now)
		c.mu.Unlock()
		return snap, nil
	}

	started := !e.inflight
	if started {
		c.beginLocked(e)
	}
	c.mu.Unlock()
	if started {
		c.publish(key)
	}

	ch := c.group.DoChan(key, func() (any, error) { return c.run(key, fetch) })
	select {
	case res := <-ch:
		snap, _ := c.Peek(key)
		if res.Err != nil {
			return snap, res.Err
		}
		return snap, nil
	case <-ctx.Done():
		snap, _ := c.Peek(key)
		return snap, ctx.Err()
	}
}

// Mutate replaces the value of key with the result of fn applied to the current
// snapshot. Concurrent calls for the same key share one execution. A nil value
// from fn leaves the entry untouched, as does a rewrite of the entry while fn ran.
// A failure moves the entry to StatusError and keeps its value.
func (c *Cache) Mutate(ctx context.Context, key string, fn func(ctx context.Context, current Snapshot) (any, error)) (Snapshot, error) {
	c.mu.Lock()
	e := c.entryLocked(key)
	e.lastUsed = c.opts.Clock()
	c.mu.Unlock()

	ch := c.group.DoChan("mutate:"+key, func() (any, error) {
		c.mu.Lock()
		e := c.entryLocked(key)
		current := e.snapshot(c.opts.Clock())
		version := e.version
		gen := e.invalidGen
		c.mu.Unlock()

		fctx, cancel := context.WithTimeout(context.Background(), c.opts.FetchTimeout)
		defer cancel()

		value, err := fn(fctx, current)
		if err != nil {
			c.mu.Lock()
			e = c.entryLocked(key)
			if e.version == version {
				e.err = err
				e.errAt = c.opts.Clock()
			}
			c.mu.Unlock()
			c.publish(key)

			c.logger.Warn("cache mutation failed", "key", key, "error", err)
			return nil, err
		}

		if value == nil {
			return nil, nil
		}

		c.mu.Lock()
		e = c.entryLocked(key)
		if e.version == version {
			stale := e.invalidated || e.invalidGen != gen
			c.storeLocked(e, value)
			e.invalidated = stale
		}
		c.mu.Unlock()
		c.publish(key)
		return nil, nil
	})

	select {
	case res := <-ch:
		snap, _ := c.Peek(key)
		return snap, res.Err
	case <-ctx.Done():
		snap, _ := c.Peek(key)
		return snap, ctx.Err()
	}
}

// Peek returns the entry for key without fetching.
func (c *Cache) Peek(key string) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Snapshot{Key: key, Status: StatusEmpty}, false
	}
	return e.snapshot(c.opts.Clock()), true
}

// Invalidate marks every entry whose key starts with prefix as stale. The next
// Fetch serves the old value and refetches. A fetch already running when
// Invalidate is called stores its result as stale. It returns the number of
// entries with a value that were marked.
func (c *Cache) Invalidate(prefix string) int {
	c.mu.Lock()
	var keys []string
	for key, e := range c.entries {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		e.invalidGen++
		if !e.hasValue() {
			continue
		}
		e.invalidated = true
		keys = append(keys, key)
	}
	c.mu.Unlock()

	for _, key := range keys {
		c.publish(key)
	}
	if len(keys) > 0 {
		c.logger.Debug("cache invalidated", "prefix", prefix, "entries", len(keys))
	}
	return len(keys)
}

// Subscribe returns a channel receiving a snapshot of key on every change and a
// func that ends the subscription. Unsubscribing never cancels a running fetch.
func (c *Cache) Subscribe(key string) (<-chan Snapshot, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entryLocked(key)
	if e.subs == nil {
		e.subs = make(map[int]chan Snapshot)
	}
	id := e.nextSub
	e.nextSub++
	ch := make(chan Snapshot, subscriberBuffer)
	e.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if e, ok := c.entries[key]; ok {
				delete(e.subs, id)
				e.lastUsed = c.opts.Clock()
			}
			close(ch)
		})
	}
}

// Prune drops entries that have no subscribers, no fetch in flight and have not
// been used for GCTime. It returns the number of entries dropped.
func (c *Cache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.opts.Clock()
	removed := 0
	for key, e := range c.entries {
		if len(e.subs) > 0 || e.inflight || now.Sub(e.lastUsed) <= c.opts.GCTime {
			continue
		}
		delete(c.entries, key)
		removed++
	}
	return removed
}

// StartJanitor runs Prune every interval until ctx is done.
func (c *Cache) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := c.Prune(); n > 0 {
					c.logger.Debug("pruned cache entries", "count", n)
				}
			}
		}
	}()
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Wait blocks until background refetches have finished.
func (c *Cache) Wait() {
	c.wg.Wait()
}

func (c *Cache) entryLocked(key string) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{key: key, lastUsed: c.opts.Clock()}
		c.entries[key] = e
	}
	return e
}

func (c *Cache) beginLocked(e *entry) {
	e.inflight = true
	e.invalidated = false
}

func (c *Cache) storeLocked(e *entry, value any) {
	e.value = value
	e.fetchedAt = c.opts.Clock()
	e.err = nil
	e.errAt = time.Time{}
	e.invalidated = false
	e.version++
}

// run executes fetch on a detached context and records the outcome.
func (c *Cache) run(key string, fetch FetchFunc) (any, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.FetchTimeout)
	defer cancel()

	c.mu.Lock()
	e := c.entryLocked(key)
	e.inflight = true
	gen := e.invalidGen
	c.mu.Unlock()

	start := c.opts.Clock()
	value, err := fetch(ctx)

	c.mu.Lock()
	e = c.entryLocked(key)
	e.inflight = false
	if err != nil {
		e.err = err
		e.errAt = c.opts.Clock()
	} else {
		c.storeLocked(e, value)
		// The value may predate an invalidation that arrived mid-fetch.
		e.invalidated = e.invalidGen != gen
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("cache fetch failed", "key", key, "error", err)
	} else {
		c.logger.Debug("cache fetch complete", "key", key, "duration", c.opts.Clock().Sub(start))
	}

	c.publish(key)
	return value, err
}

func (c *Cache) publish(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || len(e.subs) == 0 {
		return
	}
	snap := e.snapshot(c.opts.Clock())
	for _, ch := range e.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}
