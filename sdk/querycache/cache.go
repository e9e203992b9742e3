// Package querycache is a keyed cache of remote query results with stale-time
// freshness, deduplicated fetches, cancellation and invalidation, plus
// optimistic transactions for mutations against cached data.
package querycache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrQueryCancelled is returned to a waiting caller whose fetch was
	// cancelled before any data was cached for the key.
	ErrQueryCancelled = errors.New("query cancelled")

	// ErrClosed is returned once the cache has been closed.
	ErrClosed = errors.New("query cache closed")
)

// Fetcher loads the value for a key from the remote source.
type Fetcher func(ctx context.Context) (any, error)

type entry struct {
	key       Key
	data      any
	hasData   bool
	stale     bool
	updatedAt time.Time
	fetcher   Fetcher

	// generation increments on every cancellation; a fetch whose generation
	// no longer matches has its result discarded.
	generation uint64
	cancel     context.CancelFunc

	// txn holds one token while a transaction is open on the key.
	txn chan struct{}
}

// Cache holds the query results of one client session.
type Cache struct {
	opts *options

	mu      sync.Mutex
	entries map[string]*entry
	group   singleflight.Group

	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

// New constructs an empty cache.
func New(opts ...Option) *Cache {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Cache{
		opts:    o,
		entries: make(map[string]*entry),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Close cancels every in-flight fetch. Later calls to Fetch return ErrClosed.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.cancel()
	for _, e := range c.entries {
		e.generation++
		e.cancel = nil
	}
}

// entryLocked returns the entry for key, creating it. c.mu must be held.
func (c *Cache) entryLocked(key Key) *entry {
	h := key.hash()
	e, ok := c.entries[h]
	if !ok {
		e = &entry{
			key: append(Key(nil), key...),
			txn: make(chan struct{}, 1),
		}
		c.entries[h] = e
	}
	return e
}

func (c *Cache) fresh(e *entry) bool {
	return e.hasData && !e.stale && c.opts.now().Sub(e.updatedAt) < c.opts.staleTime
}

// Fetch returns the cached value for key while it is fresh, otherwise it runs
// fetcher, caches the result and returns it. Concurrent callers for the same
// key share one fetch. fetcher is remembered for later invalidation.
func (c *Cache) Fetch(ctx context.Context, key Key, fetcher Fetcher) (any, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	e := c.entryLocked(key)
	e.fetcher = fetcher
	// While a transaction is open the optimistic value is served as is.
	if c.fresh(e) || (e.hasData && len(e.txn) > 0) {
		data := e.data
		c.mu.Unlock()
		return data, nil
	}
	c.mu.Unlock()

	return c.wait(ctx, e)
}

// wait joins or starts the fetch for the entry's current generation.
func (c *Cache) wait(ctx context.Context, e *entry) (any, error) {
	c.mu.Lock()
	gen := e.generation
	fetcher := e.fetcher
	c.mu.Unlock()

	if fetcher == nil {
		return nil, fmt.Errorf("no fetcher registered for %s", e.key)
	}

	sfKey := fmt.Sprintf("%s#%d", e.key.hash(), gen)
	ch := c.group.DoChan(sfKey, func() (any, error) {
		return c.run(e, gen, fetcher)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if errors.Is(res.Err, ErrQueryCancelled) {
			c.mu.Lock()
			defer c.mu.Unlock()
			if e.hasData {
				return e.data, nil
			}
		}
		return res.Val, res.Err
	}
}

// run performs one fetch and stores its result unless the generation moved.
func (c *Cache) run(e *entry, gen uint64, fetcher Fetcher) (any, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if e.generation != gen {
		c.mu.Unlock()
		return nil, ErrQueryCancelled
	}
	fctx, cancel := context.WithCancel(c.ctx)
	e.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	var data any
	op := func() error {
		v, err := fetcher(fctx)
		if err != nil {
			if fctx.Err() != nil || (c.opts.retryable != nil && !c.opts.retryable(err)) {
				return backoff.Permanent(err)
			}
			return err
		}
		data = v
		return nil
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.opts.retryInterval), uint64(max(c.opts.readRetries, 0))),
		fctx,
	)
	notify := func(err error, next time.Duration) {
		c.opts.log.DebugContext(fctx, "query fetch failed, retrying", "key", e.key.String(), "err", err, "in", next)
	}
	err := backoff.RetryNotify(op, b, notify)

	c.mu.Lock()
	defer c.mu.Unlock()

	if e.generation != gen || fctx.Err() != nil {
		c.opts.log.DebugContext(c.ctx, "discarding cancelled query result", "key", e.key.String())
		return nil, ErrQueryCancelled
	}
	e.cancel = nil
	if err != nil {
		return nil, err
	}

	e.data = data
	e.hasData = true
	e.stale = false
	e.updatedAt = c.opts.now()
	return data, nil
}

// CancelQueries cancels in-flight fetches for every key under prefix. Their
// results are discarded and the cached values stay as they are.
func (c *Cache) CancelQueries(prefix Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries {
		if e.key.HasPrefix(prefix) {
			c.cancelLocked(e)
		}
	}
}

func (c *Cache) cancelLocked(e *entry) {
	e.generation++
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

// InvalidateQueries marks every key under prefix stale and refetches each one
// that has a fetcher, cancelling fetches already in flight. Keys with an open
// transaction are only marked stale. It returns once the refetches have
// settled.
func (c *Cache) InvalidateQueries(ctx context.Context, prefix Key) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	var refetch []*entry
	for _, e := range c.entries {
		if !e.key.HasPrefix(prefix) {
			continue
		}
		e.stale = true
		// An open transaction owns the value; its Settle refetches.
		if e.fetcher != nil && len(e.txn) == 0 {
			c.cancelLocked(e)
			refetch = append(refetch, e)
		}
	}
	c.mu.Unlock()

	var errs []error
	for _, e := range refetch {
		if _, err := c.wait(ctx, e); err != nil {
			errs = append(errs, fmt.Errorf("refetch %s: %w", e.key, err))
		}
	}
	return errors.Join(errs...)
}

// GetQueryData returns the cached value for key, fresh or not.
func (c *Cache) GetQueryData(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key.hash()]
	if !ok || !e.hasData {
		return nil, false
	}
	return e.data, true
}

// SetQueryData replaces the cached value for key.
func (c *Cache) SetQueryData(key Key, data any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entryLocked(key)
	e.data = data
	e.hasData = true
	e.stale = false
	e.updatedAt = c.opts.now()
}

// RemoveQueryData drops the cached value for key but keeps its fetcher.
func (c *Cache) RemoveQueryData(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key.hash()]; ok {
		e.data = nil
		e.hasData = false
	}
}

// RemoveQuery forgets key and its fetcher, cancelling a fetch in flight.
// Later invalidations skip the key until it is fetched again.
func (c *Cache) RemoveQuery(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key.hash()]
	if !ok {
		return
	}
	c.cancelLocked(e)
	e.data = nil
	e.hasData = false
	e.fetcher = nil
}

// IsStale reports whether key has no data, was invalidated or has outlived
// the stale time.
func (c *Cache) IsStale(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key.hash()]
	if !ok {
		return true
	}
	return !c.fresh(e)
}

// FetchQuery is the typed form of Cache.Fetch.
func FetchQuery[T any](ctx context.Context, c *Cache, key Key, fetch func(ctx context.Context) (T, error)) (T, error) {
	v, err := c.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](key, v)
}

// GetQueryData is the typed form of Cache.GetQueryData.
func GetQueryData[T any](c *Cache, key Key) (T, bool) {
	v, ok := c.GetQueryData(key)
	if !ok {
		var zero T
		return zero, false
	}
	t, err := as[T](key, v)
	return t, err == nil
}

func as[T any](key Key, v any) (T, error) {
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cached value for %s is %T, not %T", key, v, zero)
	}
	return t, nil
}
