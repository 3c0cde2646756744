// Package querycache is an in-memory cache of server resources keyed by
// hierarchical keys. Reads are de-duplicated per key, entries go stale when
// invalidated (or after a stale time), in-flight fetches can be cancelled so a
// late response never overwrites a newer local write, and whole key ranges can
// be snapshotted and restored for optimistic updates.
package querycache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tazminur12/volunter-sub001/internal/util"
)

// ErrCancelled is returned to readers whose fetch was cancelled or whose entry
// was removed while they waited, when there is no cached value to fall back on.
var ErrCancelled = errors.New("querycache: fetch cancelled")

type entry struct {
	key       Key
	data      any
	hasData   bool
	updatedAt time.Time
	stale     bool

	epoch    uint64 // bumped by Invalidate
	gen      uint64 // flight generation, replaced by Cancel
	fetching bool
	cancel   context.CancelFunc
}

type Cache struct {
	mu        sync.Mutex
	entries   map[string]*entry
	flights   singleflight.Group
	clock     util.Clock
	staleTime time.Duration
	seq       uint64
}

type Option func(*Cache)

// WithStaleTime makes entries stale d after they were written. Zero keeps
// entries fresh until they are invalidated.
func WithStaleTime(d time.Duration) Option {
	return func(c *Cache) { c.staleTime = d }
}

func WithClock(clock util.Clock) Option {
	return func(c *Cache) { c.clock = clock }
}

func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]*entry),
		clock:   util.NewRealClock(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// --- READS ---

// Fetch returns the cached value for key when it is fresh, and otherwise runs fn
// once for all concurrent callers and stores its result.
func Fetch[T any](ctx context.Context, c *Cache, key Key, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	v, err := c.fetch(ctx, key, func(ctx context.Context) (any, error) { return fn(ctx) })
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("querycache: %s holds %T, not %T", key, v, zero)
	}
	return t, nil
}

// Get returns the cached value for key, fresh or not.
func Get[T any](c *Cache, key Key) (T, bool) {
	var zero T
	v, ok := c.Peek(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

func (c *Cache) Peek(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.id()]
	if !ok || !e.hasData {
		return nil, false
	}
	return e.data, true
}

// IsStale reports whether the next read of key will go to the network.
func (c *Cache) IsStale(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.id()]
	return !ok || c.isStale(e)
}

// Keys lists the keys holding data under prefix.
func (c *Cache) Keys(prefix Key) []Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	var keys []Key
	for _, e := range c.entries {
		if e.hasData && e.key.HasPrefix(prefix) {
			keys = append(keys, e.key)
		}
	}
	return keys
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) fetch(ctx context.Context, key Key, fn func(context.Context) (any, error)) (any, error) {
	id := key.id()

	c.mu.Lock()
	e, ok := c.entries[id]
	if ok && !c.isStale(e) {
		data := e.data
		c.mu.Unlock()
		return data, nil
	}
	if !ok {
		e = &entry{key: key.Append(), gen: c.nextGen()}
		c.entries[id] = e
	}
	e.fetching = true
	gen := e.gen
	c.mu.Unlock()

	ch := c.flights.DoChan(id+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		return c.runFlight(ctx, e, id, gen, fn)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if errors.Is(res.Err, ErrCancelled) {
			// superseded by a local write: serve what the cache holds now
			if v, ok := c.Peek(key); ok {
				return v, nil
			}
		}
		return res.Val, res.Err
	}
}

func (c *Cache) runFlight(ctx context.Context, e *entry, id string, gen uint64, fn func(context.Context) (any, error)) (any, error) {
	// the fetch outlives the first caller; only Cancel stops it
	fetchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()

	c.mu.Lock()
	if c.entries[id] != e || e.gen != gen {
		c.mu.Unlock()
		return nil, ErrCancelled
	}
	e.cancel = cancel
	epoch := e.epoch
	c.mu.Unlock()

	v, err := fn(fetchCtx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries[id] != e || e.gen != gen {
		slog.Debug("discarding cancelled fetch", "key", e.key.String())
		return nil, ErrCancelled
	}
	e.fetching = false
	e.cancel = nil
	if err != nil {
		return nil, err
	}
	e.data = v
	e.hasData = true
	e.updatedAt = c.clock.Now()
	e.stale = e.epoch != epoch
	return v, nil
}

// --- WRITES ---

// Set stores data under key as fresh.
func (c *Cache) Set(key Key, data any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.id()]
	if !ok {
		e = &entry{key: key.Append(), gen: c.nextGen()}
		c.entries[key.id()] = e
	}
	c.write(e, data)
}

// Update replaces the value under key with fn's result when fn reports a change.
// Absent keys are left absent. fn must not mutate its argument.
func Update[T any](c *Cache, key Key, fn func(T) (T, bool)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.id()]
	if !ok {
		return false
	}
	return updateEntry(c, e, fn)
}

// UpdatePrefix applies fn to every value under prefix and returns how many changed.
func UpdatePrefix[T any](c *Cache, prefix Key, fn func(T) (T, bool)) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.entries {
		if e.key.HasPrefix(prefix) && updateEntry(c, e, fn) {
			n++
		}
	}
	return n
}

func updateEntry[T any](c *Cache, e *entry, fn func(T) (T, bool)) bool {
	if !e.hasData {
		return false
	}
	cur, ok := e.data.(T)
	if !ok {
		return false
	}
	next, changed := fn(cur)
	if !changed {
		return false
	}
	c.write(e, next)
	return true
}

func (c *Cache) write(e *entry, data any) {
	e.data = data
	e.hasData = true
	e.updatedAt = c.clock.Now()
	e.stale = false
}

// Invalidate marks every entry under prefix stale so its next read refetches.
// A fetch already in flight still lands, but stays stale.
func (c *Cache) Invalidate(prefix Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.entries {
		if e.key.HasPrefix(prefix) {
			e.stale = true
			e.epoch++
			n++
		}
	}
	slog.Debug("cache invalidated", "prefix", prefix.String(), "entries", n)
	return n
}

// Cancel aborts in-flight fetches under prefix; their responses are discarded.
func (c *Cache) Cancel(prefix Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.entries {
		if e.key.HasPrefix(prefix) && c.cancelFlight(e) {
			n++
		}
	}
	if n > 0 {
		slog.Debug("cache fetches cancelled", "prefix", prefix.String(), "fetches", n)
	}
	return n
}

// Remove drops every entry under prefix, cancelling their fetches.
func (c *Cache) Remove(prefix Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for id, e := range c.entries {
		if e.key.HasPrefix(prefix) {
			c.cancelFlight(e)
			delete(c.entries, id)
			n++
		}
	}
	return n
}

func (c *Cache) cancelFlight(e *entry) bool {
	if !e.fetching {
		return false
	}
	if e.cancel != nil {
		e.cancel()
	}
	e.cancel = nil
	e.fetching = false
	e.gen = c.nextGen()
	return true
}

func (c *Cache) isStale(e *entry) bool {
	if !e.hasData || e.stale {
		return true
	}
	return c.staleTime > 0 && c.clock.Now().Sub(e.updatedAt) >= c.staleTime
}

func (c *Cache) nextGen() uint64 {
	c.seq++
	return c.seq
}

// --- SNAPSHOTS ---

type savedEntry struct {
	key       Key
	data      any
	hasData   bool
	updatedAt time.Time
	stale     bool
}

// Snapshot is a verbatim copy of the entries under a prefix.
type Snapshot struct {
	prefix  Key
	entries []savedEntry
}

func (c *Cache) Snapshot(prefix Key) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{prefix: prefix.Append()}
	for _, e := range c.entries {
		if e.hasData && e.key.HasPrefix(prefix) {
			s.entries = append(s.entries, savedEntry{
				key:       e.key,
				data:      e.data,
				hasData:   e.hasData,
				updatedAt: e.updatedAt,
				stale:     e.stale,
			})
		}
	}
	return s
}

// Restore puts the prefix back exactly as snapshotted: saved entries regain
// their values and entries created since are dropped.
func (c *Cache) Restore(s Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	saved := make(map[string]savedEntry, len(s.entries))
	for _, se := range s.entries {
		saved[se.key.id()] = se
	}
	for id, e := range c.entries {
		if _, ok := saved[id]; !ok && e.key.HasPrefix(s.prefix) && e.hasData {
			c.cancelFlight(e)
			delete(c.entries, id)
		}
	}
	for id, se := range saved {
		e, ok := c.entries[id]
		if !ok {
			e = &entry{key: se.key, gen: c.nextGen()}
			c.entries[id] = e
		}
		e.data = se.data
		e.hasData = se.hasData
		e.updatedAt = se.updatedAt
		e.stale = se.stale
	}
}
