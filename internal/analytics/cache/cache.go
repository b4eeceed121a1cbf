// Package cache memoizes analytics results per requester and scope.
//
// Entries expire after a TTL and the least recently used entry is evicted
// when the cache is full. Concurrent misses on the same key share a single
// computation. Clear drops every entry and discards results of computations
// that were in flight when it ran.
package cache

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/lumigente/lumigente-backend/pkg/metrics"
)

// Lookup results reported to metrics
const (
	ResultHit    = "hit"
	ResultMiss   = "miss"
	ResultShared = "shared"
)

// Key identifies one analytics result. Two requesters never share a key.
type Key struct {
	Section      string
	RequesterID  int64
	Scope        string
	PeriodDays   int
	Department   string
	TargetUserID int64
	Top          int
}

// String renders the key; department is the only free-form part and goes last
func (k Key) String() string {
	return fmt.Sprintf("%s|%d|%s|%d|%d|%d|%s",
		k.Section, k.RequesterID, k.Scope, k.PeriodDays, k.TargetUserID, k.Top,
		k.Department)
}

// Options configures a Cache
type Options struct {
	TTL            time.Duration
	MaxEntries     int
	ComputeTimeout time.Duration
}

// DefaultOptions returns the production defaults
func DefaultOptions() Options {
	return Options{
		TTL:            5 * time.Minute,
		MaxEntries:     1000,
		ComputeTimeout: 20 * time.Second,
	}
}

// Stats is a point-in-time view of the cache
type Stats struct {
	Entries   int     `json:"entries"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	TTLSec    float64 `json:"ttl_seconds"`
}

// ComputeFunc produces the value for a missing key
type ComputeFunc func(ctx context.Context) (interface{}, error)

type entry struct {
	key       string
	value     interface{}
	expiresAt time.Time
	element   *list.Element
}

// Cache is a TTL + LRU result cache. Safe for concurrent use.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*entry
	lru        *list.List
	generation uint64
	flight     singleflight.Group

	options Options
	metrics *metrics.Metrics
	now     func() time.Time

	hits      int64
	misses    int64
	evictions int64
}

// New creates a cache; non-positive options fall back to the defaults
func New(opts Options, m *metrics.Metrics) *Cache {
	def := DefaultOptions()
	if opts.TTL <= 0 {
		opts.TTL = def.TTL
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = def.MaxEntries
	}
	if opts.ComputeTimeout <= 0 {
		opts.ComputeTimeout = def.ComputeTimeout
	}
	return &Cache{
		entries: make(map[string]*entry),
		lru:     list.New(),
		options: opts,
		metrics: m,
		now:     time.Now,
	}
}

// WithClock replaces the time source, for tests
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// Get returns a live entry and marks it as recently used
func (c *Cache) Get(key Key) (interface{}, bool) {
	v, ok := c.lookup(key.String())
	if ok {
		atomic.AddInt64(&c.hits, 1)
		c.metrics.CacheLookup(ResultHit)
	} else {
		atomic.AddInt64(&c.misses, 1)
		c.metrics.CacheLookup(ResultMiss)
	}
	return v, ok
}

// Set stores value under key, replacing any previous entry
func (c *Cache) Set(key Key, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.putLocked(key.String(), value)
}

// GetOrCompute returns the cached value for key or computes it once.
// cached is true when the value came from the cache or from a computation
// started by another caller.
func (c *Cache) GetOrCompute(ctx context.Context, key Key, compute ComputeFunc) (value interface{}, cached bool, err error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}

	k := key.String()
	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()

	v, err, shared := c.flight.Do(k, func() (interface{}, error) {
		if v, ok := c.lookup(k); ok {
			return v, nil
		}

		// the result is shared, so one caller going away must not cancel it
		computeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.options.ComputeTimeout)
		defer cancel()

		v, err := compute(computeCtx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.generation == gen {
			c.putLocked(k, v)
		}
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		return nil, false, err
	}
	if shared {
		c.metrics.CacheLookup(ResultShared)
	}
	return v, shared, nil
}

// Clear drops every entry
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.lru.Init()
	c.generation++
}

// Stats reports the entry count and counters
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	n := len(c.entries)
	c.mu.Unlock()
	return Stats{
		Entries:   n,
		Hits:      atomic.LoadInt64(&c.hits),
		Misses:    atomic.LoadInt64(&c.misses),
		Evictions: atomic.LoadInt64(&c.evictions),
		TTLSec:    c.options.TTL.Seconds(),
	}
}

func (c *Cache) lookup(k string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[k]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		c.removeLocked(e)
		return nil, false
	}
	c.lru.MoveToFront(e.element)
	return e.value, true
}

func (c *Cache) putLocked(k string, v interface{}) {
	if e, ok := c.entries[k]; ok {
		e.value = v
		e.expiresAt = c.now().Add(c.options.TTL)
		c.lru.MoveToFront(e.element)
		return
	}

	c.evictIfNeededLocked()

	e := &entry{key: k, value: v, expiresAt: c.now().Add(c.options.TTL)}
	e.element = c.lru.PushFront(e)
	c.entries[k] = e
}

// evictIfNeededLocked drops expired entries first, then the least recently used
func (c *Cache) evictIfNeededLocked() {
	if len(c.entries) < c.options.MaxEntries {
		return
	}

	now := c.now()
	for el := c.lru.Back(); el != nil; {
		prev := el.Prev()
		if e := el.Value.(*entry); !now.Before(e.expiresAt) {
			c.removeLocked(e)
		}
		el = prev
	}

	for len(c.entries) >= c.options.MaxEntries {
		oldest := c.lru.Back()
		if oldest == nil {
			return
		}
		c.removeLocked(oldest.Value.(*entry))
		atomic.AddInt64(&c.evictions, 1)
		c.metrics.CacheEviction()
	}
}

func (c *Cache) removeLocked(e *entry) {
	c.lru.Remove(e.element)
	delete(c.entries, e.key)
}
