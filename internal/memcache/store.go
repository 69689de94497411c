// Package memcache is the in-memory coordination core for analysis results:
// a content hasher for building cache keys, a bounded TTL+LRU store for the
// computed groupings themselves, and a per-key debouncer that coalesces
// rapid repeated requests. Everything here is process-local; durable event
// storage lives in eventstore.
package memcache

import (
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Default tuning for the bounded store. An interactive session rarely holds
// more than a handful of repo windows at once, so the entry bound stays small.
const (
	DefaultMaxEntries = 10
	DefaultTTL        = 5 * time.Minute
)

// entry is the bookkeeping record for one cached value. seq orders entries
// written at the same clock reading, so eviction stays deterministic even
// when the clock is too coarse to separate two writes.
type entry[V any] struct {
	key            string
	value          V
	createdAt      time.Time
	lastAccessedAt time.Time
	accessCount    int64
	seq            int64
}

// Stats is a snapshot of store activity counters for status output and tests.
type Stats struct {
	Entries   int
	Hits      int64
	Misses    int64
	Evictions int64
}

// storeConfig holds the resolved construction options for a Store.
type storeConfig struct {
	maxEntries int
	ttl        time.Duration
	clock      clockwork.Clock
}

// Option configures a Store.
type Option func(*storeConfig)

// WithMaxEntries bounds the number of resident entries.
// Values below 1 are ignored. Defaults to DefaultMaxEntries.
func WithMaxEntries(n int) Option {
	return func(c *storeConfig) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// WithTTL sets the freshness window measured from each entry's write time.
// Non-positive values are ignored. Defaults to DefaultTTL.
func WithTTL(d time.Duration) Option {
	return func(c *storeConfig) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithClock injects the clock used for freshness decisions. Tests pass a
// clockwork fake clock; production code uses the default real clock.
func WithClock(clock clockwork.Clock) Option {
	return func(c *storeConfig) { c.clock = clock }
}

func defaultStoreConfig() storeConfig {
	return storeConfig{
		maxEntries: DefaultMaxEntries,
		ttl:        DefaultTTL,
		clock:      clockwork.NewRealClock(),
	}
}

// Store is a bounded in-memory cache with TTL expiry on read and LRU
// eviction on write. All methods are safe for concurrent use and none of
// them fail: a full store evicts, an expired entry reads as a miss.
type Store[V any] struct {
	mu      sync.Mutex
	entries map[string]*entry[V]
	cfg     storeConfig
	nextSeq int64

	hits      int64
	misses    int64
	evictions int64
}

// New returns an empty Store.
func New[V any](opts ...Option) *Store[V] {
	cfg := defaultStoreConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Store[V]{
		entries: make(map[string]*entry[V], cfg.maxEntries),
		cfg:     cfg,
	}
}

// Get returns the value for key if it is resident and still fresh. An entry
// past its TTL reads as a miss but stays resident until the next Set for its
// key or an InvalidateStale sweep; an expired read must not refresh recency.
// A fresh hit bumps lastAccessedAt and the entry's access count.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero V
	e, ok := s.entries[key]
	if !ok {
		s.misses++
		return zero, false
	}

	now := s.cfg.clock.Now()
	if now.Sub(e.createdAt) > s.cfg.ttl {
		s.misses++
		return zero, false
	}

	e.lastAccessedAt = now
	e.accessCount++
	s.hits++
	return e.value, true
}

// Set inserts or replaces the value for key. Replacing resets the entry's
// age and access history. Inserting into a full store first evicts the entry
// with the oldest lastAccessedAt, ties broken by oldest createdAt. Set never
// fails.
func (s *Store[V]) Set(key string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.cfg.clock.Now()
	if e, ok := s.entries[key]; ok {
		e.value = value
		e.createdAt = now
		e.lastAccessedAt = now
		e.accessCount = 0
		return
	}

	if len(s.entries) >= s.cfg.maxEntries {
		s.evictLocked()
	}
	s.nextSeq++
	s.entries[key] = &entry[V]{
		key:            key,
		value:          value,
		createdAt:      now,
		lastAccessedAt: now,
		seq:            s.nextSeq,
	}
}

// evictLocked removes the least-recently-accessed entry, breaking access
// time ties by oldest createdAt and exact double-ties by insertion order.
// A linear scan over the resident entries is exact about the tie-breaks,
// which a recency list is not when a coarse clock hands out equal access
// times. The entry bound keeps the scan trivial. Caller holds s.mu.
func (s *Store[V]) evictLocked() {
	var victim *entry[V]
	for _, e := range s.entries {
		if victim == nil || olderThan(e, victim) {
			victim = e
		}
	}
	if victim != nil {
		delete(s.entries, victim.key)
		s.evictions++
	}
}

// olderThan reports whether a should be evicted before b.
func olderThan[V any](a, b *entry[V]) bool {
	if !a.lastAccessedAt.Equal(b.lastAccessedAt) {
		return a.lastAccessedAt.Before(b.lastAccessedAt)
	}
	if !a.createdAt.Equal(b.createdAt) {
		return a.createdAt.Before(b.createdAt)
	}
	return a.seq < b.seq
}

// InvalidateStale sweeps out every entry past the TTL and returns the number
// removed.
func (s *Store[V]) InvalidateStale() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.cfg.clock.Now()
	removed := 0
	for key, e := range s.entries {
		if now.Sub(e.createdAt) > s.cfg.ttl {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of resident entries, fresh or not.
func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Keys returns the resident keys, sorted for stable status output.
func (s *Store[V]) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Stats returns a snapshot of the activity counters.
func (s *Store[V]) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Entries:   len(s.entries),
		Hits:      s.hits,
		Misses:    s.misses,
		Evictions: s.evictions,
	}
}
