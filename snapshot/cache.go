// Package snapshot caches fetched pool snapshots for a short TTL so bursts
// of quote requests against the same chain state do not refetch. The cache
// is owned by the embedding application and handed to it explicitly; the
// routing core never touches shared state.
package snapshot

import (
	"sync"
	"time"

	"github.com/defistate/swap-router-go/pools"
)

// DefaultTTL bounds how long a snapshot is served before callers must
// refetch.
const DefaultTTL = 10 * time.Second

// Key identifies one snapshot variant.
type Key struct {
	ChainID         uint64
	ProtocolVersion int
	// Flags distinguishes fetch variants (e.g. "buffers", "all").
	Flags string
}

// Snapshot is the cached unit: the pool set and buffer set of one fetch.
type Snapshot struct {
	Pools   []*pools.Pool
	Buffers []*pools.BufferPool

	// Timestamp is the chain time the snapshot was taken at, forwarded to
	// time-dependent pool math.
	Timestamp uint64
}

type entry struct {
	snap      *Snapshot
	fetchedAt time.Time
}

// Cache is a TTL map guarded by an RWMutex. The zero value is not usable;
// construct with New.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[Key]entry

	// now is swapped in tests.
	now func() time.Time
}

// New returns a cache with the given TTL; ttl <= 0 selects DefaultTTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[Key]entry),
		now:     time.Now,
	}
}

// Get returns the cached snapshot for key if it is still fresh.
func (c *Cache) Get(key Key) (*Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.fetchedAt) >= c.ttl {
		return nil, false
	}
	return e.snap, true
}

// Put stores a snapshot, resetting its TTL.
func (c *Cache) Put(key Key, snap *Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{snap: snap, fetchedAt: c.now()}
}

// Invalidate drops one key immediately.
func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Key]entry)
}
