// Package cache holds approved opportunities and run statistics for
// external reporting collaborators to poll.
package cache

import (
	"sync"
	"time"

	"github.com/ming198921/taoli5.1-sub000/internal/domain"
)

// DefaultCapacity bounds the opportunity cache when the config leaves it
// unset.
const DefaultCapacity = 10_000

// Key addresses one cached opportunity by instrument and capture time.
type Key struct {
	Symbol   string
	UnixNano int64
}

// NewKey builds the composite key for a symbol and timestamp.
func NewKey(symbol string, ts time.Time) Key {
	return Key{Symbol: symbol, UnixNano: ts.UnixNano()}
}

// OpportunityCache is a bounded, insertion-ordered store of approved
// opportunities. When an insert would exceed capacity, the oldest half is
// evicted in one pass inside the same critical section, so readers never
// observe an over-capacity cache and eviction cost is amortized across
// inserts.
type OpportunityCache struct {
	mu        sync.RWMutex
	capacity  int
	entries   map[Key]domain.ArbitrageOpportunity
	order     []Key
	evictions int64
}

// NewOpportunityCache creates a cache with the given capacity; zero or
// negative means DefaultCapacity.
func NewOpportunityCache(capacity int) *OpportunityCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &OpportunityCache{
		capacity: capacity,
		entries:  make(map[Key]domain.ArbitrageOpportunity, capacity),
	}
}

// Insert stores an opportunity under symbol+detection-time and returns how
// many entries were evicted to make room. Re-inserting the same key
// overwrites in place without consuming extra capacity.
func (c *OpportunityCache) Insert(opp domain.ArbitrageOpportunity) int {
	key := NewKey(opp.Symbol, opp.DetectedAt)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; exists {
		c.entries[key] = opp
		return 0
	}
	var evicted int
	if len(c.order) >= c.capacity {
		evicted = c.evictOldestHalfLocked()
	}
	c.entries[key] = opp
	c.order = append(c.order, key)
	return evicted
}

// evictOldestHalfLocked drops the oldest half of the insertion order in
// one pass and returns the drop count. Called with the write lock held.
func (c *OpportunityCache) evictOldestHalfLocked() int {
	drop := len(c.order) / 2
	if drop == 0 {
		drop = 1
	}
	for _, key := range c.order[:drop] {
		delete(c.entries, key)
	}
	c.order = append(c.order[:0], c.order[drop:]...)
	c.evictions += int64(drop)
	return drop
}

// Get returns the opportunity stored for symbol at the exact capture time.
func (c *OpportunityCache) Get(symbol string, ts time.Time) (domain.ArbitrageOpportunity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	opp, ok := c.entries[NewKey(symbol, ts)]
	return opp, ok
}

// InWindow returns all cached opportunities for symbol captured in
// [from, to], in insertion order.
func (c *OpportunityCache) InWindow(symbol string, from, to time.Time) []domain.ArbitrageOpportunity {
	fromNano, toNano := from.UnixNano(), to.UnixNano()
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []domain.ArbitrageOpportunity
	for _, key := range c.order {
		if key.Symbol != symbol || key.UnixNano < fromNano || key.UnixNano > toNano {
			continue
		}
		out = append(out, c.entries[key])
	}
	return out
}

// Len returns the number of cached opportunities.
func (c *OpportunityCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Capacity returns the configured bound.
func (c *OpportunityCache) Capacity() int { return c.capacity }

// Evictions returns the total number of entries evicted so far.
func (c *OpportunityCache) Evictions() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.evictions
}
