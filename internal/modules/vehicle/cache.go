// README: In-process full-fleet cache in front of the vehicle store.
package vehicle

import (
	"slices"
	"strings"
	"sync"

	"ridecore/internal/types"
)

// Cache holds the whole fleet in memory. It has no eviction and no
// expiry; once loaded it is the source of truth until AddAll runs again.
// A never-loaded cache is distinct from a loaded cache with zero vehicles.
type Cache struct {
	mu       sync.RWMutex
	loaded   bool
	vehicles map[types.ID]Vehicle
}

func NewCache() *Cache {
	return &Cache{vehicles: make(map[types.ID]Vehicle)}
}

// IsEmpty reports whether the cache has never been populated.
func (c *Cache) IsEmpty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.loaded
}

// AddAll replaces the cached fleet and marks the cache loaded, even when
// vehicles is empty.
func (c *Cache) AddAll(vehicles []Vehicle) {
	next := make(map[types.ID]Vehicle, len(vehicles))
	for _, v := range vehicles {
		next[v.ID] = v
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vehicles = next
	c.loaded = true
}

// GetAll returns a copy of the loaded fleet ordered by vehicle ID, or nil if
// the cache was never loaded.
func (c *Cache) GetAll() []Vehicle {
	c.mu.RLock()
	if !c.loaded {
		c.mu.RUnlock()
		return nil
	}
	out := make([]Vehicle, 0, len(c.vehicles))
	for _, v := range c.vehicles {
		out = append(out, v)
	}
	c.mu.RUnlock()

	slices.SortFunc(out, func(a, b Vehicle) int {
		return strings.Compare(string(a.ID), string(b.ID))
	})
	return out
}

func (c *Cache) Get(id types.ID) (Vehicle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.vehicles[id]
	return v, ok
}

// Set upserts one vehicle. It does not flip the loaded state.
func (c *Cache) Set(v Vehicle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vehicles[v.ID] = v
}

// CompareAndSwap replaces the entry for next.ID with next only if the
// current entry is identical to expected. It reports whether the swap happened.
func (c *Cache) CompareAndSwap(expected, next Vehicle) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur, ok := c.vehicles[next.ID]
	if !ok || !identical(cur, expected) {
		return false
	}
	c.vehicles[next.ID] = next
	return true
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.vehicles)
}
