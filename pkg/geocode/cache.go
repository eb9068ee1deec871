package geocode

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// TractCache is an in-memory coordinate-to-tract cache shared by the
// batch workers. Reads take a shared lock; concurrent writers for the
// same coordinate are tolerated and the last write wins, so duplicate
// upstream lookups can happen but never block each other.
type TractCache struct {
	mu      sync.RWMutex
	entries map[string]*TractInfo
}

// NewTractCache creates an empty cache. The cache is handed to the
// pipeline at construction; nothing in this package holds a global one.
func NewTractCache() *TractCache {
	return &TractCache{entries: make(map[string]*TractInfo)}
}

// Get returns the cached geography for a coordinate.
func (c *TractCache) Get(lat, lon float64) (*TractInfo, bool) {
	key := coordKey(lat, lon)
	c.mu.RLock()
	info, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		zap.L().Debug("geocode: tract cache hit", zap.String("key", key))
	}
	return info, ok
}

// Put stores the geography for a coordinate, replacing any earlier value.
func (c *TractCache) Put(lat, lon float64, info *TractInfo) {
	key := coordKey(lat, lon)
	c.mu.Lock()
	c.entries[key] = info
	c.mu.Unlock()
}

// Len returns the number of cached coordinates.
func (c *TractCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// coordKey rounds to 6 decimals, about 4 inches of latitude, so repeated
// lookups for the same parcel collapse to one key.
func coordKey(lat, lon float64) string {
	return fmt.Sprintf("%.6f,%.6f", lat, lon)
}
