package cmd

import (
	"sync"
	"time"

	"github.com/mj1618/game-bridge/internal/clock"
	"github.com/mj1618/game-bridge/internal/protocol"
)

// mcpElementCache provides a TTL-based cache for the bridge's element list.
// Element positions move as the UI changes, so entries are short-lived.
type mcpElementCache struct {
	mu        sync.Mutex
	elements  []protocol.ElementInfo
	timestamp time.Time
	valid     bool
	ttl       time.Duration
	clock     clock.Clock
}

// newMCPElementCache creates a new cache. A ttl of 0 disables caching.
func newMCPElementCache(ttl time.Duration, clk clock.Clock) *mcpElementCache {
	if clk == nil {
		clk = clock.Real()
	}
	return &mcpElementCache{ttl: ttl, clock: clk}
}

// readElements returns cached elements if within TTL, otherwise fetches
// fresh via fetch and caches the result.
func (c *mcpElementCache) readElements(fetch func() ([]protocol.ElementInfo, error)) ([]protocol.ElementInfo, error) {
	if c.ttl == 0 {
		return fetch()
	}

	c.mu.Lock()
	if c.valid && c.clock.Now().Sub(c.timestamp) < c.ttl {
		elements := c.elements
		c.mu.Unlock()
		return elements, nil
	}
	c.mu.Unlock()

	elements, err := fetch()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.elements = elements
	c.timestamp = c.clock.Now()
	c.valid = true
	c.mu.Unlock()

	return elements, nil
}

// invalidate clears the cache. Called after taps, which may move the UI.
func (c *mcpElementCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valid = false
	c.elements = nil
}
