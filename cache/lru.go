package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

var _ Store = &LRU{}

// LRU is a bounded in-memory cache with expiration.
//
// When Config.Capacity is reached, least recently used entry is evicted
// regardless of its expiration. Please use NewLRU to create it.
type LRU struct {
	mu   sync.Mutex
	data *simplelru.LRU[string, *entry]

	*trait
}

// NewLRU creates an instance of bounded in-memory cache with optional configuration.
func NewLRU(cfg ...Config) (*LRU, error) {
	config := Config{}

	if len(cfg) >= 1 {
		config = cfg[0]
	}

	config = config.withDefaults()

	data, err := simplelru.NewLRU[string, *entry](config.Capacity, nil)
	if err != nil {
		return nil, err
	}

	c := &LRU{
		data: data,
	}

	c.trait = newTrait(c, config)

	return c, nil
}

// Get returns value if it is present and not expired.
func (c *LRU) Get(ctx context.Context, key string) (interface{}, bool) {
	now := c.now()

	c.mu.Lock()
	cacheEntry, found := c.data.Get(key)

	expired := found && cacheEntry.expired(now)
	if expired {
		c.data.Remove(key)
	}
	c.mu.Unlock()

	switch {
	case !found:
		c.logRead(ctx, key, MetricMiss, "cache miss")

		return nil, false
	case expired:
		c.logRead(ctx, key, MetricExpired, "cache key expired")

		return nil, false
	}

	c.logRead(ctx, key, MetricHit, "cache hit")

	return cacheEntry.V, true
}

// Set stores value, evicting least recently used entry if capacity is exceeded.
func (c *LRU) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if ttl < 0 {
		return
	}

	ttl = c.ttl(ttl)

	c.mu.Lock()
	evicted := c.data.Add(key, &entry{V: value, E: c.now().Add(ttl)})
	c.mu.Unlock()

	if evicted && c.stat != nil {
		c.stat.Add(ctx, MetricEvict, 1, "name", c.config.Name)
	}

	c.logWrite(ctx, key, ttl)
}

// Delete removes entry.
func (c *LRU) Delete(ctx context.Context, key string) {
	c.mu.Lock()
	found := c.data.Remove(key)
	c.mu.Unlock()

	if !found {
		return
	}

	if c.log != nil {
		c.log.Debug(ctx, "deleted cache entry", "name", c.config.Name, "key", key)
	}

	if c.stat != nil {
		c.stat.Add(ctx, MetricDelete, 1, "name", c.config.Name)
	}
}

// DeleteAll erases all entries.
func (c *LRU) DeleteAll(ctx context.Context) {
	start := c.now()

	c.mu.Lock()
	cnt := c.data.Len()
	c.data.Purge()
	c.mu.Unlock()

	c.reportDeleteAll(ctx, cnt, start)
}

// Len returns number of elements in cache.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.data.Len()
}

func (c *LRU) deleteExpiredBefore(boundary time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0

	// Peek does not change recency of live entries.
	for _, k := range c.data.Keys() {
		if e, ok := c.data.Peek(k); ok && e.expired(boundary) {
			c.data.Remove(k)
			n++
		}
	}

	return n
}
