package cache

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// entry is a cache entry.
type entry struct {
	V interface{}
	E time.Time
}

// expired is true when expiration time has come.
func (e *entry) expired(now time.Time) bool {
	return !e.E.After(now)
}

var _ Store = &Memory{}

// Memory is an unbounded in-memory cache with lazy expiration and background sweeping.
//
// Please use NewMemory to create it.
type Memory struct {
	data *xsync.MapOf[string, *entry]

	*trait
}

// NewMemory creates an instance of in-memory cache with optional configuration.
func NewMemory(cfg ...Config) *Memory {
	c := &Memory{
		data: xsync.NewMapOf[string, *entry](),
	}

	c.trait = newTrait(c, cfg...)

	return c
}

// Get returns value if it is present and not expired.
func (c *Memory) Get(ctx context.Context, key string) (interface{}, bool) {
	cacheEntry, found := c.data.Load(key)
	if !found {
		c.logRead(ctx, key, MetricMiss, "cache miss")

		return nil, false
	}

	now := c.now()

	if cacheEntry.expired(now) {
		c.data.Compute(key, func(old *entry, loaded bool) (*entry, bool) {
			// Entry could have been rewritten after load, only expired one is deleted.
			return old, !loaded || old.expired(now)
		})

		c.logRead(ctx, key, MetricExpired, "cache key expired")

		return nil, false
	}

	c.logRead(ctx, key, MetricHit, "cache hit")

	return cacheEntry.V, true
}

// Set stores value.
func (c *Memory) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if ttl < 0 {
		return
	}

	ttl = c.ttl(ttl)

	c.data.Store(key, &entry{V: value, E: c.now().Add(ttl)})

	c.logWrite(ctx, key, ttl)
}

// Delete removes entry.
func (c *Memory) Delete(ctx context.Context, key string) {
	if _, found := c.data.LoadAndDelete(key); !found {
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
func (c *Memory) DeleteAll(ctx context.Context) {
	start := c.now()
	cnt := c.data.Size()

	c.data.Clear()

	c.reportDeleteAll(ctx, cnt, start)
}

// Len returns number of elements in cache.
func (c *Memory) Len() int {
	return c.data.Size()
}

func (c *Memory) deleteExpiredBefore(boundary time.Time) int {
	keys := make([]string, 0, 100)

	c.data.Range(func(key string, e *entry) bool {
		if e.expired(boundary) {
			keys = append(keys, key)
		}

		return true
	})

	n := 0

	for _, k := range keys {
		c.data.Compute(k, func(old *entry, loaded bool) (*entry, bool) {
			del := !loaded || old.expired(boundary)
			if loaded && del {
				n++
			}

			return old, del
		})
	}

	return n
}
