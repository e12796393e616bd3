package cache

import (
	"context"
	"time"
)

// DefaultTTL indicates default ttl value, store configured TimeToLive is used.
const DefaultTTL = time.Duration(0)

// SkipWriteTTL is a ttl value to indicate that cache must not be stored.
const SkipWriteTTL = time.Duration(-1)

// Reader reads from cache.
type Reader interface {
	// Get returns cached value if it is present and not expired.
	//
	// Expired entry is deleted on read and reported as absent.
	Get(ctx context.Context, key string) (interface{}, bool)
}

// Writer writes to cache.
type Writer interface {
	// Set stores value in cache with a given key and time to live.
	// Previous entry and its expiration are replaced.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
}

// Deleter removes from cache.
type Deleter interface {
	// Delete removes entry with a given key, missing key is not an error.
	Delete(ctx context.Context, key string)

	// DeleteAll removes all entries.
	DeleteAll(ctx context.Context)
}

// Store is a cache instance that can be shared by request handlers and background jobs.
type Store interface {
	Reader
	Writer
	Deleter

	// Len returns number of physically stored entries, expired ones included.
	Len() int
}
