// Package cache provides in-memory response caching with per-key expiration.
//
// Features:
//
//   - Unbounded (Memory) and bounded (LRU) stores behind a single Store contract.
//   - Lazy expiration on read: expired entry is never served and is deleted when found.
//   - Background sweeper reclaims memory of expired entries nobody reads, it can be stopped with Close.
//   - ReadThrough populates cache on miss and reports hit or miss to the caller.
//   - Invalidator drops caches on operator request with flood protection.
//   - Allows logging, stats collection.
//   - Injectable clock for deterministic expiration.
package cache
