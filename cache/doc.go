// Package cache provides bounded, time-limited caching of tool invocation
// results.
//
// It provides a Cache interface with an in-memory implementation combining
// insertion-order (FIFO) eviction, TTL expiry with a background sweep,
// glob-pattern invalidation by tool name, and hit/miss accounting. SHA-256
// key derivation over canonicalized arguments makes repeated calls with the
// same tool and argument set collide to the same entry regardless of map
// iteration order. A Policy decides which tools are safe to cache at all.
package cache
