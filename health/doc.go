// Package health exposes the cache's condition to operators.
//
// It provides a small Checker abstraction with a cache-backed implementation
// that reports capacity pressure, plus HTTP handlers that surface cache
// statistics as JSON and accept administrative invalidation requests.
package health
