package cache

import (
	"context"
	"time"
)

// Cache is the interface for caching tool invocation results.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: Get never errors; it returns (nil, false) on miss, on expired
//   entries, on non-cacheable tools, and when a key cannot be derived.
// - Ownership: stored values are private to the cache; Get returns a copy.
type Cache interface {
	// Get retrieves a cached result for the given tool and arguments.
	// Returns (nil, false) on miss.
	Get(ctx context.Context, tool string, args map[string]any) ([]byte, bool)

	// Set stores a result. TTL<=0 selects the policy default. Calling Set
	// for a non-cacheable tool is a no-op.
	Set(ctx context.Context, tool string, args map[string]any, value []byte, ttl time.Duration) error

	// Invalidate removes all entries whose tool name matches pattern
	// (exact name or path.Match glob). An empty pattern clears the whole
	// store. Returns the number of entries removed.
	Invalidate(pattern string) int

	// Stats returns a snapshot of the running counters.
	Stats() Stats

	// Close stops the background sweep and releases all entries.
	// Idempotent. Get and Set after Close return misses and no-ops.
	Close()
}

// Stats is a read-only snapshot of cache activity counters.
type Stats struct {
	Hits        uint64  `json:"hits"`
	Misses      uint64  `json:"misses"`
	Evictions   uint64  `json:"evictions"`
	Expirations uint64  `json:"expirations"`
	Entries     int     `json:"entries"`
	MaxEntries  int     `json:"max_entries"`
	HitRate     float64 `json:"hit_rate"`
}

// Config configures a ResultCache.
type Config struct {
	// MaxEntries is the capacity bound. Must be positive.
	MaxEntries int

	// Policy supplies cacheability decisions and TTLs. Its DefaultTTL
	// must be positive. Zero value selects DefaultPolicy().
	Policy Policy

	// SweepInterval is how often the background sweep removes expired
	// entries. Zero selects one minute.
	SweepInterval time.Duration
}
