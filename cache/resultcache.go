package cache

import (
	"container/list"
	"context"
	"fmt"
	"path"
	"sync"
	"time"
)

const defaultSweepInterval = time.Minute

// ResultCache is the in-memory Cache implementation.
//
// Entries are held in a map for lookup and a doubly-linked list in insertion
// order for eviction. When an insert would exceed MaxEntries, the single
// oldest-inserted entry is removed first. This is deliberately FIFO, not
// LRU: reads do not reorder entries. Overwriting an existing key refreshes
// its value and expiry but keeps its insertion rank.
type ResultCache struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	order   *list.List // of *entry, front = oldest inserted
	policy  Policy
	keyer   Keyer
	max     int
	closed  bool
	stop    chan struct{}
	stopped sync.Once

	hits        uint64
	misses      uint64
	evictions   uint64
	expirations uint64

	// now is replaceable in tests to pin expiry boundaries.
	now func() time.Time
}

type entry struct {
	key       string
	tool      string
	value     []byte
	createdAt time.Time
	expiresAt time.Time
}

// New creates a ResultCache and starts its background sweep.
// MaxEntries and the policy's DefaultTTL must both be positive.
func New(cfg Config) (*ResultCache, error) {
	policy := cfg.Policy
	if policy.cacheable == nil && policy.denied == nil && policy.DefaultTTL == 0 {
		policy = DefaultPolicy()
	}
	if cfg.MaxEntries <= 0 {
		return nil, fmt.Errorf("%w: max entries must be positive, got %d", ErrInvalidConfig, cfg.MaxEntries)
	}
	if policy.DefaultTTL <= 0 {
		return nil, fmt.Errorf("%w: default TTL must be positive, got %v", ErrInvalidConfig, policy.DefaultTTL)
	}

	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = defaultSweepInterval
	}

	c := &ResultCache{
		items:  make(map[string]*list.Element),
		order:  list.New(),
		policy: policy,
		keyer:  NewDefaultKeyer(),
		max:    cfg.MaxEntries,
		stop:   make(chan struct{}),
		now:    time.Now,
	}

	go c.sweep(interval)

	return c, nil
}

// Policy returns the cacheability policy this cache was built with.
func (c *ResultCache) Policy() Policy {
	return c.policy
}

// Get retrieves a cached result. Returns (nil, false) on miss.
//
// Non-cacheable tools return a miss without touching the counters. A key
// derivation failure is a forced miss: the caller executes the real
// operation, which from its point of view is indistinguishable from a miss.
// An entry whose expiry timestamp has been reached (now >= expiresAt) is
// removed and counted as a miss.
func (c *ResultCache) Get(_ context.Context, tool string, args map[string]any) ([]byte, bool) {
	if !c.policy.IsCacheable(tool) {
		return nil, false
	}

	key, err := c.keyer.Key(tool, args)
	if err != nil {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, false
	}

	elem, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}

	ent := elem.Value.(*entry)
	if !c.now().Before(ent.expiresAt) {
		c.removeLocked(elem)
		c.expirations++
		c.misses++
		return nil, false
	}

	c.hits++
	out := make([]byte, len(ent.value))
	copy(out, ent.value)
	return out, true
}

// Set stores a result with the given TTL. TTL<=0 selects the policy default;
// positive TTLs are clamped to the policy maximum. Set for a non-cacheable
// tool is a no-op, so callers may invoke it unconditionally.
//
// After Set returns, an immediate Get with the same tool and arguments
// returns the stored value until it expires, is evicted, or is invalidated.
func (c *ResultCache) Set(_ context.Context, tool string, args map[string]any, value []byte, ttl time.Duration) error {
	if !c.policy.IsCacheable(tool) {
		return nil
	}

	key, err := c.keyer.Key(tool, args)
	if err != nil {
		return err
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	now := c.now()
	expiresAt := now.Add(c.policy.EffectiveTTL(ttl))

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	if elem, ok := c.items[key]; ok {
		// Overwrite in place, insertion rank unchanged.
		ent := elem.Value.(*entry)
		ent.value = stored
		ent.createdAt = now
		ent.expiresAt = expiresAt
		return nil
	}

	if c.order.Len() >= c.max {
		c.evictOldestLocked()
	}

	ent := &entry{
		key:       key,
		tool:      tool,
		value:     stored,
		createdAt: now,
		expiresAt: expiresAt,
	}
	c.items[key] = c.order.PushBack(ent)

	return nil
}

// Invalidate removes all entries whose tool name matches pattern. The
// pattern is an exact tool name or a path.Match glob such as "github_*".
// An empty pattern clears the entire store. Returns the number removed.
func (c *ResultCache) Invalidate(pattern string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0
	}

	if pattern == "" {
		n := c.order.Len()
		c.items = make(map[string]*list.Element)
		c.order.Init()
		return n
	}

	removed := 0
	for elem := c.order.Front(); elem != nil; {
		next := elem.Next()
		if toolMatches(pattern, elem.Value.(*entry).tool) {
			c.removeLocked(elem)
			removed++
		}
		elem = next
	}
	return removed
}

// Stats returns a snapshot of the running counters. HitRate is
// hits/(hits+misses), 0 before any lookup has occurred.
func (c *ResultCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
		Expirations: c.expirations,
		Entries:     c.order.Len(),
		MaxEntries:  c.max,
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}

// Close stops the background sweep and drops all entries. Idempotent.
func (c *ResultCache) Close() {
	c.stopped.Do(func() {
		close(c.stop)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.items = make(map[string]*list.Element)
	c.order.Init()
}

// evictOldestLocked removes the single oldest-inserted entry.
// Caller must hold c.mu.
func (c *ResultCache) evictOldestLocked() {
	front := c.order.Front()
	if front == nil {
		return
	}
	c.removeLocked(front)
	c.evictions++
}

// removeLocked unlinks an element from both structures.
// Caller must hold c.mu.
func (c *ResultCache) removeLocked(elem *list.Element) {
	ent := c.order.Remove(elem).(*entry)
	delete(c.items, ent.key)
}

// sweep periodically removes expired entries so memory held by results
// nobody reads again is bounded by the sweep interval, not the read rate.
func (c *ResultCache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *ResultCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	now := c.now()
	for elem := c.order.Front(); elem != nil; {
		next := elem.Next()
		if !now.Before(elem.Value.(*entry).expiresAt) {
			c.removeLocked(elem)
			c.expirations++
		}
		elem = next
	}
}

func toolMatches(pattern, tool string) bool {
	if pattern == tool {
		return true
	}
	ok, err := path.Match(pattern, tool)
	return err == nil && ok
}

// Ensure ResultCache implements Cache
var _ Cache = (*ResultCache)(nil)
