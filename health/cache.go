package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/toolcache/cache"
)

// StatsSource is the slice of the cache this package reads.
type StatsSource interface {
	Stats() cache.Stats
}

// CacheCheckerConfig configures the cache health checker.
type CacheCheckerConfig struct {
	// WarningUtilization is the entries/capacity ratio that triggers
	// degraded status. A full store means every insert evicts, so hit
	// rates collapse under churn. Value in (0, 1]. Default: 0.9.
	WarningUtilization float64
}

// CacheChecker reports the cache's capacity pressure.
type CacheChecker struct {
	source StatsSource
	config CacheCheckerConfig
}

// NewCacheChecker creates a health checker over the given cache.
func NewCacheChecker(source StatsSource, config CacheCheckerConfig) *CacheChecker {
	if config.WarningUtilization <= 0 || config.WarningUtilization > 1 {
		config.WarningUtilization = 0.9
	}
	return &CacheChecker{source: source, config: config}
}

// Name returns the name of this checker.
func (c *CacheChecker) Name() string {
	return "result-cache"
}

// Check reports healthy while the store has headroom and degraded once
// utilization crosses the warning threshold.
func (c *CacheChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled")
	default:
	}

	s := c.source.Stats()

	details := map[string]any{
		"entries":     s.Entries,
		"max_entries": s.MaxEntries,
		"hits":        s.Hits,
		"misses":      s.Misses,
		"evictions":   s.Evictions,
		"hit_rate":    s.HitRate,
	}

	utilization := 0.0
	if s.MaxEntries > 0 {
		utilization = float64(s.Entries) / float64(s.MaxEntries)
	}
	details["utilization"] = utilization

	if utilization >= c.config.WarningUtilization {
		msg := fmt.Sprintf("cache at %.0f%% of capacity, inserts are evicting", utilization*100)
		return Degraded(msg).WithDetails(details)
	}

	return Healthy("cache operating normally").WithDetails(details)
}

// Ensure CacheChecker implements Checker
var _ Checker = (*CacheChecker)(nil)
