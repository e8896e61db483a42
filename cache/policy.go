package cache

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Policy decides which tools may be cached and for how long.
//
// Cacheability is an allow-list decision: a tool is cacheable only if its
// name is on the cacheable list and not on the never-cacheable list. The
// deny list wins when a name appears on both, and unknown names fail closed.
type Policy struct {
	// DefaultTTL is the TTL to use when the caller does not supply one.
	DefaultTTL time.Duration

	// MaxTTL is the maximum allowed TTL. Caller-supplied TTLs are clamped
	// to this. If zero, no maximum is enforced.
	MaxTTL time.Duration

	cacheable map[string]struct{}
	denied    map[string]struct{}
}

// Default tool lists. Cacheable tools are deterministic reads that are
// expensive to recompute; never-cacheable tools either mutate state or
// return live data that would be observably stale when replayed.
var (
	DefaultCacheableTools = []string{
		"search",
		"fetch",
		"grep",
		"read_file",
		"list_symbols",
		"docs_lookup",
		"check_types",
	}

	DefaultNeverCacheableTools = []string{
		"write_file",
		"apply_edit",
		"run_command",
		"send_message",
		"current_time",
		"random",
	}
)

// NewPolicy builds a policy from explicit tool lists.
func NewPolicy(defaultTTL, maxTTL time.Duration, cacheable, neverCacheable []string) Policy {
	p := Policy{
		DefaultTTL: defaultTTL,
		MaxTTL:     maxTTL,
		cacheable:  make(map[string]struct{}, len(cacheable)),
		denied:     make(map[string]struct{}, len(neverCacheable)),
	}
	for _, name := range cacheable {
		p.cacheable[name] = struct{}{}
	}
	for _, name := range neverCacheable {
		p.denied[name] = struct{}{}
	}
	return p
}

// DefaultPolicy returns the built-in policy.
// DefaultTTL: 5 minutes, MaxTTL: 1 hour, default tool lists.
func DefaultPolicy() Policy {
	return NewPolicy(5*time.Minute, 1*time.Hour, DefaultCacheableTools, DefaultNeverCacheableTools)
}

// IsCacheable reports whether results for the named tool may be cached.
// The deny list takes precedence; names on neither list are not cacheable.
func (p Policy) IsCacheable(name string) bool {
	if name == "" {
		return false
	}
	if _, deny := p.denied[name]; deny {
		return false
	}
	_, ok := p.cacheable[name]
	return ok
}

// EffectiveTTL returns the TTL to use, applying the default and clamping.
func (p Policy) EffectiveTTL(override time.Duration) time.Duration {
	ttl := override
	if ttl <= 0 {
		ttl = p.DefaultTTL
	}
	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}
	return ttl
}

// policyFile is the on-disk YAML shape for a policy.
type policyFile struct {
	DefaultTTL     string   `yaml:"default_ttl"`
	MaxTTL         string   `yaml:"max_ttl"`
	Cacheable      []string `yaml:"cacheable"`
	NeverCacheable []string `yaml:"never_cacheable"`
}

// LoadPolicy reads a YAML policy file. Tool lists replace the built-in
// defaults entirely; omitted durations fall back to the defaults, so a file
// may declare only the lists. Durations use Go syntax ("30s", "5m").
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("cache: reading policy file: %w", err)
	}
	return ParsePolicy(data)
}

// ParsePolicy parses a YAML policy document.
func ParsePolicy(data []byte) (Policy, error) {
	var pf policyFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return Policy{}, fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}

	defaults := DefaultPolicy()

	defaultTTL, err := parseTTL(pf.DefaultTTL, defaults.DefaultTTL)
	if err != nil {
		return Policy{}, fmt.Errorf("%w: default_ttl: %v", ErrInvalidPolicy, err)
	}
	maxTTL, err := parseTTL(pf.MaxTTL, defaults.MaxTTL)
	if err != nil {
		return Policy{}, fmt.Errorf("%w: max_ttl: %v", ErrInvalidPolicy, err)
	}
	if defaultTTL <= 0 {
		return Policy{}, fmt.Errorf("%w: default_ttl must be positive", ErrInvalidPolicy)
	}

	return NewPolicy(defaultTTL, maxTTL, pf.Cacheable, pf.NeverCacheable), nil
}

func parseTTL(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	return time.ParseDuration(s)
}
