package proxy

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/toolcache/cache"
	"github.com/jonwraymond/toolcache/observe"
)

// ExecutorFunc is the function signature for executing a real tool call.
type ExecutorFunc func(ctx context.Context, tool string, args map[string]any) ([]byte, error)

// Invoker wraps tool execution with result caching.
//
// Contract:
// - Concurrency: safe for concurrent use; identical concurrent misses are
//   collapsed into one execution.
// - Errors: executor errors are propagated unchanged and never cached.
// - Ownership: returned byte slices are private to the caller.
type Invoker struct {
	cache   cache.Cache
	policy  cache.Policy
	keyer   cache.Keyer
	tracer  observe.Tracer
	metrics observe.Metrics
	logger  observe.Logger
	group   singleflight.Group
}

// Options carries optional telemetry for an Invoker. Nil fields fall back
// to no-op implementations.
type Options struct {
	Tracer  observe.Tracer
	Metrics observe.Metrics
	Logger  observe.Logger
}

// NewInvoker creates an Invoker in front of the given cache. The policy
// should be the same one the cache was built with, so both layers agree on
// what is cacheable.
func NewInvoker(c cache.Cache, policy cache.Policy, opts Options) *Invoker {
	if opts.Tracer == nil {
		opts.Tracer = observe.NopTracer()
	}
	if opts.Metrics == nil {
		opts.Metrics = observe.NopMetrics()
	}
	if opts.Logger == nil {
		opts.Logger = observe.NopLogger()
	}
	return &Invoker{
		cache:   c,
		policy:  policy,
		keyer:   cache.NewDefaultKeyer(),
		tracer:  opts.Tracer,
		metrics: opts.Metrics,
		logger:  opts.Logger,
	}
}

// Execute runs a tool call through the cache.
//
// Non-cacheable tools execute directly, every time. For cacheable tools a
// fresh cached result is returned without executing; on a miss the real
// operation runs and its result is stored on success. A key derivation
// failure degrades to a plain execution with no store.
func (in *Invoker) Execute(ctx context.Context, tool string, args map[string]any, exec ExecutorFunc) ([]byte, error) {
	ctx, span := in.tracer.StartSpan(ctx, tool)
	result, err := in.execute(ctx, tool, args, exec)
	in.tracer.EndSpan(span, err)
	return result, err
}

func (in *Invoker) execute(ctx context.Context, tool string, args map[string]any, exec ExecutorFunc) ([]byte, error) {
	if !in.policy.IsCacheable(tool) {
		in.metrics.RecordLookup(ctx, tool, observe.OutcomeBypass)
		return in.run(ctx, tool, args, exec)
	}

	key, err := in.keyer.Key(tool, args)
	if err != nil {
		// Forced miss: execute without touching the cache.
		in.metrics.RecordLookup(ctx, tool, observe.OutcomeBypass)
		in.logger.Warn(ctx, "cache key derivation failed, executing uncached",
			observe.Field{Key: "tool.name", Value: tool},
			observe.Field{Key: "error", Value: err.Error()},
		)
		return in.run(ctx, tool, args, exec)
	}

	if cached, ok := in.cache.Get(ctx, tool, args); ok {
		in.metrics.RecordLookup(ctx, tool, observe.OutcomeHit)
		in.logger.Debug(ctx, "cache hit",
			observe.Field{Key: "tool.name", Value: tool},
		)
		return cached, nil
	}

	in.metrics.RecordLookup(ctx, tool, observe.OutcomeMiss)

	// Collapse concurrent identical misses into one execution. The store
	// happens inside the flight so every waiter observes a warm cache.
	v, err, _ := in.group.Do(key, func() (any, error) {
		result, err := in.run(ctx, tool, args, exec)
		if err != nil {
			return nil, err
		}
		if err := in.cache.Set(ctx, tool, args, result, 0); err != nil {
			in.logger.Warn(ctx, "failed to store result",
				observe.Field{Key: "tool.name", Value: tool},
				observe.Field{Key: "error", Value: err.Error()},
			)
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}

	// Flights share one slice between waiters; hand out copies.
	shared := v.([]byte)
	result := make([]byte, len(shared))
	copy(result, shared)
	return result, nil
}

// run executes the real operation and records its timing.
func (in *Invoker) run(ctx context.Context, tool string, args map[string]any, exec ExecutorFunc) ([]byte, error) {
	start := time.Now()
	result, err := exec(ctx, tool, args)
	in.metrics.RecordExecution(ctx, tool, time.Since(start), err)
	if err != nil {
		in.logger.Debug(ctx, "tool execution failed",
			observe.Field{Key: "tool.name", Value: tool},
			observe.Field{Key: "error", Value: err.Error()},
		)
	}
	return result, err
}
