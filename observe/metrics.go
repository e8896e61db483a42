package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcome classifies a cache lookup.
type Outcome string

const (
	// OutcomeHit means a fresh cached result was returned.
	OutcomeHit Outcome = "hit"
	// OutcomeMiss means no usable cached result existed.
	OutcomeMiss Outcome = "miss"
	// OutcomeBypass means the cache was not consulted (non-cacheable tool
	// or key derivation failure).
	OutcomeBypass Outcome = "bypass"
)

// Metrics records cache lookups and tool executions.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic; recording is best-effort.
type Metrics interface {
	// RecordLookup records a cache lookup and its outcome.
	RecordLookup(ctx context.Context, tool string, outcome Outcome)

	// RecordExecution records a real tool execution with duration and
	// error status. Cache hits are not executions.
	RecordExecution(ctx context.Context, tool string, duration time.Duration, err error)
}

// otelMetrics is the OpenTelemetry-backed Metrics implementation.
type otelMetrics struct {
	lookups      metric.Int64Counter
	execTotal    metric.Int64Counter
	execErrors   metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates a Metrics instance recording through the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	lookups, err := meter.Int64Counter(
		"cache.lookups",
		metric.WithDescription("Cache lookups by outcome"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	execTotal, err := meter.Int64Counter(
		"tool.exec.total",
		metric.WithDescription("Real tool executions (cache misses and bypasses)"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	execErrors, err := meter.Int64Counter(
		"tool.exec.errors",
		metric.WithDescription("Failed tool executions"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"tool.exec.duration_ms",
		metric.WithDescription("Tool execution duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		lookups:      lookups,
		execTotal:    execTotal,
		execErrors:   execErrors,
		durationHist: durationHist,
	}, nil
}

// RecordLookup records one cache lookup with its outcome attribute.
func (m *otelMetrics) RecordLookup(ctx context.Context, tool string, outcome Outcome) {
	m.lookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool.name", tool),
		attribute.String("cache.outcome", string(outcome)),
	))
}

// RecordExecution records one real tool execution.
func (m *otelMetrics) RecordExecution(ctx context.Context, tool string, duration time.Duration, err error) {
	opt := metric.WithAttributes(attribute.String("tool.name", tool))

	m.execTotal.Add(ctx, 1, opt)
	if err != nil {
		m.execErrors.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

// nopMetrics is a Metrics implementation that does nothing.
type nopMetrics struct{}

// NopMetrics returns a Metrics implementation that discards everything.
func NopMetrics() Metrics {
	return nopMetrics{}
}

func (nopMetrics) RecordLookup(ctx context.Context, tool string, outcome Outcome) {}
func (nopMetrics) RecordExecution(ctx context.Context, tool string, duration time.Duration, err error) {
}

// CacheSnapshot carries cache counters for gauge registration. It mirrors
// the cache package's Stats without importing it, keeping this package free
// of a dependency on the store.
type CacheSnapshot struct {
	Hits        int64
	Misses      int64
	Evictions   int64
	Expirations int64
	Entries     int64
	MaxEntries  int64
	HitRate     float64
}

// RegisterCacheGauges registers observable instruments that report the
// cache's counters on every metrics collection, via the snapshot callback.
func RegisterCacheGauges(meter metric.Meter, snapshot func() CacheSnapshot) error {
	entries, err := meter.Int64ObservableGauge(
		"cache.entries",
		metric.WithDescription("Entries currently resident in the cache"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return err
	}

	hitRate, err := meter.Float64ObservableGauge(
		"cache.hit_rate",
		metric.WithDescription("Hits divided by total lookups, 0 before any lookup"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	evictions, err := meter.Int64ObservableCounter(
		"cache.evictions",
		metric.WithDescription("Entries removed to stay within capacity"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return err
	}

	expirations, err := meter.Int64ObservableCounter(
		"cache.expirations",
		metric.WithDescription("Entries removed after their TTL passed"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return err
	}

	_, err = meter.RegisterCallback(
		func(_ context.Context, o metric.Observer) error {
			s := snapshot()
			o.ObserveInt64(entries, s.Entries)
			o.ObserveFloat64(hitRate, s.HitRate)
			o.ObserveInt64(evictions, s.Evictions)
			o.ObserveInt64(expirations, s.Expirations)
			return nil
		},
		entries, hitRate, evictions, expirations,
	)
	return err
}
