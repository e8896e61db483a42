package observe

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestMetrics_RecordLookupOutcomes(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")

	m, err := NewMetrics(meter)
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}

	ctx := context.Background()
	m.RecordLookup(ctx, "search", OutcomeHit)
	m.RecordLookup(ctx, "search", OutcomeHit)
	m.RecordLookup(ctx, "search", OutcomeMiss)
	m.RecordLookup(ctx, "write_file", OutcomeBypass)

	rm := collect(t, reader)
	found := findMetric(rm, "cache.lookups")
	if found == nil {
		t.Fatal("cache.lookups metric not found")
	}

	sum, ok := found.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", found.Data)
	}

	byOutcome := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key("cache.outcome")); ok {
			byOutcome[v.AsString()] += dp.Value
		}
	}

	if byOutcome["hit"] != 2 {
		t.Errorf("hit count = %d, want 2", byOutcome["hit"])
	}
	if byOutcome["miss"] != 1 {
		t.Errorf("miss count = %d, want 1", byOutcome["miss"])
	}
	if byOutcome["bypass"] != 1 {
		t.Errorf("bypass count = %d, want 1", byOutcome["bypass"])
	}
}

func TestMetrics_RecordExecution(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")

	m, err := NewMetrics(meter)
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}

	ctx := context.Background()
	m.RecordExecution(ctx, "search", 120*time.Millisecond, nil)
	m.RecordExecution(ctx, "search", 80*time.Millisecond, errors.New("boom"))

	rm := collect(t, reader)

	total := findMetric(rm, "tool.exec.total")
	if total == nil {
		t.Fatal("tool.exec.total metric not found")
	}
	if sum, ok := total.Data.(metricdata.Sum[int64]); !ok || len(sum.DataPoints) == 0 || sum.DataPoints[0].Value != 2 {
		t.Errorf("tool.exec.total = %+v, want 2", total.Data)
	}

	errCount := findMetric(rm, "tool.exec.errors")
	if errCount == nil {
		t.Fatal("tool.exec.errors metric not found")
	}
	if sum, ok := errCount.Data.(metricdata.Sum[int64]); !ok || len(sum.DataPoints) == 0 || sum.DataPoints[0].Value != 1 {
		t.Errorf("tool.exec.errors = %+v, want 1", errCount.Data)
	}

	hist := findMetric(rm, "tool.exec.duration_ms")
	if hist == nil {
		t.Fatal("tool.exec.duration_ms metric not found")
	}
	if h, ok := hist.Data.(metricdata.Histogram[float64]); !ok || len(h.DataPoints) == 0 || h.DataPoints[0].Count != 2 {
		t.Errorf("tool.exec.duration_ms = %+v, want 2 recordings", hist.Data)
	}
}

func TestRegisterCacheGauges(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")

	snap := CacheSnapshot{
		Hits:        10,
		Misses:      5,
		Evictions:   2,
		Expirations: 3,
		Entries:     7,
		MaxEntries:  100,
		HitRate:     10.0 / 15.0,
	}
	if err := RegisterCacheGauges(meter, func() CacheSnapshot { return snap }); err != nil {
		t.Fatalf("RegisterCacheGauges failed: %v", err)
	}

	rm := collect(t, reader)

	entries := findMetric(rm, "cache.entries")
	if entries == nil {
		t.Fatal("cache.entries metric not found")
	}
	if g, ok := entries.Data.(metricdata.Gauge[int64]); !ok || len(g.DataPoints) == 0 || g.DataPoints[0].Value != 7 {
		t.Errorf("cache.entries = %+v, want 7", entries.Data)
	}

	hitRate := findMetric(rm, "cache.hit_rate")
	if hitRate == nil {
		t.Fatal("cache.hit_rate metric not found")
	}
	if g, ok := hitRate.Data.(metricdata.Gauge[float64]); !ok || len(g.DataPoints) == 0 || g.DataPoints[0].Value != snap.HitRate {
		t.Errorf("cache.hit_rate = %+v, want %v", hitRate.Data, snap.HitRate)
	}

	evictions := findMetric(rm, "cache.evictions")
	if evictions == nil {
		t.Fatal("cache.evictions metric not found")
	}
	if s, ok := evictions.Data.(metricdata.Sum[int64]); !ok || len(s.DataPoints) == 0 || s.DataPoints[0].Value != 2 {
		t.Errorf("cache.evictions = %+v, want 2", evictions.Data)
	}
}

func TestNopMetrics(t *testing.T) {
	m := NopMetrics()
	ctx := context.Background()
	m.RecordLookup(ctx, "search", OutcomeHit)
	m.RecordExecution(ctx, "search", time.Millisecond, errors.New("x"))
}
