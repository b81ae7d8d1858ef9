package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
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

func sumFor(t *testing.T, rm metricdata.ResourceMetrics, name string, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	m := findMetric(rm, name)
	require.NotNil(t, m, name)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "%s is not an int64 sum", name)

	want := attribute.NewSet(attrs...)
	var total int64
	for _, dp := range sum.DataPoints {
		if dp.Attributes.Equals(&want) {
			total += dp.Value
		}
	}
	return total
}

func TestRecordOperation(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordOperation(ctx, "next_turn", time.Now(), nil)
	m.RecordOperation(ctx, "next_turn", time.Now(), nil)
	m.RecordOperation(ctx, "next_turn", time.Now(), errors.New("boom"))

	rm := collect(t, reader)
	assert.Equal(t, int64(2), sumFor(t, rm, "rpg_tracker.operations",
		attribute.String("operation", "next_turn"), attribute.String("status", "ok")))
	assert.Equal(t, int64(1), sumFor(t, rm, "rpg_tracker.operations",
		attribute.String("operation", "next_turn"), attribute.String("status", "error")))

	hist := findMetric(rm, "rpg_tracker.operation.duration")
	require.NotNil(t, hist)
	data, ok := hist.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, data.DataPoints, 1)
	assert.Equal(t, uint64(3), data.DataPoints[0].Count)
}

func TestCounters(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordTransition(ctx, "active")
	m.RecordPersistenceFailure(ctx, "combatant")
	m.RecordPersistenceFailure(ctx, "combatant")
	m.RecordLogEntry(ctx, "damage")
	m.ActiveEncounters.Add(ctx, 2)
	m.ActiveEncounters.Add(ctx, -1)

	rm := collect(t, reader)
	assert.Equal(t, int64(1), sumFor(t, rm, "rpg_tracker.encounter.transitions", attribute.String("state", "active")))
	assert.Equal(t, int64(2), sumFor(t, rm, "rpg_tracker.persistence.failures", attribute.String("kind", "combatant")))
	assert.Equal(t, int64(1), sumFor(t, rm, "rpg_tracker.log.entries", attribute.String("kind", "damage")))
	assert.Equal(t, int64(1), sumFor(t, rm, "rpg_tracker.encounters.active"))
}

func TestNoop(t *testing.T) {
	m := Noop()
	require.NotNil(t, m)
	assert.NotPanics(t, func() {
		m.RecordOperation(context.Background(), "start", time.Now(), nil)
	})
}
