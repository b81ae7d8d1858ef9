// Package metrics holds the OpenTelemetry instruments of the combat tracker.
//
// Instruments are created from a [metric.MeterProvider] so tests can read
// them back through an sdk ManualReader. [NewPrometheusProvider] builds the
// provider the server scrapes on /metrics.
package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "github.com/KirkDiggler/rpg-tracker"

// Metrics holds the instruments. The OTel types handle their own locking.
type Metrics struct {
	// Operations counts encounter operations. Attributes: operation, status.
	Operations metric.Int64Counter

	// OperationDuration tracks in-memory mutation plus persistence time.
	// Attribute: operation.
	OperationDuration metric.Float64Histogram

	// Transitions counts encounter state changes. Attribute: state.
	Transitions metric.Int64Counter

	// PersistenceFailures counts records a store refused. Attribute: kind.
	PersistenceFailures metric.Int64Counter

	// LogEntries counts appended log entries. Attribute: kind.
	LogEntries metric.Int64Counter

	// ActiveEncounters tracks encounters loaded in memory.
	ActiveEncounters metric.Int64UpDownCounter
}

var durationBuckets = []float64{
	0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1,
}

// NewMetrics creates every instrument from mp
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Operations, err = m.Int64Counter("rpg_tracker.operations",
		metric.WithDescription("Encounter operations by name and status."),
	); err != nil {
		return nil, err
	}
	if met.OperationDuration, err = m.Float64Histogram("rpg_tracker.operation.duration",
		metric.WithDescription("Latency of encounter operations including persistence."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Transitions, err = m.Int64Counter("rpg_tracker.encounter.transitions",
		metric.WithDescription("Encounter state transitions by target state."),
	); err != nil {
		return nil, err
	}
	if met.PersistenceFailures, err = m.Int64Counter("rpg_tracker.persistence.failures",
		metric.WithDescription("Records the store failed to save or delete."),
	); err != nil {
		return nil, err
	}
	if met.LogEntries, err = m.Int64Counter("rpg_tracker.log.entries",
		metric.WithDescription("Combat log entries appended by kind."),
	); err != nil {
		return nil, err
	}
	if met.ActiveEncounters, err = m.Int64UpDownCounter("rpg_tracker.encounters.active",
		metric.WithDescription("Encounters held in memory."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// Noop returns instruments that record nothing
func Noop() *Metrics {
	met, err := NewMetrics(noop.NewMeterProvider())
	if err != nil {
		// the noop provider never fails
		panic(err)
	}
	return met
}

// RecordOperation counts one operation and its duration
func (m *Metrics) RecordOperation(ctx context.Context, operation string, started time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.Operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
	m.OperationDuration.Record(ctx, time.Since(started).Seconds(),
		metric.WithAttributes(attribute.String("operation", operation)))
}

// RecordTransition counts a move into state
func (m *Metrics) RecordTransition(ctx context.Context, state string) {
	m.Transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("state", state)))
}

// RecordPersistenceFailure counts a record the store refused
func (m *Metrics) RecordPersistenceFailure(ctx context.Context, kind string) {
	m.PersistenceFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordLogEntry counts an appended entry
func (m *Metrics) RecordLogEntry(ctx context.Context, kind string) {
	m.LogEntries.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// NewPrometheusProvider builds a MeterProvider whose readings are served by
// the default prometheus registry. Call shutdown on exit.
func NewPrometheusProvider() (mp *sdkmetric.MeterProvider, shutdown func(context.Context) error, err error) {
	exporter, err := promexporter.New()
	if err != nil {
		return nil, nil, err
	}
	mp = sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	return mp, mp.Shutdown, nil
}
