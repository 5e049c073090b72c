package persist

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// StoreMetrics records slot reads and writes through the global otel meter
// provider. Without a configured provider the instruments are no-ops.
type StoreMetrics struct {
	backend  string
	total    metric.Int64Counter
	errors   metric.Int64Counter
	latency  metric.Float64Histogram
	payloads metric.Int64Histogram
}

func NewStoreMetrics(backend string) *StoreMetrics {
	meter := otel.Meter("sessioncal/persist")

	total, _ := meter.Int64Counter("kv.op.total")
	errs, _ := meter.Int64Counter("kv.op.errors.total")
	latency, _ := meter.Float64Histogram("kv.op.duration.ms")
	payloads, _ := meter.Int64Histogram("kv.op.payload.bytes")

	return &StoreMetrics{backend: backend, total: total, errors: errs, latency: latency, payloads: payloads}
}

// Observe records one operation on slot. size is the payload length, or a
// negative number when unknown.
func (m *StoreMetrics) Observe(ctx context.Context, op, slot string, start time.Time, size int, err error) {
	attrs := metric.WithAttributes(
		attribute.String("kv.backend", m.backend),
		attribute.String("kv.operation", op),
		attribute.String("kv.slot", slot),
	)

	m.total.Add(ctx, 1, attrs)
	m.latency.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)
	if size >= 0 {
		m.payloads.Record(ctx, int64(size), attrs)
	}
	if err != nil {
		m.errors.Add(ctx, 1, attrs)
	}
}
