// Package telemetry records list activity as OpenTelemetry metrics.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/roach88/listsync/internal/list"
)

const instrumentationName = "github.com/roach88/listsync"

// Instrument names.
const (
	MetricApplied  = "listsync.events.applied"
	MetricRejected = "listsync.events.rejected"
	MetricDuration = "listsync.apply.duration"
)

// Metrics implements list.Recorder with OpenTelemetry instruments.
type Metrics struct {
	meter metric.Meter

	applied  metric.Int64Counter
	rejected metric.Int64Counter
	duration metric.Float64Histogram
}

var _ list.Recorder = (*Metrics)(nil)

// Option configures Metrics.
type Option func(*Metrics)

// WithMeterProvider sets a custom meter provider.
// The default is the global provider.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(m *Metrics) {
		m.meter = provider.Meter(instrumentationName)
	}
}

// New creates the instruments.
func New(opts ...Option) (*Metrics, error) {
	m := &Metrics{meter: otel.Meter(instrumentationName)}
	for _, opt := range opts {
		opt(m)
	}

	var err error
	m.applied, err = m.meter.Int64Counter(
		MetricApplied,
		metric.WithDescription("Number of events applied to a list"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	m.rejected, err = m.meter.Int64Counter(
		MetricRejected,
		metric.WithDescription("Number of events rejected by a list"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	m.duration, err = m.meter.Float64Histogram(
		MetricDuration,
		metric.WithDescription("Time to apply one event"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// EventApplied implements list.Recorder.
func (m *Metrics) EventApplied(kind list.Kind, d time.Duration) {
	ctx := context.Background()
	attrs := metric.WithAttributes(attribute.String("kind", kind.String()))
	m.applied.Add(ctx, 1, attrs)
	m.duration.Record(ctx, float64(d)/float64(time.Millisecond), attrs)
}

// EventRejected implements list.Recorder.
func (m *Metrics) EventRejected(kind list.Kind, code list.ErrorCode) {
	if code == "" {
		code = "ERROR"
	}
	m.rejected.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("kind", kind.String()),
		attribute.String("code", string(code)),
	))
}
