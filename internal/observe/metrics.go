// Package observe provides application-wide observability primitives for
// Ordervox: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Ordervox metrics.
const meterName = "github.com/ordervox/ordervox"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// TurnDuration tracks end-to-end dialogue turn processing latency.
	TurnDuration metric.Float64Histogram

	// StoreDuration tracks session store round-trip latency. Use with
	// attribute: attribute.String("op", ...)
	StoreDuration metric.Float64Histogram

	// ResponderDuration tracks speech-responder rephrase latency.
	ResponderDuration metric.Float64Histogram

	// --- Counters ---

	// Turns counts processed dialogue turns. Use with attributes:
	//   attribute.String("state", ...), attribute.String("outcome", ...)
	Turns metric.Int64Counter

	// Escalations counts calls abandoned after repeated failed turns.
	Escalations metric.Int64Counter

	// OrdersConfirmed counts finalized orders. Use with attribute:
	//   attribute.String("fulfillment", ...)
	OrdersConfirmed metric.Int64Counter

	// SaveConflicts counts optimistic-lock conflicts on session save.
	SaveConflicts metric.Int64Counter

	// --- Error counters ---

	// ResponderErrors counts responder failures and timeouts that fell back
	// to the scripted prompt.
	ResponderErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveCalls tracks the number of calls with an in-progress session.
	ActiveCalls metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// webhook turn latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.TurnDuration, err = m.Float64Histogram("ordervox.turn.duration",
		metric.WithDescription("End-to-end latency of one dialogue turn."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.StoreDuration, err = m.Float64Histogram("ordervox.store.duration",
		metric.WithDescription("Session store round-trip latency by operation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ResponderDuration, err = m.Float64Histogram("ordervox.responder.duration",
		metric.WithDescription("Latency of speech-responder rephrasing."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.Turns, err = m.Int64Counter("ordervox.turns",
		metric.WithDescription("Total dialogue turns by entry state and outcome."),
	); err != nil {
		return nil, err
	}
	if met.Escalations, err = m.Int64Counter("ordervox.escalations",
		metric.WithDescription("Total calls abandoned after repeated failed turns."),
	); err != nil {
		return nil, err
	}
	if met.OrdersConfirmed, err = m.Int64Counter("ordervox.orders.confirmed",
		metric.WithDescription("Total finalized orders by fulfillment type."),
	); err != nil {
		return nil, err
	}
	if met.SaveConflicts, err = m.Int64Counter("ordervox.save.conflicts",
		metric.WithDescription("Total optimistic-lock conflicts on session save."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.ResponderErrors, err = m.Int64Counter("ordervox.responder.errors",
		metric.WithDescription("Total responder failures that fell back to the scripted prompt."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveCalls, err = m.Int64UpDownCounter("ordervox.active_calls",
		metric.WithDescription("Number of calls with an in-progress session."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("ordervox.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordTurn records a processed dialogue turn with the standard attribute
// set. state is the session's state on entry; outcome is one of "continue",
// "clarify", "confirmed", "cancelled", "escalated".
func (m *Metrics) RecordTurn(ctx context.Context, state, outcome string) {
	m.Turns.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("state", state),
			attribute.String("outcome", outcome),
		),
	)
}

// RecordOrderConfirmed records one finalized order.
func (m *Metrics) RecordOrderConfirmed(ctx context.Context, fulfillment string) {
	m.OrdersConfirmed.Add(ctx, 1,
		metric.WithAttributes(attribute.String("fulfillment", fulfillment)),
	)
}

// RecordResponderError records one responder failure or timeout.
func (m *Metrics) RecordResponderError(ctx context.Context, reason string) {
	m.ResponderErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("reason", reason)),
	)
}
