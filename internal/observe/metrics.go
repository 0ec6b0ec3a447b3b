// Package observe holds the OpenTelemetry instruments for the recognition
// pipeline and the Prometheus exporter bridge that serves them on /metrics.
//
// Tests should build a [Metrics] with [NewMetrics] over their own
// [metric.MeterProvider]; [DefaultMetrics] uses the global provider.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/ayusman/mudra"

// Metrics holds the metric instruments for the application. All fields are
// safe for concurrent use.
type Metrics struct {
	// Frames counts landmark frames delivered to sessions. Attribute "hand"
	// is "present" or "absent".
	Frames metric.Int64Counter

	// Classifications counts classifier invocations by resulting sign,
	// "unknown" included.
	Classifications metric.Int64Counter

	// ClassificationDuration tracks feature extraction plus rule matching.
	ClassificationDuration metric.Float64Histogram

	// SessionsFinalized counts finalized sessions. Attribute "outcome" is
	// "signs" or "fallback".
	SessionsFinalized metric.Int64Counter

	// ActiveSessions tracks sessions held by the server.
	ActiveSessions metric.Int64UpDownCounter
}

// Classification runs in microseconds; keep the buckets tight.
var classifyBuckets = []float64{
	0.00001, 0.000025, 0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.005, 0.01,
}

// NewMetrics creates a [Metrics] from mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Frames, err = m.Int64Counter("mudra.frames",
		metric.WithDescription("Landmark frames received by hand presence."),
	); err != nil {
		return nil, err
	}
	if met.Classifications, err = m.Int64Counter("mudra.classifications",
		metric.WithDescription("Classifier invocations by resulting sign."),
	); err != nil {
		return nil, err
	}
	if met.ClassificationDuration, err = m.Float64Histogram("mudra.classification.duration",
		metric.WithDescription("Latency of feature extraction and rule matching."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(classifyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SessionsFinalized, err = m.Int64Counter("mudra.sessions.finalized",
		metric.WithDescription("Finalized sessions by transcript outcome."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("mudra.sessions.active",
		metric.WithDescription("Number of sessions currently held."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics], created on first call
// from [otel.GetMeterProvider].
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

// RecordFrame counts one frame.
func (m *Metrics) RecordFrame(ctx context.Context, handPresent bool) {
	hand := "absent"
	if handPresent {
		hand = "present"
	}
	m.Frames.Add(ctx, 1, metric.WithAttributes(attribute.String("hand", hand)))
}

// RecordClassification counts one classifier invocation and its latency.
func (m *Metrics) RecordClassification(ctx context.Context, sign string, elapsed time.Duration) {
	m.Classifications.Add(ctx, 1, metric.WithAttributes(attribute.String("sign", sign)))
	m.ClassificationDuration.Record(ctx, elapsed.Seconds())
}

// RecordFinalized counts one finalized session.
func (m *Metrics) RecordFinalized(ctx context.Context, fallback bool) {
	outcome := "signs"
	if fallback {
		outcome = "fallback"
	}
	m.SessionsFinalized.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
