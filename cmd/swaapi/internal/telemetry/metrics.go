package telemetry

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Meter names.
const (
	MeterHTTP = "swaapi/http"
	MeterAuth = "swaapi/auth"
)

func meterProvider(provider metric.MeterProvider) metric.MeterProvider {
	if provider == nil {
		return otel.GetMeterProvider()
	}
	return provider
}

// ServerMetrics holds metric instruments for HTTP server telemetry.
// Initialize once at server startup and reuse throughout the application lifecycle.
type ServerMetrics struct {
	RequestCounter  metric.Int64Counter     // Total HTTP requests
	RequestDuration metric.Float64Histogram // HTTP request latency
	ErrorCounter    metric.Int64Counter     // Total HTTP errors (5xx)
}

// NewServerMetrics creates the HTTP instruments on provider, or on the
// global provider when provider is nil.
func NewServerMetrics(provider metric.MeterProvider) (*ServerMetrics, error) {
	meter := meterProvider(provider).Meter(MeterHTTP)

	requestCounter, err := meter.Int64Counter(
		"http.server.request.count",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	// Handlers are CPU-bound and sub-millisecond; buckets start well below 1ms.
	requestDuration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100),
	)
	if err != nil {
		return nil, err
	}

	errorCounter, err := meter.Int64Counter(
		"http.server.error.count",
		metric.WithDescription("Total number of HTTP server errors (5xx)"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &ServerMetrics{
		RequestCounter:  requestCounter,
		RequestDuration: requestDuration,
		ErrorCounter:    errorCounter,
	}, nil
}

// RecordRequest records an HTTP request with method, route, status, and duration.
func (m *ServerMetrics) RecordRequest(ctx context.Context, method, route string, status int, durationMs float64) {
	attrs := metric.WithAttributes(
		attribute.String(AttrHTTPMethod, method),
		attribute.String(AttrHTTPRoute, route),
		attribute.String(AttrHTTPStatusCode, strconv.Itoa(status)),
	)

	m.RequestCounter.Add(ctx, 1, attrs)
	m.RequestDuration.Record(ctx, durationMs, attrs)

	if status >= 500 {
		m.ErrorCounter.Add(ctx, 1, attrs)
	}
}

// Principal resolution outcomes.
const (
	AuthOutcomePresent   = "present"
	AuthOutcomeAbsent    = "absent"
	AuthOutcomeMalformed = "malformed"
	AuthOutcomeError     = "error"
)

// AuthMetrics holds metric instruments for principal resolution.
type AuthMetrics struct {
	Resolutions metric.Int64Counter
	Duration    metric.Float64Histogram
}

// NewAuthMetrics creates the principal resolution instruments on provider,
// or on the global provider when provider is nil.
func NewAuthMetrics(provider metric.MeterProvider) (*AuthMetrics, error) {
	meter := meterProvider(provider).Meter(MeterAuth)

	resolutions, err := meter.Int64Counter(
		"auth.resolution.count",
		metric.WithDescription("Principal resolutions by outcome"),
		metric.WithUnit("{resolution}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"auth.resolution.duration",
		metric.WithDescription("Principal resolution duration"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1, 2.5, 5),
	)
	if err != nil {
		return nil, err
	}

	return &AuthMetrics{Resolutions: resolutions, Duration: duration}, nil
}

// RecordResolution records one principal resolution. A nil receiver is a no-op.
func (a *AuthMetrics) RecordResolution(ctx context.Context, method, outcome string, durationMs float64) {
	if a == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(AttrAuthMethod, method),
		attribute.String(AttrAuthOutcome, outcome),
	)
	a.Resolutions.Add(ctx, 1, attrs)
	a.Duration.Record(ctx, durationMs, attrs)
}

// Metric attribute keys
const (
	AttrHTTPMethod     = "http.method"
	AttrHTTPRoute      = "http.route"
	AttrHTTPStatusCode = "http.status_code"
	AttrAuthMethod     = "auth.method"
)
