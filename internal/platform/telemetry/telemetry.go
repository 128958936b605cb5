package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// ShutdownFunc releases telemetry resources.
type ShutdownFunc func(ctx context.Context) error

// Setup initializes OpenTelemetry with a Prometheus exporter.
// Returns a shutdown function that must be called on exit.
func Setup(ctx context.Context, serviceName string) (ShutdownFunc, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	return provider.Shutdown, nil
}

// MetricsHandler returns an http.Handler that serves Prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// AuthMetrics holds all OTel instruments for the provider.
type AuthMetrics struct {
	httpRequestsTotal       otelmetric.Int64Counter
	httpRequestDuration     otelmetric.Float64Histogram
	resolutionsTotal        otelmetric.Int64Counter
	callbackRequestsTotal   otelmetric.Int64Counter
	callbackDuration        otelmetric.Float64Histogram
	rateLimitDecisionsTotal otelmetric.Int64Counter
	sessionsTotal           otelmetric.Int64Counter
}

// NewAuthMetrics creates and registers all provider metrics.
func NewAuthMetrics() (*AuthMetrics, error) {
	meter := otel.Meter("authcallback")
	m := &AuthMetrics{}
	var err error

	latencyBuckets := otelmetric.WithExplicitBucketBoundaries(
		0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0,
	)

	if m.httpRequestsTotal, err = meter.Int64Counter("authcallback_http_requests_total",
		otelmetric.WithDescription("Total HTTP requests")); err != nil {
		return nil, fmt.Errorf("creating http_requests_total: %w", err)
	}
	if m.httpRequestDuration, err = meter.Float64Histogram("authcallback_http_request_duration_seconds",
		otelmetric.WithDescription("HTTP request duration"), latencyBuckets); err != nil {
		return nil, fmt.Errorf("creating http_request_duration: %w", err)
	}
	if m.resolutionsTotal, err = meter.Int64Counter("authcallback_resolutions_total",
		otelmetric.WithDescription("Total credential resolutions")); err != nil {
		return nil, fmt.Errorf("creating resolutions_total: %w", err)
	}
	if m.callbackRequestsTotal, err = meter.Int64Counter("authcallback_callback_requests_total",
		otelmetric.WithDescription("Total callback round-trips")); err != nil {
		return nil, fmt.Errorf("creating callback_requests_total: %w", err)
	}
	if m.callbackDuration, err = meter.Float64Histogram("authcallback_callback_duration_seconds",
		otelmetric.WithDescription("Callback round-trip duration"), latencyBuckets); err != nil {
		return nil, fmt.Errorf("creating callback_duration: %w", err)
	}
	if m.rateLimitDecisionsTotal, err = meter.Int64Counter("authcallback_ratelimit_decisions_total",
		otelmetric.WithDescription("Total rate limit decisions")); err != nil {
		return nil, fmt.Errorf("creating ratelimit_decisions_total: %w", err)
	}
	if m.sessionsTotal, err = meter.Int64Counter("authcallback_sessions_total",
		otelmetric.WithDescription("Total session lifecycle events")); err != nil {
		return nil, fmt.Errorf("creating sessions_total: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request metric.
func (m *AuthMetrics) RecordHTTPRequest(ctx context.Context, method, path string, status int, durationSec float64) {
	attrs := otelmetric.WithAttributes(
		methodAttr(method),
		pathAttr(path),
		statusAttr(status),
	)
	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, durationSec, attrs)
}

// RecordResolution records the outcome of one credential resolution.
// outcome is "record" or "none"; source is "mock", "callback" or "default".
func (m *AuthMetrics) RecordResolution(ctx context.Context, outcome, source string) {
	m.resolutionsTotal.Add(ctx, 1, otelmetric.WithAttributes(
		outcomeAttr(outcome),
		sourceAttr(source),
	))
}

// RecordCallbackRequest records one callback round-trip. result is
// "success", "rejected", "bad_response" or "transport_error".
func (m *AuthMetrics) RecordCallbackRequest(ctx context.Context, result string, durationSec float64) {
	attrs := otelmetric.WithAttributes(resultAttr(result))
	m.callbackRequestsTotal.Add(ctx, 1, attrs)
	m.callbackDuration.Record(ctx, durationSec, attrs)
}

// RecordRateLimitDecision records a rate limit decision.
func (m *AuthMetrics) RecordRateLimitDecision(ctx context.Context, result string) {
	m.rateLimitDecisionsTotal.Add(ctx, 1, otelmetric.WithAttributes(resultAttr(result)))
}

// RecordSession records a session lifecycle event ("opened" or "closed").
func (m *AuthMetrics) RecordSession(ctx context.Context, event string) {
	m.sessionsTotal.Add(ctx, 1, otelmetric.WithAttributes(eventAttr(event)))
}
