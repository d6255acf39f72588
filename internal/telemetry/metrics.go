package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	instrumentationName = "github.com/wolfeidau/aitutor"
)

// Metrics holds the OpenTelemetry metric instruments
type Metrics struct {
	// API client metrics
	RequestsTotal      metric.Int64Counter
	RequestErrorsTotal metric.Int64Counter
	RequestDuration    metric.Float64Histogram
	UnauthorizedTotal  metric.Int64Counter

	// Tutor metrics
	ExchangesTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(instrumentationName)

	m := &Metrics{}

	m.RequestsTotal, _ = meter.Int64Counter(
		"aitutor.client.requests.total",
		metric.WithDescription("Total number of requests sent to the backend"),
		metric.WithUnit("{request}"),
	)

	m.RequestErrorsTotal, _ = meter.Int64Counter(
		"aitutor.client.requests.errors.total",
		metric.WithDescription("Total number of requests that failed to complete or returned 5xx"),
		metric.WithUnit("{error}"),
	)

	m.RequestDuration, _ = meter.Float64Histogram(
		"aitutor.client.requests.duration",
		metric.WithDescription("Duration of backend requests"),
		metric.WithUnit("ms"),
	)

	m.UnauthorizedTotal, _ = meter.Int64Counter(
		"aitutor.client.unauthorized.total",
		metric.WithDescription("Total number of 401 responses"),
		metric.WithUnit("{response}"),
	)

	m.ExchangesTotal, _ = meter.Int64Counter(
		"aitutor.tutor.exchanges.total",
		metric.WithDescription("Total number of answers recorded in the history"),
		metric.WithUnit("{exchange}"),
	)

	return m
}
