package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

var _ http.RoundTripper = (*Transport)(nil)

// Transport traces each backend request as a client span, propagates the trace
// context in the request headers and records request metrics. It uses the
// global providers, which are no-ops until Init configures an exporter.
type Transport struct {
	next http.RoundTripper
}

// NewTransport wraps next (http.DefaultTransport when nil).
func NewTransport(next http.RoundTripper) *Transport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Transport{next: next}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	started := time.Now()

	ctx, span := otel.Tracer(instrumentationName).Start(req.Context(),
		fmt.Sprintf("%s %s", req.Method, req.URL.Path),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.path", req.URL.Path),
			attribute.String("server.address", req.URL.Host),
		),
	)
	defer span.End()

	req = req.Clone(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	m := GetMetrics()
	attrs := []attribute.KeyValue{
		attribute.String("http.request.method", req.Method),
		attribute.String("url.path", req.URL.Path),
	}

	resp, err := t.next.RoundTrip(req)

	m.RequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.RequestDuration.Record(ctx, float64(time.Since(started).Milliseconds()), metric.WithAttributes(attrs...))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.RequestErrorsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
		return resp, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		m.UnauthorizedTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	case resp.StatusCode >= 500:
		span.SetStatus(codes.Error, resp.Status)
		m.RequestErrorsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	}

	return resp, nil
}
