package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics. A nil *Metrics records nothing.
type Metrics struct {
	RequestCounter     metric.Int64Counter
	RequestDuration    metric.Float64Histogram
	Redirects          metric.Int64Counter
	LoginEvents        metric.Int64Counter
	Submissions        metric.Int64Counter
	SubmissionDuration metric.Float64Histogram
	NameLookups        metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("liff-gateway")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	redirects, err := meter.Int64Counter(
		"liff.redirects.total",
		metric.WithDescription("Redirect flow outcomes by page"),
	)
	if err != nil {
		return nil, err
	}

	loginEvents, err := meter.Int64Counter(
		"liff.login.events",
		metric.WithDescription("LINE login redirects and callbacks"),
	)
	if err != nil {
		return nil, err
	}

	submissions, err := meter.Int64Counter(
		"relay.submissions.total",
		metric.WithDescription("Form submissions relayed to the remote endpoint"),
	)
	if err != nil {
		return nil, err
	}

	submissionDuration, err := meter.Float64Histogram(
		"relay.submission.duration",
		metric.WithDescription("Remote endpoint round trip in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	nameLookups, err := meter.Int64Counter(
		"lookup.actual_name.total",
		metric.WithDescription("Actual-name lookups by source"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:     requestCounter,
		RequestDuration:    requestDuration,
		Redirects:          redirects,
		LoginEvents:        loginEvents,
		Submissions:        submissions,
		SubmissionDuration: submissionDuration,
		NameLookups:        nameLookups,
	}, nil
}

// RecordRequest records HTTP request metrics
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	}

	m.RequestCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.RequestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordRedirect records the outcome of the redirect flow: navigated,
// in_client, debug, not_found or wait.
func (m *Metrics) RecordRedirect(page, outcome string) {
	if m == nil {
		return
	}
	m.Redirects.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("liff.page", page),
		attribute.String("liff.outcome", outcome),
	))
}

func (m *Metrics) RecordLoginEvent(event string) {
	if m == nil {
		return
	}
	m.LoginEvents.Add(context.Background(), 1, metric.WithAttributes(attribute.String("liff.event", event)))
}

func (m *Metrics) RecordSubmission(action, outcome string, duration float64) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("relay.action", action),
		attribute.String("relay.outcome", outcome),
	}
	m.Submissions.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.SubmissionDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordNameLookup records where an actual name came from: cache, remote,
// fallback.
func (m *Metrics) RecordNameLookup(source string) {
	if m == nil {
		return
	}
	m.NameLookups.Add(context.Background(), 1, metric.WithAttributes(attribute.String("lookup.source", source)))
}
