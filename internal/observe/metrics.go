// Package observe provides application-wide observability primitives for
// Voxlex: OpenTelemetry metrics, distributed tracing, structured logging,
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

// meterName is the instrumentation scope name used for all Voxlex metrics.
const meterName = "github.com/voxlex/voxlex"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// MatchDuration tracks single-query match latency.
	MatchDuration metric.Float64Histogram

	// RebuildDuration tracks index rebuild latency.
	RebuildDuration metric.Float64Histogram

	// MatchResults counts match outcomes. Use with attributes:
	//   attribute.String("type", ...), attribute.String("confidence", ...)
	MatchResults metric.Int64Counter

	// IndexRebuilds counts index rebuild attempts. Use with attribute:
	//   attribute.String("status", "ok"|"error")
	IndexRebuilds metric.Int64Counter

	// IndexEntries reports the entry count of the live index.
	IndexEntries metric.Int64Gauge

	// BatchItems counts processed batch items. Use with attribute:
	//   attribute.String("status", "matched"|"no_match"|"error")
	BatchItems metric.Int64Counter

	// FilterDecisions counts transcription filter decisions. Use with
	// attribute: attribute.String("decision", "kept"|"dropped")
	FilterDecisions metric.Int64Counter

	// HTTPRequestDuration tracks HTTP request processing time. Use with
	// attributes: attribute.String("method", ...),
	// attribute.String("route", ...), attribute.Int("status", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// matchBuckets defines histogram bucket boundaries (in seconds) for the match
// path. Matching is pure in-memory string work, so the interesting range sits
// well below typical RPC buckets.
var matchBuckets = []float64{
	0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1,
}

// rebuildBuckets defines histogram bucket boundaries (in seconds) for index
// rebuilds, which scale with dictionary size and may hit disk or the network.
var rebuildBuckets = []float64{
	0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.MatchDuration, err = m.Float64Histogram("voxlex.match.duration",
		metric.WithDescription("Latency of a single query match."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(matchBuckets...),
	); err != nil {
		return nil, err
	}
	if met.RebuildDuration, err = m.Float64Histogram("voxlex.index.rebuild.duration",
		metric.WithDescription("Latency of an index rebuild from the dictionary source."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(rebuildBuckets...),
	); err != nil {
		return nil, err
	}

	if met.MatchResults, err = m.Int64Counter("voxlex.match.results",
		metric.WithDescription("Total match results by match type and confidence."),
	); err != nil {
		return nil, err
	}
	if met.IndexRebuilds, err = m.Int64Counter("voxlex.index.rebuilds",
		metric.WithDescription("Total index rebuild attempts by status."),
	); err != nil {
		return nil, err
	}
	if met.BatchItems, err = m.Int64Counter("voxlex.batch.items",
		metric.WithDescription("Total batch items processed by status."),
	); err != nil {
		return nil, err
	}
	if met.FilterDecisions, err = m.Int64Counter("voxlex.filter.decisions",
		metric.WithDescription("Total transcription filter decisions."),
	); err != nil {
		return nil, err
	}

	if met.IndexEntries, err = m.Int64Gauge("voxlex.index.entries",
		metric.WithDescription("Entry count of the live index."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("voxlex.http.request.duration",
		metric.WithDescription("HTTP request latency by method, route and status."),
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

// RecordMatch records one completed match: its latency and the result counter
// keyed by match type and confidence.
func (m *Metrics) RecordMatch(ctx context.Context, matchType, confidence string, seconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("type", matchType),
		attribute.String("confidence", confidence),
	)
	m.MatchDuration.Record(ctx, seconds)
	m.MatchResults.Add(ctx, 1, attrs)
}

// RecordRebuild records one index rebuild attempt. On success entries is the
// new index size; failed rebuilds keep the previous gauge value.
func (m *Metrics) RecordRebuild(ctx context.Context, status string, entries int, seconds float64) {
	m.IndexRebuilds.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	m.RebuildDuration.Record(ctx, seconds)
	if status == "ok" {
		m.IndexEntries.Record(ctx, int64(entries))
	}
}

// RecordBatchItem records the outcome of one batch item.
func (m *Metrics) RecordBatchItem(ctx context.Context, status string) {
	m.BatchItems.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordFilterDecision records whether a transcription variation was kept.
func (m *Metrics) RecordFilterDecision(ctx context.Context, kept bool) {
	decision := "dropped"
	if kept {
		decision = "kept"
	}
	m.FilterDecisions.Add(ctx, 1, metric.WithAttributes(attribute.String("decision", decision)))
}
