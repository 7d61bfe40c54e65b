package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	upstreamRequests *prometheus.CounterVec
	rateLimitDenied  *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	postsIngested    *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	latency          *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		upstreamRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentipulse_upstream_requests_total",
				Help: "Total outbound upstream requests by service and result",
			},
			[]string{"service", "result"},
		),
		rateLimitDenied: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentipulse_ratelimit_denied_total",
				Help: "Total admissions denied by the rate limiter",
			},
			[]string{"service"},
		),
		cacheLookups: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentipulse_cache_lookups_total",
				Help: "Cache lookups by cache name and outcome",
			},
			[]string{"cache", "outcome"},
		),
		postsIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentipulse_posts_ingested_total",
				Help: "Normalized posts ingested by source",
			},
			[]string{"source"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentipulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sentipulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordUpstreamRequest records an outbound request outcome.
func (r *Recorder) RecordUpstreamRequest(service, result string) {
	r.upstreamRequests.WithLabelValues(service, result).Inc()
}

// RecordRateLimitDenied records an admission denial.
func (r *Recorder) RecordRateLimitDenied(service string) {
	r.rateLimitDenied.WithLabelValues(service).Inc()
}

// RecordCacheLookup records a cache hit or miss.
func (r *Recorder) RecordCacheLookup(cache string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	r.cacheLookups.WithLabelValues(cache, outcome).Inc()
}

// RecordPostsIngested records how many normalized posts a source produced.
func (r *Recorder) RecordPostsIngested(source string, n int) {
	r.postsIngested.WithLabelValues(source).Add(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
