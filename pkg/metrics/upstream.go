package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// UpstreamMetrics records backend call latency and failures.
type UpstreamMetrics struct {
	duration *prometheus.HistogramVec
	failure  *prometheus.CounterVec
	stale    *prometheus.CounterVec
}

// NewUpstreamMetrics registers the upstream metrics on the provided registerer.
func NewUpstreamMetrics(reg prometheus.Registerer) *UpstreamMetrics {
	if reg == nil {
		return &UpstreamMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_request_duration_seconds",
		Help:    "Duration of storefront API calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_request_failures_total",
		Help: "Failed storefront API calls by error code.",
	}, []string{"endpoint", "code"})
	stale := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_stale_responses_total",
		Help: "Fetch responses discarded because a newer fetch was issued.",
	}, []string{"resource"})
	reg.MustRegister(duration, failure, stale)
	return &UpstreamMetrics{
		duration: duration,
		failure:  failure,
		stale:    stale,
	}
}

// ObserveRequest records the duration of a call to the named endpoint.
func (m *UpstreamMetrics) ObserveRequest(endpoint string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(endpoint)).Observe(duration.Seconds())
}

// IncFailure increments the failure counter for the endpoint and error code.
func (m *UpstreamMetrics) IncFailure(endpoint, code string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(endpoint), normalizeLabel(code)).Inc()
}

// IncStaleResponse counts a discarded out-of-order response for resource.
func (m *UpstreamMetrics) IncStaleResponse(resource string) {
	if m == nil || m.stale == nil {
		return
	}
	m.stale.WithLabelValues(normalizeLabel(resource)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
