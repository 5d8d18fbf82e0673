package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AuthMetrics holds the Prometheus instruments for the authentication layer.
// A nil *AuthMetrics is valid and records nothing.
type AuthMetrics struct {
	registry *prometheus.Registry

	resolutions        *prometheus.CounterVec
	rejections         *prometheus.CounterVec
	subscriptionLookup *prometheus.CounterVec
	subscriptionCache  *prometheus.CounterVec
	resolveDuration    prometheus.Histogram
}

// NewAuthMetrics registers the auth instruments on a fresh registry together
// with the Go runtime and process collectors.
func NewAuthMetrics() *AuthMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &AuthMetrics{
		registry: reg,
		resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "marketapi_auth_resolutions_total",
			Help: "Sessions resolved, by resolution tier",
		}, []string{"origin"}),
		rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "marketapi_auth_rejections_total",
			Help: "Requests rejected by the authentication gate",
		}, []string{"response", "reason"}),
		subscriptionLookup: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "marketapi_subscription_lookups_total",
			Help: "Worker subscription lookups, by resulting status",
		}, []string{"status"}),
		subscriptionCache: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "marketapi_subscription_cache_total",
			Help: "Subscription cache hits and misses",
		}, []string{"result"}),
		resolveDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "marketapi_auth_resolve_duration_seconds",
			Help:    "Session resolution latency",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *AuthMetrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *AuthMetrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordResolution counts a successful session resolution.
func (m *AuthMetrics) RecordResolution(origin string, seconds float64) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(origin).Inc()
	m.resolveDuration.Observe(seconds)
}

// RecordRejection counts a rejected request. response is "json" or "redirect".
func (m *AuthMetrics) RecordRejection(response, reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(response, reason).Inc()
}

// RecordSubscriptionLookup counts a subscription gate decision.
func (m *AuthMetrics) RecordSubscriptionLookup(status string) {
	if m == nil {
		return
	}
	m.subscriptionLookup.WithLabelValues(status).Inc()
}

// RecordSubscriptionCache counts a cache lookup. hit reports whether a cached status was used.
func (m *AuthMetrics) RecordSubscriptionCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.subscriptionCache.WithLabelValues(result).Inc()
}
