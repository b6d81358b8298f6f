package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors on a private registry. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	aiAttempts       *prometheus.CounterVec
	competitorTiers  *prometheus.CounterVec
	keywordsPerRun   prometheus.Histogram
}

// NewMetrics registers every collector on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vendorseo_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vendorseo_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"method", "route"}),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vendorseo_upstream_requests_total",
			Help: "Outbound calls by upstream and outcome",
		}, []string{"upstream", "outcome"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vendorseo_upstream_duration_seconds",
			Help:    "Outbound call latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"upstream"}),
		aiAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vendorseo_ai_attempts_total",
			Help: "AI gateway attempts by model and outcome",
		}, []string{"model", "outcome"}),
		competitorTiers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vendorseo_competitor_tier_total",
			Help: "Competitor lookups by the tier that answered",
		}, []string{"tier"}),
		keywordsPerRun: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vendorseo_keywords_per_run",
			Help:    "Number of keywords produced per generation",
			Buckets: []float64{0, 1, 5, 10, 20, 30, 50},
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration,
		m.upstreamRequests, m.upstreamDuration,
		m.aiAttempts, m.competitorTiers, m.keywordsPerRun,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveHTTP(method, route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveUpstream records one outbound call. outcome is ok, error, status or open.
func (m *Metrics) ObserveUpstream(upstream, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(upstream, outcome).Inc()
	m.upstreamDuration.WithLabelValues(upstream).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveAIAttempt(model, outcome string) {
	if m == nil {
		return
	}
	m.aiAttempts.WithLabelValues(model, outcome).Inc()
}

func (m *Metrics) ObserveCompetitorTier(tier string) {
	if m == nil {
		return
	}
	m.competitorTiers.WithLabelValues(tier).Inc()
}

func (m *Metrics) ObserveKeywords(n int) {
	if m == nil {
		return
	}
	m.keywordsPerRun.Observe(float64(n))
}
