package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for an agent service. Each process
// owns a private registry so tests can create instances freely without
// duplicate-registration panics.
type Metrics struct {
	// Question metrics
	questionsTotal *prometheus.CounterVec
	matchDuration  *prometheus.HistogramVec
	fallbacksTotal *prometheus.CounterVec

	// Token metrics
	tokensIssued prometheus.Counter
	authFailures prometheus.Counter

	// Orchestrator delegation metrics
	delegationsTotal *prometheus.CounterVec

	// Rule reload metrics
	ruleReloads *prometheus.CounterVec

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewMetrics creates a metrics instance with all agent metrics registered.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		questionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agente_questions_total",
				Help: "Total number of questions answered by domain and outcome",
			},
			[]string{"dominio", "outcome"},
		),

		matchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agente_match_duration_seconds",
				Help:    "Rule matching latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"dominio"},
		),

		fallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agente_fallbacks_total",
				Help: "Total number of questions answered with the fallback response",
			},
			[]string{"dominio"},
		),

		tokensIssued: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "agente_tokens_issued_total",
				Help: "Total number of access tokens issued",
			},
		),

		authFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "agente_auth_failures_total",
				Help: "Total number of requests rejected for a missing or invalid token",
			},
		),

		delegationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agente_delegations_total",
				Help: "Total number of orchestrator delegations by target domain and status",
			},
			[]string{"dominio", "status"},
		),

		ruleReloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agente_rule_reloads_total",
				Help: "Total number of rule table reload attempts by status",
			},
			[]string{"status"},
		),

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agente_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agente_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		registry: registry,
	}

	registry.MustRegister(
		m.questionsTotal,
		m.matchDuration,
		m.fallbacksTotal,
		m.tokensIssued,
		m.authFailures,
		m.delegationsTotal,
		m.ruleReloads,
		m.httpRequestsTotal,
		m.httpRequestDuration,
	)

	return m
}

// RecordQuestion records an answered question for a domain. Fallback answers
// are counted separately on top of the per-outcome counter.
func (m *Metrics) RecordQuestion(dominio string, fallback bool, duration time.Duration) {
	outcome := "matched"
	if fallback {
		outcome = "fallback"
		m.fallbacksTotal.WithLabelValues(dominio).Inc()
	}
	m.questionsTotal.WithLabelValues(dominio, outcome).Inc()
	m.matchDuration.WithLabelValues(dominio).Observe(duration.Seconds())
}

// RecordTokenIssued records an issued access token.
func (m *Metrics) RecordTokenIssued() {
	m.tokensIssued.Inc()
}

// RecordAuthFailure records a rejected bearer token.
func (m *Metrics) RecordAuthFailure() {
	m.authFailures.Inc()
}

// RecordDelegation records an orchestrator delegation attempt.
func (m *Metrics) RecordDelegation(dominio, status string) {
	m.delegationsTotal.WithLabelValues(dominio, status).Inc()
}

// RecordRuleReload records a rule table reload attempt.
func (m *Metrics) RecordRuleReload(status string) {
	m.ruleReloads.WithLabelValues(status).Inc()
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// Handler returns the Prometheus metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware creates HTTP middleware that records request metrics.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		m.RecordHTTPRequest(r.Method, r.URL.Path, strconv.Itoa(wrapped.statusCode), time.Since(start))
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
