package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the service.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	gateDecisions   *prometheus.CounterVec
	resolveFailures prometheus.Counter
	feedDropped     prometheus.Counter
	broadcastRows   *prometheus.CounterVec
}

// NewMetrics initialises the registry and the service collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "octabox_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "octabox_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "octabox_gate_decisions_total",
		Help: "Admin authorization gate decisions by outcome and reason.",
	}, []string{"outcome", "reason"})
	resolveFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "octabox_session_resolve_failures_total",
		Help: "Identity provider failures folded into a missing session.",
	})
	feedDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "octabox_session_events_dropped_total",
		Help: "Session change events dropped because the subscriber lagged.",
	})
	broadcastRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "octabox_notifications_sent_total",
		Help: "Notification rows written by broadcasts, by category.",
	}, []string{"category"})
	registry.MustRegister(requests, duration, decisions, resolveFailures, feedDropped, broadcastRows)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		gateDecisions:   decisions,
		resolveFailures: resolveFailures,
		feedDropped:     feedDropped,
		broadcastRows:   broadcastRows,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveGateDecision counts one authorization decision.
func (m *Metrics) ObserveGateDecision(allowed bool, reason string) {
	if m == nil {
		return
	}
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	m.gateDecisions.WithLabelValues(outcome, reason).Inc()
}

// ResolveFailed counts a provider failure during session resolution.
func (m *Metrics) ResolveFailed() {
	if m == nil {
		return
	}
	m.resolveFailures.Inc()
}

// SessionEventDropped counts an event discarded by a full session feed.
func (m *Metrics) SessionEventDropped() {
	if m == nil {
		return
	}
	m.feedDropped.Inc()
}

// NotificationsSent adds n written rows for category.
func (m *Metrics) NotificationsSent(category string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.broadcastRows.WithLabelValues(category).Add(float64(n))
}

// Registerer exposes the registry for additional collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
