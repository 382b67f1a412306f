// Package metrics defines Prometheus metrics for the dashboard gateway.
//
// All metrics live on a private registry served by Handler, so nothing the
// Go client registers globally leaks onto the endpoint by accident.
//
// Metric naming follows Prometheus conventions:
//   - dashboard_ prefix for all custom metrics
//   - _total suffix for counters
//   - _seconds suffix for duration histograms
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var Registry = prometheus.NewRegistry()

var (
	// GuardDecisionsTotal counts route guard outcomes by state and reason.
	GuardDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_guard_decisions_total",
			Help: "Route guard decisions by state and reason.",
		},
		[]string{"state", "reason"},
	)

	// EdgeDecisionsTotal counts edge check outcomes by state and reason.
	EdgeDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_edge_decisions_total",
			Help: "Cookie-only edge check decisions by state and reason.",
		},
		[]string{"state", "reason"},
	)

	// LoginsTotal counts login attempts by outcome.
	LoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_logins_total",
			Help: "Login attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// RefreshesTotal counts token refresh attempts by outcome.
	RefreshesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_token_refreshes_total",
			Help: "Token refresh attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// RequestDurationSeconds is a histogram of handled request durations by route.
	RequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dashboard_request_duration_seconds",
			Help:    "Duration of handled requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "code"},
	)

	// SessionsRemovedTotal counts sessions deleted by the periodic cleanup.
	SessionsRemovedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_sessions_removed_total",
			Help: "Stale sessions deleted by cleanup.",
		},
	)
)

func init() {
	Registry.MustRegister(
		GuardDecisionsTotal,
		EdgeDecisionsTotal,
		LoginsTotal,
		RefreshesTotal,
		RequestDurationSeconds,
		SessionsRemovedTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

func RecordGuardDecision(state, reason string) {
	GuardDecisionsTotal.WithLabelValues(state, reason).Inc()
}

func RecordEdgeDecision(state, reason string) {
	EdgeDecisionsTotal.WithLabelValues(state, reason).Inc()
}

// RecordLogin records a login outcome: success, invalid_credentials or error.
func RecordLogin(outcome string) {
	LoginsTotal.WithLabelValues(outcome).Inc()
}

// RecordRefresh records a refresh outcome: success, stale or error.
func RecordRefresh(outcome string) {
	RefreshesTotal.WithLabelValues(outcome).Inc()
}

func RecordRequest(route string, code int, d time.Duration) {
	RequestDurationSeconds.WithLabelValues(route, strconv.Itoa(code)).Observe(d.Seconds())
}

func RecordSessionsRemoved(n int) {
	SessionsRemovedTotal.Add(float64(n))
}
