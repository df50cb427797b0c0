package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec
	httpErrorsTotal    *prometheus.CounterVec

	assignmentsCreatedTotal      *prometheus.CounterVec
	evaluationsRecordedTotal     prometheus.Counter
	reconcileActionsTotal        *prometheus.CounterVec
	notificationsDispatchedTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the
// evaluation API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		assignmentsCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evaluation_assignments_created_total",
			Help: "Total number of evaluation assignments created, by submission mode.",
		}, []string{"mode"})

		evaluationsRecordedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "evaluations_recorded_total",
			Help: "Total number of score sheets recorded by evaluators.",
		})

		reconcileActionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reconcile_actions_total",
			Help: "Total number of reconciliation outcomes, by action taken.",
		}, []string{"action"})

		notificationsDispatchedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_dispatched_total",
			Help: "Total number of notifications dispatched, by kind.",
		}, []string{"kind"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			assignmentsCreatedTotal,
			evaluationsRecordedTotal,
			reconcileActionsTotal,
			notificationsDispatchedTotal,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// AssignmentsCreated exposes the counter for created assignments.
func AssignmentsCreated() *prometheus.CounterVec {
	RegisterMetrics()
	return assignmentsCreatedTotal
}

// EvaluationsRecorded exposes the counter for recorded score sheets.
func EvaluationsRecorded() prometheus.Counter {
	RegisterMetrics()
	return evaluationsRecordedTotal
}

// ReconcileActions exposes the counter for reconciliation outcomes.
func ReconcileActions() *prometheus.CounterVec {
	RegisterMetrics()
	return reconcileActionsTotal
}

// NotificationsDispatched exposes the counter for dispatched notifications.
func NotificationsDispatched() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsDispatchedTotal
}
