// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

// Package metrics provides Prometheus instrumentation for GridWatch:
// authentication outcomes, upstream fetch latency, circuit breaker state,
// change detection, notification delivery, and monitoring cycle health.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Authentication metrics

	AuthExchanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ons_auth_exchanges_total",
			Help: "Total number of credential exchanges against the ONS API",
		},
		[]string{"result"}, // "success", "failure", "timeout"
	)

	AuthFallbackActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ons_auth_fallback_active",
			Help: "1 when the session manager is handing out fallback tokens",
		},
	)

	AuthCooldownActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ons_auth_cooldown_active",
			Help: "1 when authentication attempts are blocked by cooldown",
		},
	)

	// Upstream fetch metrics

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ons_fetch_duration_seconds",
			Help:    "Duration of intervention fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"}, // "upstream", "fallback"
	)

	FetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ons_fetch_errors_total",
			Help: "Total number of intervention fetch failures",
		},
		[]string{"error_type"}, // "transient", "auth", "data"
	)

	// Circuit breaker metrics

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through the circuit breaker",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	// Change detection metrics

	ChangesDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interventions_changes_total",
			Help: "Total number of intervention changes detected",
		},
		[]string{"kind"}, // "novo", "alterado", "removido"
	)

	SnapshotSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "interventions_snapshot_size",
			Help: "Number of interventions in the current snapshot",
		},
	)

	// Notification metrics

	NotificationsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of notifications delivered successfully",
		},
	)

	NotificationsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_failed_total",
			Help: "Total number of notification delivery attempts that failed",
		},
	)

	NotificationsDeadLettered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_dead_lettered_total",
			Help: "Total number of notifications moved to the dead-letter store",
		},
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notification_queue_depth",
			Help: "Current number of notifications waiting in the queue",
		},
	)

	// Monitoring cycle metrics

	MonitorCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monitor_cycles_total",
			Help: "Total number of monitoring cycle outcomes",
		},
		[]string{"result"}, // "ok", "skipped_window", "skipped_in_progress", "error"
	)

	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "monitor_cycle_duration_seconds",
			Help:    "Duration of complete monitoring cycles in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	// Database metrics

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation"},
	)

	// API metrics

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)
)

// ObserveDBQuery records the duration and outcome of a database operation.
func ObserveDBQuery(operation string, start time.Time, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// ObserveAPIRequest records one served API request.
func ObserveAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
