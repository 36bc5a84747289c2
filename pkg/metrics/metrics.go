// Package metrics holds the process's prometheus collectors at
// package scope, following the teacher's convention of exported
// package-level metric variables (e.g. DatabaseConnectionsGauge,
// RateLimitHitsTotal) rather than a metrics-service interface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts every request the security middleware
	// let through to a handler, by service, method, path and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_http_requests_total",
		Help: "Total HTTP requests handled, by service/method/path/status.",
	}, []string{"service", "method", "path", "status"})

	// HTTPRequestDuration tracks handler latency.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "attendance_http_request_duration_seconds",
		Help:    "HTTP handler latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"service", "method", "path"})

	// SecurityRejectionsTotal counts requests rejected by the security
	// middleware before reaching a handler (spec §4.1).
	SecurityRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_security_rejections_total",
		Help: "Requests rejected by the security middleware, by reason.",
	}, []string{"service", "reason"})

	// RateLimitHitsTotal counts requests rejected by rate limiting.
	RateLimitHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_rate_limit_hits_total",
		Help: "Requests rejected by rate limiting, by limited-by reason.",
	}, []string{"limited_by"})

	// DeviceReachableGauge reflects the device state machine from spec
	// §4.2 (1 = reachable, 0 = unreachable/unknown).
	DeviceReachableGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "attendance_device_reachable",
		Help: "Whether a device was reachable on last use (1) or not (0).",
	}, []string{"device"})

	// DeviceOperationDuration tracks device I/O latency per operation.
	DeviceOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "attendance_device_operation_duration_seconds",
		Help:    "Device adapter operation latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"device", "operation", "outcome"})

	// CircuitBreakerStateGauge reflects per-Location breaker state: 0
	// closed, 1 half-open, 2 open.
	CircuitBreakerStateGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "attendance_circuit_breaker_state",
		Help: "Per-Location circuit breaker state (0=closed,1=half-open,2=open).",
	}, []string{"location_id"})

	// FanoutLatency tracks the Gateway's end-to-end fan-out duration.
	FanoutLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "attendance_fanout_duration_seconds",
		Help:    "Gateway fan-out latency in seconds, by outcome.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	// TokenCacheRefreshesTotal counts downstream token mints by the
	// Gateway's per-Location token cache.
	TokenCacheRefreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_token_cache_refreshes_total",
		Help: "Downstream token mints, by location and trigger.",
	}, []string{"location_id", "trigger"})
)
