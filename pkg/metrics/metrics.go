package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planvera_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// AuthzDecisions counts authorization evaluations and their outcome (allowed|denied|error).
	AuthzDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planvera_authz_decisions_total",
			Help: "Total number of authorization decisions",
		},
		[]string{"action", "result"},
	)

	// ScopeFallbacks counts default-project fallback resolutions, tagged by
	// tenant and program so remaining callers can be tracked down before the
	// fallback path is retired.
	ScopeFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planvera_scope_fallbacks_total",
			Help: "Total number of scope resolutions that used the default-project fallback",
		},
		[]string{"tenant", "program"},
	)

	// ScopeResolutionErrors counts failed scope resolutions by error kind.
	ScopeResolutionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planvera_scope_resolution_errors_total",
			Help: "Total number of failed scope resolutions",
		},
		[]string{"kind"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "planvera_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
