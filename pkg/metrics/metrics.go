package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records login attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authgate_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// Signups counts account registrations by result (success|failure).
	Signups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authgate_signups_total",
			Help: "Total number of signup attempts",
		},
		[]string{"result"},
	)

	// EmailsDispatched counts outbound notification emails by kind and result.
	EmailsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authgate_emails_dispatched_total",
			Help: "Total number of notification emails dispatched",
		},
		[]string{"kind", "result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "authgate_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
