package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "recsys_client",
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open).",
		},
		[]string{"name"},
	)

	breakerRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recsys_client",
			Name:      "circuit_breaker_rejected_total",
			Help:      "Requests refused while the circuit was open.",
		},
		[]string{"name"},
	)

	rateLimitWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "recsys_client",
			Name:      "rate_limit_wait_seconds",
			Help:      "Time requests spent waiting for the rate limiter.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)
)
