package mutation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recsys_client",
			Subsystem: "mutation",
			Name:      "settled_total",
			Help:      "Preference mutations by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	rollbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "recsys_client",
			Subsystem: "mutation",
			Name:      "rollbacks_total",
			Help:      "Optimistic values reverted after a rejected mutation.",
		},
	)

	pendingGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "recsys_client",
			Subsystem: "mutation",
			Name:      "pending",
			Help:      "Mutations accepted but not yet settled.",
		},
	)
)

func kindLabel(target int8) string {
	if target == 0 {
		return "clear"
	}
	return "set"
}
