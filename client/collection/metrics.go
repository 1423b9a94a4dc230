package collection

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recsys_client",
			Subsystem: "collection",
			Name:      "loads_total",
			Help:      "Collection fetches by outcome.",
		},
		[]string{"collection", "outcome"},
	)

	loadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "recsys_client",
			Subsystem: "collection",
			Name:      "load_duration_seconds",
			Help:      "Latency of collection fetches.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"collection"},
	)

	duplicatesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recsys_client",
			Subsystem: "collection",
			Name:      "duplicates_dropped_total",
			Help:      "Items dropped because their id already appeared earlier in the collection.",
		},
		[]string{"collection"},
	)
)
