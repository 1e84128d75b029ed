package suggest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	suggestRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "browse_suggest_total",
			Help: "Suggestion lookups by source (primary, fallback) and outcome (ok, error)",
		},
		[]string{"source", "outcome"},
	)

	suggestStaleDiscards = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "browse_suggest_stale_discards_total",
			Help: "Suggestion responses dropped because newer text superseded them",
		},
	)

	suggestFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "browse_suggest_fallback_total",
			Help: "Suggestion lookups that fell back to the product listing",
		},
	)
)
