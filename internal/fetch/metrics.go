package fetch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var fetchTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "browse_fetch_total",
		Help: "Catalog fetches by kind (results, facets) and outcome (ok, error, stale)",
	},
	[]string{"kind", "outcome"},
)

const (
	kindResults = "results"
	kindFacets  = "facets"
)
