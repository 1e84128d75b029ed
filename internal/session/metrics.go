package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "browse_sessions_active",
		Help: "Number of open browse sessions",
	})

	sessionsEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "browse_sessions_evicted_total",
		Help: "Browse sessions closed after being idle",
	})
)
