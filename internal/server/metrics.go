package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Search outcomes recorded in searchRequests.
const (
	outcomeHit        = "hit"
	outcomeMiss       = "miss"
	outcomeBadRequest = "bad_request"
)

var (
	// searchRequests counts /search queries.
	// Labels: outcome (hit, miss, bad_request)
	searchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docindex",
		Subsystem: "search",
		Name:      "requests_total",
		Help:      "Total search requests by outcome",
	}, []string{"outcome"})

	searchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "docindex",
		Subsystem: "search",
		Name:      "duration_seconds",
		Help:      "Search query latency in seconds",
		Buckets:   []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
	})

	indexEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "docindex",
		Subsystem: "index",
		Name:      "entries",
		Help:      "Entries in the currently served index",
	})

	indexReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docindex",
		Subsystem: "index",
		Name:      "reloads_total",
		Help:      "Index reload attempts by status",
	}, []string{"status"})
)
