package listing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	endpointListing = "listing"
	endpointSearch  = "search"

	outcomeSuccess   = "success"
	outcomeError     = "error"
	outcomeStale     = "stale"
	outcomeCancelled = "cancelled"
)

var (
	fetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_fetches_total",
			Help: "Catalog page fetches issued by listing sessions, by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	fetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "listing_fetch_duration_seconds",
			Help:    "Latency of catalog page fetches issued by listing sessions",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	staleResultsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "listing_stale_results_total",
			Help: "Fetch results discarded because their query context was superseded",
		},
	)

	searchesCommittedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "listing_searches_committed_total",
			Help: "Search queries committed after the debounce quiet period",
		},
	)
)
