// Package metrics holds the Prometheus collectors shared by the fetch
// engine, the search pipeline, and the HTTP API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchTotal counts source fetches by outcome ("ok", "transport_error").
	FetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scout",
		Name:      "fetch_total",
		Help:      "Source fetches by outcome.",
	}, []string{"outcome"})

	// FetchDuration observes single fetch latency.
	FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "scout",
		Name:      "fetch_duration_seconds",
		Help:      "Latency of single source fetches.",
		Buckets:   prometheus.DefBuckets,
	})

	// CompletionTotal counts completion calls by call site and outcome.
	CompletionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scout",
		Name:      "completion_total",
		Help:      "Text-completion calls by call site and outcome.",
	}, []string{"site", "outcome"})

	// SourcesTotal counts processed sources by final snapshot status.
	SourcesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scout",
		Name:      "sources_total",
		Help:      "Processed sources by snapshot status.",
	}, []string{"status"})

	// SearchDuration observes end-to-end search latency.
	SearchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "scout",
		Name:      "search_duration_seconds",
		Help:      "End-to-end latency of search calls.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 90},
	}, []string{"outcome"})

	// HTTPRequests counts API requests by route and status code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scout",
		Name:      "http_requests_total",
		Help:      "API requests by route and status code.",
	}, []string{"route", "code"})
)

// Outcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)
