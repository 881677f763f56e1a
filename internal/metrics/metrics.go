// Package metrics defines the Prometheus collectors exported by chatsearch.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestsTotal counts HTTP requests by route pattern and status.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatsearch",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration observes HTTP request latency.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "chatsearch",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
		},
		[]string{"method", "route"},
	)

	// EmbeddingRequests counts calls to the embedding service.
	EmbeddingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatsearch",
			Subsystem: "embedding",
			Name:      "requests_total",
			Help:      "Total embedding service calls",
		},
		[]string{"status"},
	)

	// EmbeddingDuration observes embedding service latency.
	EmbeddingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "chatsearch",
			Subsystem: "embedding",
			Name:      "duration_seconds",
			Help:      "Embedding service call duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
	)

	// EmbeddingCacheHits counts embeddings served from the LRU cache.
	EmbeddingCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chatsearch",
			Subsystem: "embedding",
			Name:      "cache_hits_total",
			Help:      "Embeddings served from cache",
		},
	)

	// IndexRuns counts index operations by outcome.
	IndexRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatsearch",
			Subsystem: "index",
			Name:      "runs_total",
			Help:      "Total index operations",
		},
		[]string{"status"},
	)

	// IndexedMessages is the number of records written by the last successful index run.
	IndexedMessages = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "chatsearch",
			Subsystem: "index",
			Name:      "messages",
			Help:      "Messages in the current index",
		},
	)

	// SearchDuration observes end-to-end search latency including the query embedding.
	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "chatsearch",
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Search duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
	)

	// SearchResults observes how many results each search returned.
	SearchResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "chatsearch",
			Subsystem: "search",
			Name:      "results",
			Help:      "Number of results returned per search",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)
)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Status returns the label used for an operation outcome.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
