// Package metrics defines the Prometheus metric collectors used across the
// discovery engine and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the discovery engine.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	SearchQueriesTotal  *prometheus.CounterVec
	SearchLatency       *prometheus.HistogramVec
	SearchResultsCount  prometheus.Histogram
	RecommendationsTotal *prometheus.CounterVec
	RecommendLatency    prometheus.Histogram

	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	EngineBuildsTotal   *prometheus.CounterVec
	EngineBuildDuration prometheus.Histogram
	SnapshotPosts       prometheus.Gauge
	SnapshotTerms       prometheus.Gauge
	SnapshotGraphNodes  prometheus.Gauge
	SnapshotGraphEdges  prometheus.Gauge
	SnapshotClusters    prometheus.Gauge
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_queries_total",
				Help: "Total search queries by result type (ok, zero_result, invalid, error).",
			},
			[]string{"result_type"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "search_latency_seconds",
				Help:    "Search query latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"cache_status"},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "search_results_count",
				Help:    "Number of results returned per search query.",
				Buckets: []float64{0, 1, 5, 10, 25, 50},
			},
		),
		RecommendationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recommendations_total",
				Help: "Total recommendation requests by outcome (ok, not_found, error).",
			},
			[]string{"outcome"},
		),
		RecommendLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "recommendation_latency_seconds",
				Help:    "Recommendation request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of result cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of result cache misses.",
			},
		),
		EngineBuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "engine_builds_total",
				Help: "Total engine build attempts by status (ok, failed, rejected).",
			},
			[]string{"status"},
		),
		EngineBuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "engine_build_duration_seconds",
				Help:    "Duration of full snapshot builds in seconds.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		SnapshotPosts: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "snapshot_posts",
				Help: "Number of posts in the active snapshot.",
			},
		),
		SnapshotTerms: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "snapshot_index_terms",
				Help: "Number of distinct terms in the active search index.",
			},
		),
		SnapshotGraphNodes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "snapshot_graph_nodes",
				Help: "Number of entity nodes in the active knowledge graph.",
			},
		),
		SnapshotGraphEdges: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "snapshot_graph_edges",
				Help: "Number of co-occurrence edges in the active knowledge graph.",
			},
		),
		SnapshotClusters: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "snapshot_topic_clusters",
				Help: "Number of topic clusters in the active snapshot.",
			},
		),
	}

	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.RecommendationsTotal,
		m.RecommendLatency,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.EngineBuildsTotal,
		m.EngineBuildDuration,
		m.SnapshotPosts,
		m.SnapshotTerms,
		m.SnapshotGraphNodes,
		m.SnapshotGraphEdges,
		m.SnapshotClusters,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
