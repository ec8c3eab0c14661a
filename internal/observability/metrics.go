package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTP transport.
var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hybridqa_http_requests_total",
			Help: "Total number of HTTP requests by route and status.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hybridqa_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route"},
	)
	httpResponseSizeBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hybridqa_http_response_size_bytes",
			Help:    "HTTP response body size by route.",
			Buckets: prometheus.ExponentialBuckets(128, 4, 8),
		},
		[]string{"method", "route"},
	)
	httpRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hybridqa_http_requests_in_flight",
			Help: "HTTP requests currently being served.",
		},
	)
)

// Query pipeline.
var (
	queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hybridqa_queries_total",
			Help: "Processed natural-language queries by classified type and cache status.",
		},
		[]string{"query_type", "cache_status"},
	)
	queryDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hybridqa_query_duration_seconds",
			Help:    "End-to-end latency of uncached query processing.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"query_type"},
	)
	schemaDiscoveryFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hybridqa_schema_discovery_failures_total",
			Help: "Schema discovery failures.",
		},
	)
	sqlFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hybridqa_sql_failures_total",
			Help: "SQL generation and execution failures by stage and kind.",
		},
		[]string{"stage", "kind"},
	)
	retrievalEmptyTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hybridqa_retrieval_empty_total",
			Help: "Document lookups that returned no passage.",
		},
	)
	answerExtractionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hybridqa_answer_extractions_total",
			Help: "Answer extractions over retrieved passages by outcome.",
		},
		[]string{"status"},
	)
	resultCacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hybridqa_result_cache_entries",
			Help: "Cached query records.",
		},
	)
)

// Documents.
var (
	documentsIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hybridqa_documents_ingested_total",
			Help: "Uploaded documents by outcome.",
		},
		[]string{"outcome"},
	)
	indexedChunks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hybridqa_indexed_chunks",
			Help: "Chunks currently held by the document index.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDurationSeconds,
		httpResponseSizeBytes,
		httpRequestsInFlight,
		queriesTotal,
		queryDurationSeconds,
		schemaDiscoveryFailuresTotal,
		sqlFailuresTotal,
		retrievalEmptyTotal,
		answerExtractionsTotal,
		resultCacheEntries,
		documentsIngestedTotal,
		indexedChunks,
	)
}

// ObserveQuery counts a processed query. Latency is only recorded for cache
// misses since hits never touch the pipeline.
func ObserveQuery(queryType, cacheStatus string, elapsed time.Duration) {
	queriesTotal.WithLabelValues(queryType, cacheStatus).Inc()
	if cacheStatus == "miss" {
		queryDurationSeconds.WithLabelValues(queryType).Observe(elapsed.Seconds())
	}
}

func IncrementSchemaDiscoveryFailure() {
	schemaDiscoveryFailuresTotal.Inc()
}

func IncrementSQLGenerationFailure(kind string) {
	sqlFailuresTotal.WithLabelValues("generate", kind).Inc()
}

func IncrementSQLExecutionFailure(kind string) {
	sqlFailuresTotal.WithLabelValues("execute", kind).Inc()
}

func IncrementRetrievalEmpty() {
	retrievalEmptyTotal.Inc()
}

func ObserveAnswerExtraction(status string) {
	answerExtractionsTotal.WithLabelValues(status).Inc()
}

func SetResultCacheEntries(count int) {
	resultCacheEntries.Set(float64(count))
}

func ObserveDocumentsIngested(succeeded, failed int) {
	if succeeded > 0 {
		documentsIngestedTotal.WithLabelValues("indexed").Add(float64(succeeded))
	}
	if failed > 0 {
		documentsIngestedTotal.WithLabelValues("failed").Add(float64(failed))
	}
}

func SetIndexedChunks(count int) {
	indexedChunks.Set(float64(max(count, 0)))
}
