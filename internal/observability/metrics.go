// Package observability provides metrics collectors and OpenTelemetry tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DatabaseQueryLatency records database query latency in seconds.
	DatabaseQueryLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "glimpse_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// CacheRequests counts cache-aside lookups by result (hit, miss, bypass).
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "glimpse_cache_requests_total",
		Help: "Total cache-aside lookups by result",
	}, []string{"result"})

	// StorageOperations counts blob store operations by operation and result.
	StorageOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "glimpse_storage_operations_total",
		Help: "Total file storage operations by operation and result",
	}, []string{"operation", "result"})
)

// ObserveQuery records the latency of a database query.
func ObserveQuery(elapsed time.Duration) {
	DatabaseQueryLatency.Observe(elapsed.Seconds())
}

// RecordCacheResult increments the cache lookup counter for the given result.
func RecordCacheResult(result string) {
	CacheRequests.WithLabelValues(result).Inc()
}

// RecordStorageOp increments the storage operation counter.
func RecordStorageOp(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	StorageOperations.WithLabelValues(operation, result).Inc()
}
