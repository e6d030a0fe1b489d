package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by layer (redis)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openmart_cache_hits_total",
			Help: "Total number of OpenMart response cache hits",
		},
		[]string{"layer"}, // "redis"
	)

	// CacheMisses tracks cache misses
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "openmart_cache_misses_total",
			Help: "Total number of OpenMart response cache misses",
		},
	)

	// CacheStores tracks entries written
	CacheStores = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "openmart_cache_stores_total",
			Help: "Total number of responses written to the cache",
		},
	)

	// CacheStoredBytes tracks bytes written
	CacheStoredBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "openmart_cache_stored_bytes_total",
			Help: "Total bytes of responses written to the cache",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openmart_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete", "scan"
	)
)
