// Package metrics exposes the Prometheus metrics of the OpenMart client.
// Metrics are defined in their own packages (client, cache, ratelimit,
// pagination) via promauto and land in the default registry; this package
// serves them and documents the catalogue.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer all client metrics are registered with.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer Handler serves.
var Gatherer = prometheus.DefaultGatherer

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - openmart_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//     (status is also "cached", "rate_limited" or "network_error")
//   - openmart_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - openmart_errors_total{class} (Counter): Failed attempts by class (client, server, rate_limit, network, local)
//
// Retry Metrics (pkg/client):
//   - openmart_retries_total{error_class} (Counter): Retry attempts by error class
//   - openmart_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - openmart_retry_exhausted_total{error_class} (Counter): Requests that used up their retries
//
// Cache Metrics (pkg/cache):
//   - openmart_cache_hits_total{layer="redis"} (Counter): Cache hits by layer
//   - openmart_cache_misses_total (Counter): Cache misses
//   - openmart_cache_stores_total (Counter): Responses written to the cache
//   - openmart_cache_stored_bytes_total (Counter): Bytes written to the cache
//   - openmart_cache_errors_total{operation} (Counter): Cache operation errors
//
// Rate Limit Metrics (pkg/ratelimit):
//   - openmart_rate_limit_remaining (Gauge): Requests left in the current window
//   - openmart_rate_limit_blocks_total (Counter): Requests blocked with the quota exhausted
//   - openmart_rate_limit_throttles_total (Counter): Requests delayed with the quota low
//
// Pagination Metrics (pkg/pagination):
//   - openmart_pagination_pages_total{driver} (Counter): Pages fetched by driver (pager, all)
//   - openmart_pagination_items_total{driver} (Counter): Results fetched by driver
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(openmart_cache_hits_total[5m])) /
//   (sum(rate(openmart_cache_hits_total[5m])) + sum(rate(openmart_cache_misses_total[5m])))
//
//   # Quota running low
//   openmart_rate_limit_remaining < 10
//
//   # Error rate by class
//   sum by (class) (rate(openmart_errors_total[5m]))
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(openmart_request_duration_seconds_bucket[5m]))
//
//   # Average page size while paginating
//   rate(openmart_pagination_items_total[5m]) / rate(openmart_pagination_pages_total[5m])
