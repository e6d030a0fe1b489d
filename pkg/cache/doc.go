// Package cache provides a Redis-backed response cache for OpenMart searches.
//
// Search requests are POSTs, so HTTP caching does not apply. Instead the
// cache is keyed by endpoint, a hash of the caller's API key and a SHA-256
// of the encoded request body.
// The body includes limit and cursor, so each page of a paginated walk is
// cached separately and replaying a saved cursor hits the same entry.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.Key{
//		Endpoint: "/api/v1/search",
//		Scope:    apiKey,
//		Body:     body,
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the API, then:
//		_ = manager.Set(ctx, key, cache.NewEntry(data, 5*time.Minute))
//	}
//
// The client wires this in through client.Config.Cache and CacheTTL.
//
// # Metrics
//
//   - openmart_cache_hits_total{layer="redis"}
//   - openmart_cache_misses_total
//   - openmart_cache_stores_total
//   - openmart_cache_stored_bytes_total
//   - openmart_cache_errors_total{operation}
package cache
