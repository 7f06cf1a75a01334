// Package cache provides an opt-in Redis cache for GraphQL response bodies.
//
// Entries are keyed by the endpoint and a SHA-256 digest of the request body,
// so each (query document, cursor) pair maps to exactly one key. Only
// successful responses without a GraphQL "errors" field are stored, and every
// entry carries a TTL after which Redis evicts it.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	manager := cache.NewManager(redisClient)
//	key := cache.NewKey("https://arweave.net/graphql", body)
//
//	entry, err := manager.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// fetch from the endpoint, then:
//		_ = manager.Set(ctx, key, cache.NewEntry(respBody, 200, 5*time.Minute))
//	}
//
// # Metrics
//
//   - whitelist_cache_hits_total - Cache hits
//   - whitelist_cache_misses_total - Cache misses
//   - whitelist_cache_errors_total{operation} - Cache operation errors
//
// The cache never stores the accumulated address list, only individual
// page responses.
package cache
