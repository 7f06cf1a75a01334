// Package metrics exposes the Prometheus registry used by the whitelist tools.
// Collectors are defined in the packages that update them (graphql, cache,
// ratelimit, pagination) and registered via promauto.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Registry is the default Prometheus registry used by the whitelist tools.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler returns the HTTP handler that serves /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is done. It returns nil after a
// clean shutdown.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Serving metrics")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Metrics Documentation
//
// GraphQL Metrics (pkg/graphql):
//   - whitelist_graphql_requests_total{status} (Counter): Requests by HTTP status, "network_error" or "cached"
//   - whitelist_graphql_request_duration_seconds (Histogram): Request duration
//   - whitelist_graphql_errors_total{kind} (Counter): Failures by kind (http, response, network, unexpected)
//
// Cache Metrics (pkg/cache):
//   - whitelist_cache_hits_total (Counter): Response cache hits
//   - whitelist_cache_misses_total (Counter): Response cache misses
//   - whitelist_cache_errors_total{operation} (Counter): Cache operation errors
//
// Pacing Metrics (pkg/ratelimit):
//   - whitelist_pacer_waits_total (Counter): Inter-page delays
//   - whitelist_pacer_wait_seconds (Histogram): Time spent waiting
//
// Pagination Metrics (pkg/pagination):
//   - whitelist_pages_fetched_total (Counter): Pages fetched successfully
//   - whitelist_items_collected_total (Counter): Addresses appended to result sets
//   - whitelist_pagination_runs_total{reason} (Counter): Runs by stop reason
//
// Example Prometheus Queries:
//
//   # Failure rate by kind
//   rate(whitelist_graphql_errors_total[5m])
//
//   # Runs that ended early
//   whitelist_pagination_runs_total{reason=~"failed|cancelled"}
//
//   # P95 request latency
//   histogram_quantile(0.95, rate(whitelist_graphql_request_duration_seconds_bucket[5m]))
