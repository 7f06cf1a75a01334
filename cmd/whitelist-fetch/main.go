// Command whitelist-fetch pages through the Arweave gateway and prints every
// wallet that sent the whitelist action, one address per line on stdout.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sternrassler/arweave-whitelist/internal/config"
	"github.com/Sternrassler/arweave-whitelist/pkg/arweave"
	"github.com/Sternrassler/arweave-whitelist/pkg/errs"
	"github.com/Sternrassler/arweave-whitelist/pkg/graphql"
	"github.com/Sternrassler/arweave-whitelist/pkg/logging"
	"github.com/Sternrassler/arweave-whitelist/pkg/metrics"
	"github.com/Sternrassler/arweave-whitelist/pkg/pagination"
	"github.com/Sternrassler/arweave-whitelist/pkg/ratelimit"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, cfg, os.Stdout))
}

// run fetches the full address list and writes it to out. It returns the
// process exit code: 0 when pagination ran to completion or hit a configured
// bound, 1 when it stopped on a failure (the partial list is still written).
func run(ctx context.Context, cfg config.Config, out io.Writer) int {
	logger := logging.NewLogger("whitelist-fetch")

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr); err != nil {
				logger.Warn().Err(err).Msg("Metrics server stopped")
			}
		}()
	}

	gqlCfg := graphql.DefaultConfig()
	gqlCfg.Endpoint = cfg.Endpoint
	gqlCfg.UserAgent = cfg.UserAgent
	gqlCfg.CacheTTL = cfg.CacheTTL

	if cfg.RedisURL != "" {
		redisClient := connectRedis(ctx, cfg.RedisURL, logger)
		if redisClient != nil {
			defer redisClient.Close()
			gqlCfg.Redis = redisClient
		}
	}

	client, err := graphql.New(gqlCfg)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create GraphQL client")
		return 1
	}

	fetcher, err := arweave.NewFetcher(client, arweave.WhitelistQuery())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create transactions fetcher")
		return 1
	}

	paginator := pagination.NewPaginator(fetcher, pagination.Config{
		Delay:    ratelimit.DefaultDelay,
		MaxPages: cfg.MaxPages,
		MaxItems: cfg.MaxItems,
	})

	rs, runErr := paginator.Collect(ctx)

	if err := writeAddresses(out, rs.Items); err != nil {
		logger.Error().Err(err).Msg("Failed to write addresses")
		return 1
	}

	if runErr != nil {
		logger.Error().
			Str("error_kind", string(errs.KindOf(runErr))).
			Int("addresses", len(rs.Items)).
			Err(runErr).
			Msg("Fetch stopped early, wrote partial address list")
		return 1
	}

	logger.Info().
		Int("addresses", len(rs.Items)).
		Int("pages", rs.Pages).
		Str("reason", string(rs.Reason)).
		Msg("All addresses fetched")
	return 0
}

// connectRedis returns a client for addr, or nil when Redis is unreachable;
// the cache is optional so the run continues without it.
func connectRedis(ctx context.Context, addr string, logger zerolog.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Str("redis", addr).Msg("Redis unavailable, response cache disabled")
		client.Close()
		return nil
	}

	logger.Info().Str("redis", addr).Msg("Response cache enabled")
	return client
}

func writeAddresses(w io.Writer, addrs []string) error {
	bw := bufio.NewWriter(w)
	for _, addr := range addrs {
		if _, err := fmt.Fprintln(bw, addr); err != nil {
			return err
		}
	}
	return bw.Flush()
}
