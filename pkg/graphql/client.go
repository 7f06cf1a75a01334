// Package graphql provides the HTTP transport for GraphQL queries with typed
// failure classification, optional response caching, and metrics.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/Sternrassler/arweave-whitelist/pkg/cache"
	"github.com/Sternrassler/arweave-whitelist/pkg/errs"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultEndpoint is the Arweave gateway GraphQL endpoint.
	DefaultEndpoint = "https://arweave.net/graphql"

	// DefaultTimeout bounds a single request including reading the body.
	DefaultTimeout = 30 * time.Second

	// DefaultCacheTTL applies when a Redis client is configured without a TTL.
	DefaultCacheTTL = 5 * time.Minute

	maxBodyBytes   = 32 << 20
	maxPayloadSize = 512

	opDo = "graphql request"
)

// Client executes GraphQL requests against a single endpoint.
type Client struct {
	httpClient *http.Client
	cache      *cache.Manager
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Endpoint is the absolute GraphQL URL.
	Endpoint string

	// UserAgent header sent with every request
	UserAgent string

	// Timeout per request (0 means DefaultTimeout)
	Timeout time.Duration

	// Redis enables the response cache when non-nil
	Redis *redis.Client

	// CacheTTL is how long cached responses stay valid
	CacheTTL time.Duration
}

// DefaultConfig returns the configuration used by the whitelist tools.
func DefaultConfig() Config {
	return Config{
		Endpoint:  DefaultEndpoint,
		UserAgent: "arweave-whitelist/0.1.0",
		Timeout:   DefaultTimeout,
		CacheTTL:  DefaultCacheTTL,
	}
}

// New creates a new GraphQL client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}

	u, err := url.Parse(cfg.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("endpoint must be an absolute URL (got %q)", cfg.Endpoint)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
		logger: log.With().Str("component", "graphql-client").Logger(),
	}

	if cfg.Redis != nil {
		c.cache = cache.NewManager(cfg.Redis)
	}

	return c, nil
}

// Do executes one GraphQL request.
//
// Failures are always *errs.Error: KindNetwork for transport failures,
// KindHTTP for any status other than 200, KindResponse for bodies that are not JSON or
// that carry an "errors" member.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	startTime := time.Now()
	defer func() {
		requestDuration.Observe(time.Since(startTime).Seconds())
	}()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, c.fail(errs.New(errs.KindUnexpected, "encode request", err))
	}

	var cacheKey cache.Key
	if c.cache != nil {
		cacheKey = cache.NewKey(c.config.Endpoint, body)
		if resp, ok := c.fromCache(ctx, cacheKey); ok {
			return resp, nil
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, c.fail(errs.New(errs.KindUnexpected, "create request", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.config.UserAgent)
	}

	c.logger.Debug().
		Str("endpoint", c.config.Endpoint).
		Int("body_bytes", len(body)).
		Msg("Executing GraphQL request")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		requestsTotal.WithLabelValues("network_error").Inc()
		return nil, c.fail(errs.Network(opDo, isTimeout(err), err))
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		requestsTotal.WithLabelValues("network_error").Inc()
		return nil, c.fail(errs.Network("read response body", isTimeout(err), err))
	}

	requestsTotal.WithLabelValues(strconv.Itoa(httpResp.StatusCode)).Inc()

	if httpResp.StatusCode != http.StatusOK {
		return nil, c.fail(errs.HTTP(opDo, httpResp.StatusCode, excerpt(respBody)))
	}

	resp, decodeErr := decode(respBody)
	if decodeErr != nil {
		return nil, c.fail(decodeErr)
	}

	if c.cache != nil {
		entry := cache.NewEntry(respBody, httpResp.StatusCode, c.config.CacheTTL)
		if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to cache response")
		} else {
			c.logger.Debug().
				Str("key", cacheKey.String()).
				Dur("ttl", c.config.CacheTTL).
				Msg("Cached response")
		}
	}

	return resp, nil
}

// fromCache returns a cached response if one exists. Cache failures fall
// through to a live request.
func (c *Client) fromCache(ctx context.Context, key cache.Key) (*Response, bool) {
	entry, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("key", key.String()).Msg("Cache get error")
		}
		return nil, false
	}

	resp, decodeErr := decode(entry.Data)
	if decodeErr != nil {
		c.logger.Warn().Err(decodeErr).Str("key", key.String()).Msg("Discarding unusable cache entry")
		_ = c.cache.Delete(ctx, key)
		return nil, false
	}

	c.logger.Debug().Str("key", key.String()).Msg("Serving response from cache")
	requestsTotal.WithLabelValues("cached").Inc()
	resp.FromCache = true
	return resp, true
}

// decode parses a response body and rejects GraphQL-level errors.
func decode(body []byte) (*Response, *errs.Error) {
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errs.Response("decode response", "", err)
	}

	if resp.HasErrors() {
		return nil, errs.Response(opDo, truncate(string(resp.Errors)), nil)
	}

	return &resp, nil
}

// fail records and logs a classified failure before handing it back.
func (c *Client) fail(err *errs.Error) error {
	errorsTotal.WithLabelValues(string(err.Kind)).Inc()

	event := c.logger.Warn().
		Str("endpoint", c.config.Endpoint).
		Str("error_kind", string(err.Kind))
	if err.StatusCode != 0 {
		event = event.Int("status_code", err.StatusCode)
	}
	event.Err(err).Msg("GraphQL request failed")

	return err
}

// isTimeout reports whether a transport error was caused by a deadline.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func excerpt(body []byte) string {
	return truncate(string(bytes.TrimSpace(body)))
}

// truncate caps s at maxPayloadSize bytes without splitting a rune.
func truncate(s string) string {
	if len(s) <= maxPayloadSize {
		return s
	}
	cut := maxPayloadSize
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// Endpoint returns the configured endpoint URL.
func (c *Client) Endpoint() string {
	return c.config.Endpoint
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
