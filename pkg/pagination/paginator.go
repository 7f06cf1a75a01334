package pagination

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/arweave-whitelist/pkg/errs"
	"github.com/Sternrassler/arweave-whitelist/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for pagination runs.
var (
	pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "whitelist_pages_fetched_total",
		Help: "Total number of pages fetched successfully",
	})

	itemsCollectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "whitelist_items_collected_total",
		Help: "Total number of items appended to result sets",
	})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "whitelist_pagination_runs_total",
		Help: "Total pagination runs by stop reason",
	}, []string{"reason"})
)

// Page is one fetched page: its items in edge order and the cursor to
// continue from. A nil NextCursor means there are no further pages.
type Page struct {
	Items      []string
	NextCursor *string
}

// PageFetcher fetches a single page starting after cursor (nil for the first page).
type PageFetcher interface {
	FetchPage(ctx context.Context, cursor *string) (Page, error)
}

// Waiter pauses between consecutive page requests.
type Waiter interface {
	Wait(ctx context.Context) error
}

// StopReason records why a run ended.
type StopReason string

const (
	// StopExhausted means the last page carried no continuation cursor.
	StopExhausted StopReason = "exhausted"

	// StopFailed means a fetch failed.
	StopFailed StopReason = "failed"

	// StopPageLimit means Config.MaxPages was reached.
	StopPageLimit StopReason = "page_limit"

	// StopItemLimit means Config.MaxItems was reached.
	StopItemLimit StopReason = "item_limit"

	// StopCancelled means the context ended the run.
	StopCancelled StopReason = "cancelled"
)

// ResultSet is the ordered concatenation of all fetched pages.
type ResultSet struct {
	Items []string

	// Pages is the number of pages fetched successfully.
	Pages int

	// LastCursor is the continuation cursor of the last page kept whole, nil
	// if none was seen. Resuming from it never skips an item.
	LastCursor *string

	Reason StopReason
}

// Config holds paginator configuration.
type Config struct {
	// Delay before every request after the first
	Delay time.Duration

	// MaxPages stops the run after this many pages (0 = unbounded)
	MaxPages int

	// MaxItems caps the ResultSet size (0 = unbounded)
	MaxItems int
}

// DefaultConfig returns the unbounded configuration with a 1s inter-page delay.
func DefaultConfig() Config {
	return Config{
		Delay: ratelimit.DefaultDelay,
	}
}

// Paginator accumulates pages from a PageFetcher.
type Paginator struct {
	fetcher PageFetcher
	pacer   Waiter
	config  Config
	logger  zerolog.Logger
}

// NewPaginator creates a new paginator.
func NewPaginator(fetcher PageFetcher, config Config) *Paginator {
	if config.MaxPages < 0 {
		config.MaxPages = 0
	}
	if config.MaxItems < 0 {
		config.MaxItems = 0
	}

	logger := log.With().Str("component", "paginator").Logger()

	return &Paginator{
		fetcher: fetcher,
		pacer:   ratelimit.NewPacer(config.Delay, logger),
		config:  config,
		logger:  logger,
	}
}

// SetPacer replaces the inter-page waiter (for testing).
func (p *Paginator) SetPacer(w Waiter) {
	p.pacer = w
}

// Collect runs pagination to completion.
//
// The returned ResultSet is never nil. On failure it holds everything
// accumulated before the failing fetch and the error is that fetch's error;
// a run that ends because the endpoint has no more pages, or because a
// configured bound was hit, returns a nil error.
func (p *Paginator) Collect(ctx context.Context) (*ResultSet, error) {
	start := time.Now()
	rs := &ResultSet{Items: []string{}}

	p.logger.Info().
		Int("max_pages", p.config.MaxPages).
		Int("max_items", p.config.MaxItems).
		Msg("Starting pagination")

	var cursor *string
	for {
		if rs.Pages > 0 {
			if err := p.pacer.Wait(ctx); err != nil {
				return p.finish(rs, StopCancelled, start, err)
			}
		}

		page, err := p.fetcher.FetchPage(ctx, cursor)
		if err != nil {
			reason := StopFailed
			if ctx.Err() != nil {
				reason = StopCancelled
			}
			return p.finish(rs, reason, start, fmt.Errorf("fetch page %d: %w", rs.Pages+1, err))
		}

		rs.Pages++
		pagesFetchedTotal.Inc()

		items, truncated := p.clip(page.Items, len(rs.Items))
		for _, item := range items {
			p.logger.Debug().Str("address", item).Msg("Fetched address")
		}
		rs.Items = append(rs.Items, items...)
		itemsCollectedTotal.Add(float64(len(items)))

		p.logger.Debug().
			Int("page", rs.Pages).
			Int("items", len(items)).
			Int("total", len(rs.Items)).
			Msg("Page collected")

		// A clipped page's cursor points past the dropped items.
		if truncated {
			return p.finish(rs, StopItemLimit, start, nil)
		}

		if page.NextCursor != nil {
			rs.LastCursor = page.NextCursor
		}
		if page.NextCursor == nil {
			return p.finish(rs, StopExhausted, start, nil)
		}
		if p.config.MaxItems > 0 && len(rs.Items) >= p.config.MaxItems {
			return p.finish(rs, StopItemLimit, start, nil)
		}
		if p.config.MaxPages > 0 && rs.Pages >= p.config.MaxPages {
			return p.finish(rs, StopPageLimit, start, nil)
		}

		cursor = page.NextCursor
		p.logger.Info().
			Str("cursor", *cursor).
			Int("total", len(rs.Items)).
			Msg("More pages available, advancing cursor")
	}
}

// clip trims items so the ResultSet never exceeds MaxItems.
func (p *Paginator) clip(items []string, have int) ([]string, bool) {
	if p.config.MaxItems <= 0 {
		return items, false
	}
	room := p.config.MaxItems - have
	if room < 0 {
		room = 0
	}
	if len(items) > room {
		return items[:room], true
	}
	return items, false
}

func (p *Paginator) finish(rs *ResultSet, reason StopReason, start time.Time, err error) (*ResultSet, error) {
	rs.Reason = reason
	runsTotal.WithLabelValues(string(reason)).Inc()

	if err != nil {
		p.logger.Error().
			Err(err).
			Str("error_kind", string(errs.KindOf(err))).
			Str("reason", string(reason)).
			Int("pages", rs.Pages).
			Int("total", len(rs.Items)).
			Msg("Pagination stopped early - returning partial results")
		return rs, err
	}

	p.logger.Info().
		Str("reason", string(reason)).
		Int("pages", rs.Pages).
		Int("total", len(rs.Items)).
		Dur("duration", time.Since(start)).
		Msg("Pagination complete")
	return rs, nil
}
