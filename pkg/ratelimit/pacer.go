// Package ratelimit bounds the request rate against the GraphQL endpoint by
// spacing consecutive page requests a fixed delay apart.
package ratelimit

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// DefaultDelay is the pause inserted before every page request after the first.
const DefaultDelay = 1 * time.Second

// Prometheus metrics for request pacing.
var (
	pacerWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "whitelist_pacer_waits_total",
		Help: "Total number of inter-page delays",
	})

	pacerWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "whitelist_pacer_wait_seconds",
		Help:    "Time actually spent waiting between page requests",
		Buckets: []float64{0.1, 0.5, 1, 2, 5},
	})
)

// Pacer inserts a fixed delay between requests.
type Pacer struct {
	delay  time.Duration
	after  func(time.Duration) <-chan time.Time
	logger zerolog.Logger
}

// NewPacer creates a pacer with the given delay. A zero or negative delay
// disables waiting.
func NewPacer(delay time.Duration, logger zerolog.Logger) *Pacer {
	return &Pacer{
		delay:  delay,
		after:  time.After,
		logger: logger,
	}
}

// Delay returns the configured inter-request delay.
func (p *Pacer) Delay() time.Duration {
	return p.delay
}

// Wait blocks for the configured delay or until ctx is done.
// It returns ctx.Err() if the wait was cut short.
func (p *Pacer) Wait(ctx context.Context) error {
	if p.delay <= 0 {
		return ctx.Err()
	}

	start := time.Now()
	pacerWaitsTotal.Inc()

	p.logger.Debug().
		Dur("delay", p.delay).
		Msg("Pacing before next request")

	select {
	case <-ctx.Done():
		p.logger.Debug().Msg("Context cancelled during pacing delay")
		return ctx.Err()
	case <-p.after(p.delay):
	}

	pacerWaitSeconds.Observe(time.Since(start).Seconds())
	return nil
}
