// Package series resolves ticker symbols into daily return series through a
// pluggable provider, fanning fetches out concurrently while pacing them
// with a rate limiter. Per-ticker failures are collected, not fatal, so a
// matrix analysis can proceed with whatever resolved.
package series

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"corrlens/internal/correlation"
)

// Provider fetches one ticker's daily return series for a trade date range.
// A zero from or to leaves that side of the range open. Implementations must
// be safe for concurrent use.
type Provider interface {
	FetchReturnSeries(ctx context.Context, ticker string, from, to time.Time) (correlation.ReturnSeries, error)
}

// Default resolver policy
const (
	DefaultMaxConcurrency = 4
	DefaultFetchTimeout   = 30 * time.Second
)

// Options configure how a Resolver schedules provider calls
type Options struct {
	// MaxConcurrency caps the number of in-flight fetches
	MaxConcurrency int
	// RateLimit paces fetches in calls per second; zero disables pacing
	RateLimit float64
	// Burst is the limiter burst size when pacing is enabled
	Burst int
	// FetchTimeout bounds each individual provider call
	FetchTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxConcurrency <= 0 {
		o.MaxConcurrency = DefaultMaxConcurrency
	}
	if o.Burst <= 0 {
		o.Burst = 1
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = DefaultFetchTimeout
	}
	return o
}

// Resolver fetches return series for sets of tickers. Failures are recorded
// per ticker in the resulting SeriesSet; only context cancellation aborts a
// whole resolve.
type Resolver struct {
	provider Provider
	limiter  *rate.Limiter
	opts     Options
	logger   *slog.Logger
}

// NewResolver creates a resolver around the given provider
func NewResolver(provider Provider, opts Options, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	opts = opts.withDefaults()

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), opts.Burst)
	}

	return &Resolver{
		provider: provider,
		limiter:  limiter,
		opts:     opts,
		logger:   logger,
	}
}

// Resolve fetches a return series for every ticker within [from, to].
// Duplicate and blank symbols are dropped first. A ticker whose fetch fails
// or times out is recorded as a failure in the returned set and logged;
// Resolve itself errors only when no tickers remain after cleaning or the
// context is cancelled.
func (r *Resolver) Resolve(ctx context.Context, tickers []string, from, to time.Time) (correlation.SeriesSet, error) {
	unique := cleanTickers(tickers)
	if len(unique) == 0 {
		return nil, fmt.Errorf("no tickers to resolve")
	}

	start := time.Now()
	set := make(correlation.SeriesSet, len(unique))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.MaxConcurrency)

	for _, ticker := range unique {
		ticker := ticker
		g.Go(func() error {
			if r.limiter != nil {
				if err := r.limiter.Wait(gctx); err != nil {
					return err
				}
			}

			fetchCtx, cancel := context.WithTimeout(gctx, r.opts.FetchTimeout)
			series, err := r.provider.FetchReturnSeries(fetchCtx, ticker, from, to)
			cancel()

			if err != nil {
				// A dead parent context means the whole resolve is being
				// torn down, not that this ticker's data is bad.
				if gctx.Err() != nil {
					return gctx.Err()
				}
				r.logger.WarnContext(gctx, "series fetch failed",
					"ticker", ticker,
					"error", err)
				mu.Lock()
				set[ticker] = correlation.SeriesResult{Err: err}
				mu.Unlock()
				return nil
			}

			mu.Lock()
			set[ticker] = correlation.SeriesResult{Series: series}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	failures := set.Failures()
	r.logger.InfoContext(ctx, "series resolved",
		"requested", len(unique),
		"usable", len(unique)-len(failures),
		"failed", len(failures),
		"duration", time.Since(start))
	return set, nil
}

// cleanTickers trims, drops blanks, and removes duplicates preserving order
func cleanTickers(tickers []string) []string {
	seen := make(map[string]struct{}, len(tickers))
	unique := make([]string, 0, len(tickers))
	for _, ticker := range tickers {
		ticker = strings.TrimSpace(ticker)
		if ticker == "" {
			continue
		}
		if _, ok := seen[ticker]; ok {
			continue
		}
		seen[ticker] = struct{}{}
		unique = append(unique, ticker)
	}
	return unique
}
