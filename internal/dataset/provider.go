package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"corrlens/internal/correlation"
)

// Provider serves return series from bar files under a local directory.
// Load parses every file up front and FetchReturnSeries answers from
// memory, so a loaded provider is safe for concurrent use by the series
// resolver.
type Provider struct {
	dir    string
	logger *slog.Logger

	mu   sync.RWMutex
	bars map[string][]Bar
}

// NewProvider creates a file-backed provider for the given data directory
func NewProvider(dir string, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		dir:    dir,
		logger: logger,
		bars:   make(map[string][]Bar),
	}
}

// Load scans the data directory and parses every bar file found, grouping
// bars by ticker. Files that fail to parse are logged and skipped; Load
// fails only when the directory cannot be scanned or yields no bars at all.
func (p *Provider) Load(ctx context.Context) error {
	start := time.Now()

	files, err := FindBarFiles(p.dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no bar files found in %s", p.dir)
	}

	grouped := make(map[string][]Bar)
	loaded := 0
	for _, file := range files {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		bars, err := loadBarFile(file)
		if err != nil {
			p.logger.WarnContext(ctx, "skipping unreadable bar file",
				"file", filepath.Base(file),
				"error", err)
			continue
		}
		for _, bar := range bars {
			grouped[bar.Ticker] = append(grouped[bar.Ticker], bar)
		}
		loaded++
	}

	if len(grouped) == 0 {
		return fmt.Errorf("no usable bars in %s", p.dir)
	}

	p.mu.Lock()
	p.bars = grouped
	p.mu.Unlock()

	p.logger.InfoContext(ctx, "bar files loaded",
		"dir", p.dir,
		"files", loaded,
		"tickers", len(grouped),
		"duration", time.Since(start))
	return nil
}

// loadBarFile dispatches to the loader matching the file extension
func loadBarFile(path string) ([]Bar, error) {
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return LoadWorkbookBars(path)
	}
	return LoadCSVBars(path)
}

// Tickers returns the loaded ticker symbols, lexically sorted
func (p *Provider) Tickers() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	tickers := make([]string, 0, len(p.bars))
	for ticker := range p.bars {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)
	return tickers
}

// FetchReturnSeries derives the ticker's daily return series from its loaded
// bars, restricted to trade dates within [from, to]
func (p *Provider) FetchReturnSeries(ctx context.Context, ticker string, from, to time.Time) (correlation.ReturnSeries, error) {
	select {
	case <-ctx.Done():
		return correlation.ReturnSeries{}, ctx.Err()
	default:
	}

	p.mu.RLock()
	bars, ok := p.bars[ticker]
	p.mu.RUnlock()
	if !ok {
		return correlation.ReturnSeries{}, fmt.Errorf("no data for ticker %s in %s", ticker, p.dir)
	}

	filtered := FilterBars(bars, from, to)
	if len(filtered) == 0 {
		return correlation.ReturnSeries{}, fmt.Errorf("no bars for %s between %s and %s",
			ticker, from.Format("2006-01-02"), to.Format("2006-01-02"))
	}
	return BuildReturnSeries(ticker, filtered)
}
