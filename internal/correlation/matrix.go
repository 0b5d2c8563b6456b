package correlation

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"
)

// Cell is one off-diagonal entry of a correlation matrix. Score is NaN
// exactly when Reason is set; consumers check Valid instead of doing
// arithmetic on a possibly undefined value.
type Cell struct {
	TickerA string  `json:"ticker_a"`
	TickerB string  `json:"ticker_b"`
	Score   float64 `json:"score"`
	Samples int     `json:"samples"`
	Reason  string  `json:"reason,omitempty"`
}

// Valid reports whether the cell carries a defined coefficient
func (c Cell) Valid() bool {
	return !math.IsNaN(c.Score)
}

// undefinedCell marks a pair whose coefficient could not be computed
func undefinedCell(tickerA, tickerB string, samples int, err error) Cell {
	return Cell{
		TickerA: tickerA,
		TickerB: tickerB,
		Score:   math.NaN(),
		Samples: samples,
		Reason:  reasonFor(err),
	}
}

// pairKey is the unordered map key for a ticker pair
type pairKey struct {
	a, b string
}

// newPairKey normalizes the pair so lookups are order-independent
func newPairKey(a, b string) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}

// CorrelationMatrix is a symmetric matrix of pairwise coefficients for one
// method. It stores exactly C(M,2) off-diagonal cells over its M tickers;
// diagonal entries are fixed at 1.0 and synthesized on access.
type CorrelationMatrix struct {
	method  Method
	tickers []string // lexically sorted
	cells   map[pairKey]Cell
	lengths map[string]int // per-ticker observation counts, for diagonal cells
}

// newMatrix allocates an empty matrix over the given lexically sorted tickers
func newMatrix(method Method, tickers []string, lengths map[string]int) *CorrelationMatrix {
	n := len(tickers)
	return &CorrelationMatrix{
		method:  method,
		tickers: tickers,
		cells:   make(map[pairKey]Cell, n*(n-1)/2),
		lengths: lengths,
	}
}

// Method returns the statistic this matrix carries
func (m *CorrelationMatrix) Method() Method {
	return m.method
}

// Size returns the number of tickers covered by the matrix
func (m *CorrelationMatrix) Size() int {
	return len(m.tickers)
}

// Tickers returns the covered tickers in lexical order
func (m *CorrelationMatrix) Tickers() []string {
	out := make([]string, len(m.tickers))
	copy(out, m.tickers)
	return out
}

// Cell looks up the entry for a ticker pair in either order. The diagonal is
// synthesized with score 1.0. The second return is false when either ticker
// is not covered by the matrix.
func (m *CorrelationMatrix) Cell(tickerA, tickerB string) (Cell, bool) {
	if tickerA == tickerB {
		if _, ok := m.lengths[tickerA]; !ok {
			return Cell{}, false
		}
		return Cell{
			TickerA: tickerA,
			TickerB: tickerA,
			Score:   1.0,
			Samples: m.lengths[tickerA],
		}, true
	}
	cell, ok := m.cells[newPairKey(tickerA, tickerB)]
	return cell, ok
}

// Cells returns every off-diagonal cell ordered by (TickerA, TickerB)
func (m *CorrelationMatrix) Cells() []Cell {
	out := make([]Cell, 0, len(m.cells))
	for _, cell := range m.cells {
		out = append(out, cell)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TickerA != out[j].TickerA {
			return out[i].TickerA < out[j].TickerA
		}
		return out[i].TickerB < out[j].TickerB
	})
	return out
}

// setCell stores a cell under its normalized pair key
func (m *CorrelationMatrix) setCell(cell Cell) {
	if cell.TickerB < cell.TickerA {
		cell.TickerA, cell.TickerB = cell.TickerB, cell.TickerA
	}
	m.cells[pairKey{a: cell.TickerA, b: cell.TickerB}] = cell
}

// Builder builds correlation matrices from per-ticker fetch outcomes
type Builder struct {
	params Params
	logger *slog.Logger
}

// NewBuilder creates a matrix builder with the given analysis policy
func NewBuilder(params Params, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		params: params.withDefaults(),
		logger: logger,
	}
}

// Build constructs the correlation matrix for one method over a set of
// per-ticker fetch outcomes. The context is used for log correlation only;
// the build itself is pure computation.
//
// Failed fetches are excluded from the matrix and reported in the returned
// FetchFailureSet without failing the build. Each remaining pair is aligned
// and computed independently; pairs without enough shared dates or with a
// constant side become NaN cells with a reason and the build continues. Only
// ending up with fewer than two usable series is fatal.
func (b *Builder) Build(ctx context.Context, set SeriesSet, method Method) (*CorrelationMatrix, FetchFailureSet, error) {
	start := time.Now()

	if method != MethodPearson && method != MethodSpearman {
		return nil, nil, newError(KindInvalidMethod, "", "",
			"cannot build a %q matrix directly, combined matrices come from Combine", method)
	}

	failures := set.Failures()
	for _, ticker := range failures.Tickers() {
		b.logger.WarnContext(ctx, "excluding ticker from matrix",
			"ticker", ticker,
			"reason", failures[ticker],
		)
	}

	tickers := set.UsableTickers()
	if len(tickers) < 2 {
		return nil, failures, newError(KindInsufficientTickers, "", "",
			"%d usable series of %d requested, need at least 2", len(tickers), len(set))
	}

	lengths := make(map[string]int, len(tickers))
	for _, ticker := range tickers {
		lengths[ticker] = set[ticker].Series.Len()
	}

	b.logger.InfoContext(ctx, "building correlation matrix",
		"method", method.String(),
		"tickers", len(tickers),
		"excluded", len(failures),
		"min_overlap", b.params.MinOverlap,
	)

	matrix := newMatrix(method, tickers, lengths)
	undefined := 0

	for i := 0; i < len(tickers); i++ {
		for j := i + 1; j < len(tickers); j++ {
			tickerA, tickerB := tickers[i], tickers[j]
			cell := b.buildCell(set[tickerA].Series, set[tickerB].Series, method)
			if !cell.Valid() {
				undefined++
				b.logger.WarnContext(ctx, "pair correlation undefined",
					"ticker_a", tickerA,
					"ticker_b", tickerB,
					"reason", cell.Reason,
				)
			}
			matrix.setCell(cell)
		}
	}

	b.logger.InfoContext(ctx, "correlation matrix built",
		"method", method.String(),
		"tickers", len(tickers),
		"cells", len(matrix.cells),
		"undefined_cells", undefined,
		"fetch_failures", len(failures),
		"duration", time.Since(start),
	)

	return matrix, failures, nil
}

// buildCell aligns one pair and computes its coefficient. Alignment or
// computation failures become undefined cells, not errors.
func (b *Builder) buildCell(a, bSeries ReturnSeries, method Method) Cell {
	pair, err := Align(a, bSeries, b.params.MinOverlap)
	if err != nil {
		return undefinedCell(a.Ticker, bSeries.Ticker, 0, err)
	}

	var score float64
	switch method {
	case MethodSpearman:
		score, err = Spearman(pair)
	default:
		score, err = Pearson(pair)
	}
	if err != nil {
		return undefinedCell(a.Ticker, bSeries.Ticker, pair.Samples(), err)
	}

	return Cell{
		TickerA: a.Ticker,
		TickerB: bSeries.Ticker,
		Score:   score,
		Samples: pair.Samples(),
	}
}
