package analytics

import (
	"math"
	"time"

	"corrlens/internal/correlation"
	"corrlens/internal/infrastructure"
	"corrlens/pkg/contracts/domain"
)

// Presentation rounding for report DTOs; the engine keeps full precision.
const (
	coefficientDecimals = 4
	pValueDecimals      = 6
)

// roundTo rounds x to the given number of decimal places
func roundTo(x float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(x*p) / p
}

// scorePtr converts a possibly undefined score into a rounded pointer value.
// NaN becomes nil so it serializes as JSON null, never as zero.
func scorePtr(x float64, decimals int) *float64 {
	if math.IsNaN(x) {
		return nil
	}
	v := roundTo(x, decimals)
	return &v
}

// buildPairReport assembles the two-ticker report DTO
func buildPairReport(result correlation.PairCorrelation) *domain.PairReport {
	return &domain.PairReport{
		ID:          infrastructure.NewReportID(),
		TickerA:     result.TickerA,
		TickerB:     result.TickerB,
		Pearson:     scorePtr(result.Pearson, coefficientDecimals),
		PValue:      scorePtr(result.PValue, pValueDecimals),
		Spearman:    scorePtr(result.Spearman, coefficientDecimals),
		SampleDays:  result.Samples,
		StartDate:   formatDay(result.StartDate),
		EndDate:     formatDay(result.EndDate),
		GeneratedAt: time.Now().UTC(),
	}
}

// buildGrid renders a matrix as a full ticker-by-ticker grid of rounded
// scores, diagonal included. Undefined cells are nil entries.
func buildGrid(m *correlation.CorrelationMatrix) domain.MatrixGrid {
	tickers := m.Tickers()
	grid := make(domain.MatrixGrid, len(tickers))
	for _, a := range tickers {
		row := make(map[string]*float64, len(tickers))
		for _, b := range tickers {
			cell, ok := m.Cell(a, b)
			if !ok || !cell.Valid() {
				row[b] = nil
				continue
			}
			row[b] = scorePtr(cell.Score, coefficientDecimals)
		}
		grid[a] = row
	}
	return grid
}

// rankedEntries converts engine ranking results into report rows
func rankedEntries(pairs []correlation.RankedPair) []domain.RankedPairEntry {
	entries := make([]domain.RankedPairEntry, len(pairs))
	for i, p := range pairs {
		entries[i] = domain.RankedPairEntry{
			Rank:       p.Rank,
			TickerA:    p.TickerA,
			TickerB:    p.TickerB,
			Score:      scorePtr(p.Score, coefficientDecimals),
			SampleDays: p.Samples,
		}
	}
	return entries
}

// undefinedCells lists the off-diagonal cells whose statistic is undefined,
// ordered by ticker pair
func undefinedCells(m *correlation.CorrelationMatrix) []domain.UndefinedCell {
	var out []domain.UndefinedCell
	for _, cell := range m.Cells() {
		if cell.Valid() {
			continue
		}
		out = append(out, domain.UndefinedCell{
			TickerA:    cell.TickerA,
			TickerB:    cell.TickerB,
			Reason:     cell.Reason,
			SampleDays: cell.Samples,
		})
	}
	return out
}

// formatDay renders a trade date as an ISO8601 day, empty for the zero time
func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dayFormat)
}
