package dataset

import (
	"fmt"
	"sort"
	"time"

	"corrlens/internal/correlation"
)

// BuildReturnSeries derives a daily return series from a ticker's bars.
// Bars are sorted by trade date and each return is close/prev_close - 1.
// The vendor supplied prev_close is preferred because it carries ex-rights
// adjustments; a bar without one falls back to the prior bar's close, and a
// bar with neither is skipped rather than emitted as a zero return.
func BuildReturnSeries(ticker string, bars []Bar) (correlation.ReturnSeries, error) {
	sorted := make([]Bar, 0, len(bars))
	for _, bar := range bars {
		if bar.IsValid() {
			sorted = append(sorted, bar)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	points := make([]correlation.ReturnPoint, 0, len(sorted))
	lastClose := 0.0
	for _, bar := range sorted {
		prev := bar.PrevClose
		if prev <= 0 {
			prev = lastClose
		}
		if prev > 0 {
			points = append(points, correlation.ReturnPoint{
				Date:   bar.Date,
				Return: bar.Close/prev - 1,
			})
		}
		lastClose = bar.Close
	}

	if len(points) == 0 {
		return correlation.ReturnSeries{}, fmt.Errorf("no usable bars for %s", ticker)
	}
	return correlation.NewReturnSeries(ticker, points), nil
}

// FilterBars returns the bars whose trade dates fall within [from, to]
// inclusive. A zero bound leaves that side open. Dates are compared by
// calendar day so intraday timestamps on the boundary days are kept.
func FilterBars(bars []Bar, from, to time.Time) []Bar {
	filtered := make([]Bar, 0, len(bars))
	for _, bar := range bars {
		day := time.Date(bar.Date.Year(), bar.Date.Month(), bar.Date.Day(), 0, 0, 0, 0, time.UTC)
		if !from.IsZero() && day.Before(from) {
			continue
		}
		if !to.IsZero() && day.After(to) {
			continue
		}
		filtered = append(filtered, bar)
	}
	return filtered
}
