package correlation

import (
	"sort"
	"time"
)

// Align intersects two return series on their shared trade dates and returns
// the parallel return slices, ascending by date. Dates present in only one
// series are dropped; there is no filling or interpolation, so every aligned
// observation is a real quote on both sides.
//
// minOverlap is the policy floor on shared dates; values below
// DefaultMinOverlap are raised to it. Fewer shared dates than the floor
// yields an insufficient-overlap error naming both tickers.
func Align(a, b ReturnSeries, minOverlap int) (AlignedPair, error) {
	if minOverlap < DefaultMinOverlap {
		minOverlap = DefaultMinOverlap
	}

	byDate := make(map[time.Time]float64, b.Len())
	for _, p := range b.Points {
		byDate[dayKey(p.Date)] = p.Return
	}

	pair := AlignedPair{TickerA: a.Ticker, TickerB: b.Ticker}
	for _, p := range a.Points {
		date := dayKey(p.Date)
		rb, ok := byDate[date]
		if !ok {
			continue
		}
		pair.Dates = append(pair.Dates, date)
		pair.ReturnsA = append(pair.ReturnsA, p.Return)
		pair.ReturnsB = append(pair.ReturnsB, rb)
	}

	// Input order is normally already ascending, but alignment must not
	// depend on it.
	if !sort.SliceIsSorted(pair.Dates, func(i, j int) bool { return pair.Dates[i].Before(pair.Dates[j]) }) {
		sortAlignedPair(&pair)
	}

	if pair.Samples() < minOverlap {
		return AlignedPair{}, newError(KindInsufficientOverlap, a.Ticker, b.Ticker,
			"%d shared trade dates, need at least %d", pair.Samples(), minOverlap)
	}
	return pair, nil
}

// sortAlignedPair orders the three parallel slices by date ascending
func sortAlignedPair(pair *AlignedPair) {
	idx := make([]int, len(pair.Dates))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool {
		return pair.Dates[idx[i]].Before(pair.Dates[idx[j]])
	})

	dates := make([]time.Time, len(idx))
	returnsA := make([]float64, len(idx))
	returnsB := make([]float64, len(idx))
	for i, j := range idx {
		dates[i] = pair.Dates[j]
		returnsA[i] = pair.ReturnsA[j]
		returnsB[i] = pair.ReturnsB[j]
	}
	pair.Dates = dates
	pair.ReturnsA = returnsA
	pair.ReturnsB = returnsB
}
