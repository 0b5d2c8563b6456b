package correlation

import (
	"sort"
)

// RankTopPairs returns the k highest-scoring pairs of a matrix, most
// positively correlated first. Ranking uses the raw score, not its absolute
// value, so strong negative correlations sort last. Undefined cells and the
// diagonal never appear in a ranking.
//
// Equal scores are ordered lexically by (TickerA, TickerB) so rankings are
// deterministic. k values at or below zero fall back to DefaultTopK; fewer
// defined cells than k yields a shorter list.
func RankTopPairs(m *CorrelationMatrix, k int) []RankedPair {
	if m == nil {
		return nil
	}
	if k <= 0 {
		k = DefaultTopK
	}

	cells := m.Cells()
	defined := cells[:0]
	for _, cell := range cells {
		if cell.Valid() {
			defined = append(defined, cell)
		}
	}

	sort.Slice(defined, func(i, j int) bool {
		if defined[i].Score != defined[j].Score {
			return defined[i].Score > defined[j].Score
		}
		if defined[i].TickerA != defined[j].TickerA {
			return defined[i].TickerA < defined[j].TickerA
		}
		return defined[i].TickerB < defined[j].TickerB
	})

	if len(defined) > k {
		defined = defined[:k]
	}

	ranked := make([]RankedPair, len(defined))
	for i, cell := range defined {
		ranked[i] = RankedPair{
			Rank:    i + 1,
			TickerA: cell.TickerA,
			TickerB: cell.TickerB,
			Score:   cell.Score,
			Samples: cell.Samples,
		}
	}
	return ranked
}
