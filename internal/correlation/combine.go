package correlation

import (
	"math"
	"slices"
)

// Combine produces the cell-wise arithmetic mean of two matrices built over
// the same tickers, normally a Pearson and a Spearman matrix of the same
// series set. Both matrices must cover exactly the same ticker set or the
// combine fails with a shape mismatch.
//
// A combined cell is defined only when both inputs are; otherwise it is NaN
// with a missing-component reason, so upstream data problems stay visible
// instead of averaging away.
func Combine(pearson, spearman *CorrelationMatrix) (*CorrelationMatrix, error) {
	if pearson == nil || spearman == nil {
		return nil, newError(KindMatrixShapeMismatch, "", "", "cannot combine a nil matrix")
	}
	if !slices.Equal(pearson.tickers, spearman.tickers) {
		return nil, newError(KindMatrixShapeMismatch, "", "",
			"ticker sets differ: %d vs %d tickers", len(pearson.tickers), len(spearman.tickers))
	}

	lengths := make(map[string]int, len(pearson.tickers))
	for _, ticker := range pearson.tickers {
		lengths[ticker] = min(pearson.lengths[ticker], spearman.lengths[ticker])
	}

	combined := newMatrix(MethodCombined, pearson.Tickers(), lengths)
	for _, pc := range pearson.Cells() {
		sc, ok := spearman.Cell(pc.TickerA, pc.TickerB)
		if !ok || !pc.Valid() || !sc.Valid() {
			combined.setCell(Cell{
				TickerA: pc.TickerA,
				TickerB: pc.TickerB,
				Score:   math.NaN(),
				Samples: min(pc.Samples, sc.Samples),
				Reason:  string(KindMissingComponent),
			})
			continue
		}
		combined.setCell(Cell{
			TickerA: pc.TickerA,
			TickerB: pc.TickerB,
			Score:   (pc.Score + sc.Score) / 2,
			Samples: min(pc.Samples, sc.Samples),
		})
	}

	return combined, nil
}
