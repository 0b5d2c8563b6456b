package correlation

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Pearson computes the product-moment coefficient over an aligned pair,
// clamped to [-1, 1] against floating point drift. A constant side makes the
// coefficient undefined and yields a degenerate-series error; the returned
// value is then NaN, never zero.
func Pearson(pair AlignedPair) (float64, error) {
	if err := checkVariance(pair); err != nil {
		return math.NaN(), err
	}
	r := stat.Correlation(pair.ReturnsA, pair.ReturnsB, nil)
	if math.IsNaN(r) {
		return math.NaN(), newError(KindDegenerateSeries, pair.TickerA, pair.TickerB,
			"correlation undefined over %d shared dates", pair.Samples())
	}
	return clampCoefficient(r), nil
}

// Spearman computes the rank coefficient: both sides are transformed to
// average ranks (ties receive the mean of the rank positions they span) and
// Pearson is taken on the ranks.
func Spearman(pair AlignedPair) (float64, error) {
	if err := checkVariance(pair); err != nil {
		return math.NaN(), err
	}
	r := stat.Correlation(rankAverage(pair.ReturnsA), rankAverage(pair.ReturnsB), nil)
	if math.IsNaN(r) {
		return math.NaN(), newError(KindDegenerateSeries, pair.TickerA, pair.TickerB,
			"rank correlation undefined over %d shared dates", pair.Samples())
	}
	return clampCoefficient(r), nil
}

// PearsonPValue returns the two-sided p-value of a Pearson coefficient over n
// samples, from the Student's t distribution with n-2 degrees of freedom.
// With only two samples no hypothesis can be rejected, so p is 1; a perfect
// coefficient pins p at 0.
func PearsonPValue(r float64, n int) float64 {
	if math.IsNaN(r) {
		return math.NaN()
	}
	if n <= 2 {
		return 1
	}
	r = clampCoefficient(r)
	denom := 1 - r*r
	if denom <= 0 {
		return 0
	}
	t := r * math.Sqrt(float64(n-2)/denom)
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 2)}
	return 2 * dist.CDF(-math.Abs(t))
}

// ComputeTwoTickerCorrelation aligns two series on their shared trade dates
// and computes Pearson with its two-sided p-value plus Spearman over that one
// shared window.
func ComputeTwoTickerCorrelation(a, b ReturnSeries, params Params) (PairCorrelation, error) {
	params = params.withDefaults()

	pair, err := Align(a, b, params.MinOverlap)
	if err != nil {
		return PairCorrelation{}, err
	}

	pearson, err := Pearson(pair)
	if err != nil {
		return PairCorrelation{}, err
	}
	spearman, err := Spearman(pair)
	if err != nil {
		return PairCorrelation{}, err
	}

	return PairCorrelation{
		TickerA:   pair.TickerA,
		TickerB:   pair.TickerB,
		Pearson:   pearson,
		PValue:    PearsonPValue(pearson, pair.Samples()),
		Spearman:  spearman,
		Samples:   pair.Samples(),
		StartDate: pair.StartDate(),
		EndDate:   pair.EndDate(),
	}, nil
}

// checkVariance rejects pairs where either side is constant. Identical values
// produce an exactly zero sample variance, so the comparison is exact.
func checkVariance(pair AlignedPair) error {
	if stat.Variance(pair.ReturnsA, nil) == 0 {
		return newError(KindDegenerateSeries, pair.TickerA, pair.TickerB,
			"%s is constant over the %d shared dates", pair.TickerA, pair.Samples())
	}
	if stat.Variance(pair.ReturnsB, nil) == 0 {
		return newError(KindDegenerateSeries, pair.TickerA, pair.TickerB,
			"%s is constant over the %d shared dates", pair.TickerB, pair.Samples())
	}
	return nil
}

// rankAverage assigns 1-based fractional ranks, averaging ties
func rankAverage(values []float64) []float64 {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool {
		return values[idx[i]] < values[idx[j]]
	})

	ranks := make([]float64, len(values))
	for i := 0; i < len(idx); {
		// Find the end of the tie group starting at i
		j := i
		for j < len(idx) && values[idx[j]] == values[idx[i]] {
			j++
		}
		// Sorted positions i..j-1 carry ranks i+1..j; ties share the mean
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[idx[k]] = avg
		}
		i = j
	}
	return ranks
}

// clampCoefficient pins floating point drift so coefficients stay inside [-1, 1]
func clampCoefficient(r float64) float64 {
	if r > 1.0 {
		return 1.0
	}
	if r < -1.0 {
		return -1.0
	}
	return r
}
