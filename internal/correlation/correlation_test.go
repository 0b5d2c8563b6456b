package correlation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStart is a Monday so consecutive test dates look like a plausible week
var testStart = time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

// seriesFrom builds a return series on consecutive days starting at testStart
func seriesFrom(ticker string, returns ...float64) ReturnSeries {
	points := make([]ReturnPoint, len(returns))
	for i, r := range returns {
		points[i] = ReturnPoint{Date: testStart.AddDate(0, 0, i), Return: r}
	}
	return NewReturnSeries(ticker, points)
}

// setOf wraps series into the fetch-outcome map a matrix build consumes
func setOf(series ...ReturnSeries) SeriesSet {
	set := make(SeriesSet, len(series))
	for _, s := range series {
		set[s.Ticker] = SeriesResult{Series: s}
	}
	return set
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestMethod tests Method parsing and validation
func TestMethod(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		method Method
		valid  bool
	}{
		{"pearson", "pearson", MethodPearson, true},
		{"spearman", "spearman", MethodSpearman, true},
		{"combined", "combined", MethodCombined, true},
		{"unknown", "kendall", Method(""), false},
		{"empty", "", Method(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method, err := ParseMethod(tt.input)
			if tt.valid {
				require.NoError(t, err)
				assert.Equal(t, tt.method, method)
				assert.True(t, method.IsValid())
				assert.Equal(t, tt.input, method.String())
			} else {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidMethod))
			}
		})
	}
}

// TestNewReturnSeries tests series normalization
func TestNewReturnSeries(t *testing.T) {
	t.Run("sorts points ascending", func(t *testing.T) {
		s := NewReturnSeries("600519.SH", []ReturnPoint{
			{Date: testStart.AddDate(0, 0, 2), Return: 0.03},
			{Date: testStart, Return: 0.01},
			{Date: testStart.AddDate(0, 0, 1), Return: 0.02},
		})

		require.Equal(t, 3, s.Len())
		assert.True(t, s.IsValid())
		assert.Equal(t, []float64{0.01, 0.02, 0.03}, returnsOf(s))
	})

	t.Run("duplicate date keeps last value", func(t *testing.T) {
		s := NewReturnSeries("600519.SH", []ReturnPoint{
			{Date: testStart, Return: 0.01},
			{Date: testStart.AddDate(0, 0, 1), Return: 0.02},
			{Date: testStart, Return: 0.05},
		})

		require.Equal(t, 2, s.Len())
		assert.Equal(t, []float64{0.05, 0.02}, returnsOf(s))
	})

	t.Run("timestamps collapse to the UTC trade date", func(t *testing.T) {
		shanghai := time.FixedZone("CST", 8*60*60)
		s := NewReturnSeries("600519.SH", []ReturnPoint{
			{Date: time.Date(2025, 1, 6, 15, 30, 0, 0, shanghai), Return: 0.01},
		})

		require.Equal(t, 1, s.Len())
		assert.Equal(t, testStart, s.Points[0].Date)
	})

	t.Run("empty ticker is invalid", func(t *testing.T) {
		s := NewReturnSeries("", nil)
		assert.False(t, s.IsValid())
	})
}

func returnsOf(s ReturnSeries) []float64 {
	out := make([]float64, s.Len())
	for i, p := range s.Points {
		out[i] = p.Return
	}
	return out
}

// TestSeriesSet tests fetch-outcome partitioning
func TestSeriesSet(t *testing.T) {
	set := setOf(
		seriesFrom("600519.SH", 0.01, 0.02),
		seriesFrom("000858.SZ", 0.02, 0.01),
	)
	set["601318.SH"] = SeriesResult{Err: fmt.Errorf("40203: token invalid")}
	set["000001.SZ"] = SeriesResult{Err: fmt.Errorf("timeout fetching daily bars")}

	assert.Equal(t, []string{"000858.SZ", "600519.SH"}, set.UsableTickers())

	failures := set.Failures()
	require.Len(t, failures, 2)
	assert.Equal(t, []string{"000001.SZ", "601318.SH"}, failures.Tickers())
	assert.Equal(t, "40203: token invalid", failures["601318.SH"])
}

// TestParams tests policy defaulting
func TestParams(t *testing.T) {
	assert.True(t, DefaultParams().IsValid())

	p := Params{}.withDefaults()
	assert.Equal(t, DefaultMinOverlap, p.MinOverlap)
	assert.Equal(t, DefaultTopK, p.TopK)

	p = Params{MinOverlap: 30, TopK: 10}.withDefaults()
	assert.Equal(t, 30, p.MinOverlap)
	assert.Equal(t, 10, p.TopK)

	assert.False(t, Params{MinOverlap: 1, TopK: 5}.IsValid())
}

// TestComputeTwoTickerCorrelation tests the full two-ticker operation
func TestComputeTwoTickerCorrelation(t *testing.T) {
	t.Run("perfect positive relationship", func(t *testing.T) {
		a := seriesFrom("600519.SH", 1, 2, 3, 4, 5)
		b := seriesFrom("000858.SZ", 2, 4, 6, 8, 10)

		result, err := ComputeTwoTickerCorrelation(a, b, DefaultParams())
		require.NoError(t, err)

		assert.Equal(t, "600519.SH", result.TickerA)
		assert.Equal(t, "000858.SZ", result.TickerB)
		assert.InDelta(t, 1.0, result.Pearson, 1e-12)
		assert.InDelta(t, 1.0, result.Spearman, 1e-12)
		assert.InDelta(t, 0.0, result.PValue, 1e-12)
		assert.Equal(t, 5, result.Samples)
		assert.Equal(t, testStart, result.StartDate)
		assert.Equal(t, testStart.AddDate(0, 0, 4), result.EndDate)
	})

	t.Run("perfect inverse relationship", func(t *testing.T) {
		a := seriesFrom("600519.SH", 1, 2, 3)
		b := seriesFrom("000858.SZ", 3, 2, 1)

		result, err := ComputeTwoTickerCorrelation(a, b, DefaultParams())
		require.NoError(t, err)

		assert.InDelta(t, -1.0, result.Pearson, 1e-12)
		assert.InDelta(t, -1.0, result.Spearman, 1e-12)
	})

	t.Run("single shared date is insufficient", func(t *testing.T) {
		a := NewReturnSeries("600519.SH", []ReturnPoint{
			{Date: testStart, Return: 0.01},
			{Date: testStart.AddDate(0, 0, 1), Return: 0.02},
		})
		b := NewReturnSeries("000858.SZ", []ReturnPoint{
			{Date: testStart.AddDate(0, 0, 1), Return: 0.03},
			{Date: testStart.AddDate(0, 0, 7), Return: 0.04},
		})

		_, err := ComputeTwoTickerCorrelation(a, b, DefaultParams())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInsufficientOverlap))
		assert.Contains(t, err.Error(), "600519.SH")
		assert.Contains(t, err.Error(), "000858.SZ")
	})

	t.Run("constant side is degenerate, not zero", func(t *testing.T) {
		a := seriesFrom("600519.SH", 0.01, 0.01, 0.01, 0.01)
		b := seriesFrom("000858.SZ", 0.01, 0.02, 0.03, 0.04)

		_, err := ComputeTwoTickerCorrelation(a, b, DefaultParams())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDegenerateSeries))
	})

	t.Run("two samples cannot reject anything", func(t *testing.T) {
		a := seriesFrom("600519.SH", 0.01, 0.03)
		b := seriesFrom("000858.SZ", 0.02, 0.05)

		result, err := ComputeTwoTickerCorrelation(a, b, DefaultParams())
		require.NoError(t, err)
		assert.InDelta(t, 1.0, result.Pearson, 1e-12)
		assert.InDelta(t, 1.0, result.PValue, 1e-12)
	})

	t.Run("policy can demand more overlap", func(t *testing.T) {
		a := seriesFrom("600519.SH", 0.01, 0.02, 0.03)
		b := seriesFrom("000858.SZ", 0.02, 0.01, 0.04)

		_, err := ComputeTwoTickerCorrelation(a, b, Params{MinOverlap: 10, TopK: 5})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInsufficientOverlap))
	})
}

// TestBuilderLogsToContext ensures building works with a background context
// and a nil logger
func TestBuilderLogsToContext(t *testing.T) {
	builder := NewBuilder(DefaultParams(), nil)
	set := setOf(
		seriesFrom("600519.SH", 0.01, -0.02, 0.03),
		seriesFrom("000858.SZ", 0.02, -0.01, 0.02),
	)

	matrix, failures, err := builder.Build(context.Background(), set, MethodPearson)
	require.NoError(t, err)
	assert.Empty(t, failures)
	assert.Equal(t, 2, matrix.Size())
}

// TestErrorFormatting tests the error string shapes
func TestErrorFormatting(t *testing.T) {
	pairErr := newError(KindInsufficientOverlap, "600519.SH", "000858.SZ", "1 shared trade dates, need at least 2")
	assert.Equal(t, "[insufficient_overlap] 600519.SH/000858.SZ: 1 shared trade dates, need at least 2", pairErr.Error())

	tickerErr := newError(KindDegenerateSeries, "600519.SH", "", "constant series")
	assert.Equal(t, "[degenerate_series] 600519.SH: constant series", tickerErr.Error())

	bareErr := newError(KindInsufficientTickers, "", "", "1 usable series of 3 requested, need at least 2")
	assert.Equal(t, "[insufficient_tickers] 1 usable series of 3 requested, need at least 2", bareErr.Error())

	wrapped := fmt.Errorf("analysis failed: %w", pairErr)
	assert.True(t, errors.Is(wrapped, ErrInsufficientOverlap))
	assert.False(t, errors.Is(wrapped, ErrDegenerateSeries))
	assert.Equal(t, "insufficient_overlap", reasonFor(wrapped))
	assert.Equal(t, "plain failure", reasonFor(errors.New("plain failure")))
}

func TestClampCoefficient(t *testing.T) {
	assert.Equal(t, 1.0, clampCoefficient(1.0000000000000004))
	assert.Equal(t, -1.0, clampCoefficient(-1.0000000000000004))
	assert.Equal(t, 0.5, clampCoefficient(0.5))
	assert.True(t, math.IsNaN(clampCoefficient(math.NaN())))
}
