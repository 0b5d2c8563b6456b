package correlation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBuildMatrix tests matrix construction with partial failures
func TestBuildMatrix(t *testing.T) {
	ctx := context.Background()
	builder := NewBuilder(DefaultParams(), discardLogger())

	t.Run("failed fetches shrink the matrix instead of failing it", func(t *testing.T) {
		// Five requested, two fetches failed: the matrix covers the
		// remaining three with C(3,2)=3 off-diagonal cells
		set := setOf(
			seriesFrom("000858.SZ", 0.010, -0.020, 0.030, 0.005),
			seriesFrom("600519.SH", 0.012, -0.018, 0.025, 0.001),
			seriesFrom("601318.SH", -0.004, 0.009, -0.012, 0.020),
		)
		set["600036.SH"] = SeriesResult{Err: fmt.Errorf("40203: token invalid")}
		set["000001.SZ"] = SeriesResult{Err: fmt.Errorf("vendor timeout after 30s")}

		matrix, failures, err := builder.Build(ctx, set, MethodPearson)
		require.NoError(t, err)

		assert.Equal(t, 3, matrix.Size())
		assert.Equal(t, []string{"000858.SZ", "600519.SH", "601318.SH"}, matrix.Tickers())
		assert.Len(t, matrix.Cells(), 3)

		require.Len(t, failures, 2)
		assert.Equal(t, "40203: token invalid", failures["600036.SH"])
		assert.Equal(t, "vendor timeout after 30s", failures["000001.SZ"])

		for _, cell := range matrix.Cells() {
			assert.True(t, cell.Valid())
			assert.Equal(t, 4, cell.Samples)
		}
	})

	t.Run("fewer than two usable series is fatal", func(t *testing.T) {
		set := setOf(seriesFrom("600519.SH", 0.01, 0.02, 0.03))
		set["000858.SZ"] = SeriesResult{Err: fmt.Errorf("40203: token invalid")}

		matrix, failures, err := builder.Build(ctx, set, MethodPearson)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInsufficientTickers))
		assert.Nil(t, matrix)
		// Failures still reported so the caller can say why
		assert.Len(t, failures, 1)
	})

	t.Run("short overlap becomes a NaN cell, build continues", func(t *testing.T) {
		late := NewReturnSeries("601318.SH", []ReturnPoint{
			{Date: testStart.AddDate(0, 0, 4), Return: 0.01},
			{Date: testStart.AddDate(0, 0, 5), Return: 0.02},
			{Date: testStart.AddDate(0, 0, 6), Return: -0.01},
		})
		set := setOf(
			seriesFrom("000858.SZ", 0.010, -0.020, 0.030, 0.005, 0.002),
			seriesFrom("600519.SH", 0.012, -0.018, 0.025, 0.001, 0.004),
			late,
		)

		matrix, failures, err := builder.Build(ctx, set, MethodPearson)
		require.NoError(t, err)
		assert.Empty(t, failures)
		require.Len(t, matrix.Cells(), 3)

		good, ok := matrix.Cell("000858.SZ", "600519.SH")
		require.True(t, ok)
		assert.True(t, good.Valid())

		// Both pairs against the late starter share only one date
		for _, other := range []string{"000858.SZ", "600519.SH"} {
			cell, ok := matrix.Cell(other, "601318.SH")
			require.True(t, ok)
			assert.False(t, cell.Valid())
			assert.True(t, math.IsNaN(cell.Score))
			assert.Equal(t, string(KindInsufficientOverlap), cell.Reason)
		}
	})

	t.Run("degenerate pair becomes a NaN cell with its own reason", func(t *testing.T) {
		set := setOf(
			seriesFrom("000858.SZ", 0.010, -0.020, 0.030),
			seriesFrom("600519.SH", 0.012, -0.018, 0.025),
			seriesFrom("601318.SH", 0.005, 0.005, 0.005),
		)

		matrix, _, err := builder.Build(ctx, set, MethodPearson)
		require.NoError(t, err)

		cell, ok := matrix.Cell("000858.SZ", "601318.SH")
		require.True(t, ok)
		assert.False(t, cell.Valid())
		assert.Equal(t, string(KindDegenerateSeries), cell.Reason)
		assert.Equal(t, 3, cell.Samples)
	})

	t.Run("lookup is order independent", func(t *testing.T) {
		set := setOf(
			seriesFrom("000858.SZ", 0.01, -0.02, 0.03),
			seriesFrom("600519.SH", 0.02, -0.01, 0.02),
		)

		matrix, _, err := builder.Build(ctx, set, MethodPearson)
		require.NoError(t, err)

		ab, ok := matrix.Cell("000858.SZ", "600519.SH")
		require.True(t, ok)
		ba, ok := matrix.Cell("600519.SH", "000858.SZ")
		require.True(t, ok)
		assert.Equal(t, ab, ba)
	})

	t.Run("diagonal is fixed at one", func(t *testing.T) {
		set := setOf(
			seriesFrom("000858.SZ", 0.01, -0.02, 0.03),
			seriesFrom("600519.SH", 0.02, -0.01, 0.02),
		)

		matrix, _, err := builder.Build(ctx, set, MethodPearson)
		require.NoError(t, err)

		diag, ok := matrix.Cell("600519.SH", "600519.SH")
		require.True(t, ok)
		assert.Equal(t, 1.0, diag.Score)
		assert.Equal(t, 3, diag.Samples)

		_, ok = matrix.Cell("999999.SH", "999999.SH")
		assert.False(t, ok)
	})

	t.Run("unknown ticker lookup misses", func(t *testing.T) {
		set := setOf(
			seriesFrom("000858.SZ", 0.01, -0.02, 0.03),
			seriesFrom("600519.SH", 0.02, -0.01, 0.02),
		)

		matrix, _, err := builder.Build(ctx, set, MethodPearson)
		require.NoError(t, err)

		_, ok := matrix.Cell("000858.SZ", "999999.SH")
		assert.False(t, ok)
	})

	t.Run("spearman matrix uses rank scores", func(t *testing.T) {
		set := setOf(
			seriesFrom("000858.SZ", 1, 2, 3, 4, 5),
			// Monotone in A but wildly nonlinear
			seriesFrom("600519.SH", 1, 10, 100, 1000, 10000),
		)

		matrix, _, err := builder.Build(ctx, set, MethodSpearman)
		require.NoError(t, err)
		assert.Equal(t, MethodSpearman, matrix.Method())

		cell, ok := matrix.Cell("000858.SZ", "600519.SH")
		require.True(t, ok)
		assert.InDelta(t, 1.0, cell.Score, 1e-12)
	})

	t.Run("combined cannot be built directly", func(t *testing.T) {
		set := setOf(
			seriesFrom("000858.SZ", 0.01, -0.02, 0.03),
			seriesFrom("600519.SH", 0.02, -0.01, 0.02),
		)

		_, _, err := builder.Build(ctx, set, MethodCombined)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidMethod))
	})

	t.Run("larger universe has exactly C(M,2) cells", func(t *testing.T) {
		set := make(SeriesSet)
		for i := 0; i < 6; i++ {
			ticker := fmt.Sprintf("60051%d.SH", i)
			returns := []float64{
				0.01 * float64(i+1),
				-0.02,
				0.005 * float64(i%3+1),
				0.03,
				-0.01 * float64(i+2),
			}
			set[ticker] = SeriesResult{Series: seriesFrom(ticker, returns...)}
		}

		matrix, _, err := builder.Build(ctx, set, MethodPearson)
		require.NoError(t, err)
		assert.Equal(t, 6, matrix.Size())
		assert.Len(t, matrix.Cells(), 15)
	})
}
