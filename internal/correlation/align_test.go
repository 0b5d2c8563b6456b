package correlation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAlign tests strict trade-date intersection
func TestAlign(t *testing.T) {
	t.Run("keeps only shared dates in ascending order", func(t *testing.T) {
		// A trades Mon-Fri, B misses Wednesday and adds the next Monday
		a := NewReturnSeries("600519.SH", []ReturnPoint{
			{Date: testStart, Return: 0.010},
			{Date: testStart.AddDate(0, 0, 1), Return: 0.020},
			{Date: testStart.AddDate(0, 0, 2), Return: -0.005},
			{Date: testStart.AddDate(0, 0, 3), Return: 0.015},
			{Date: testStart.AddDate(0, 0, 4), Return: 0.001},
		})
		b := NewReturnSeries("000858.SZ", []ReturnPoint{
			{Date: testStart, Return: 0.002},
			{Date: testStart.AddDate(0, 0, 1), Return: 0.004},
			{Date: testStart.AddDate(0, 0, 3), Return: -0.010},
			{Date: testStart.AddDate(0, 0, 4), Return: 0.030},
			{Date: testStart.AddDate(0, 0, 7), Return: 0.012},
		})

		pair, err := Align(a, b, 2)
		require.NoError(t, err)
		require.True(t, pair.IsValid())

		assert.Equal(t, "600519.SH", pair.TickerA)
		assert.Equal(t, "000858.SZ", pair.TickerB)
		assert.Equal(t, 4, pair.Samples())
		assert.Equal(t, []time.Time{
			testStart,
			testStart.AddDate(0, 0, 1),
			testStart.AddDate(0, 0, 3),
			testStart.AddDate(0, 0, 4),
		}, pair.Dates)
		assert.Equal(t, []float64{0.010, 0.020, 0.015, 0.001}, pair.ReturnsA)
		assert.Equal(t, []float64{0.002, 0.004, -0.010, 0.030}, pair.ReturnsB)
	})

	t.Run("missing dates are dropped, never filled", func(t *testing.T) {
		a := seriesFrom("600519.SH", 0.01, 0.02, 0.03, 0.04, 0.05)
		b := NewReturnSeries("000858.SZ", []ReturnPoint{
			{Date: testStart.AddDate(0, 0, 1), Return: 0.1},
			{Date: testStart.AddDate(0, 0, 3), Return: 0.2},
		})

		pair, err := Align(a, b, 2)
		require.NoError(t, err)
		assert.Equal(t, 2, pair.Samples())
		assert.NotContains(t, pair.ReturnsB, 0.0)
	})

	t.Run("no shared dates", func(t *testing.T) {
		a := seriesFrom("600519.SH", 0.01, 0.02, 0.03)
		b := NewReturnSeries("000858.SZ", []ReturnPoint{
			{Date: testStart.AddDate(0, 1, 0), Return: 0.01},
			{Date: testStart.AddDate(0, 1, 1), Return: 0.02},
		})

		_, err := Align(a, b, 2)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInsufficientOverlap))
	})

	t.Run("one shared date is below the floor", func(t *testing.T) {
		a := seriesFrom("600519.SH", 0.01, 0.02)
		b := NewReturnSeries("000858.SZ", []ReturnPoint{
			{Date: testStart, Return: 0.02},
		})

		_, err := Align(a, b, 2)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInsufficientOverlap))
		assert.Contains(t, err.Error(), "1 shared trade dates")
	})

	t.Run("floor below the minimum is raised", func(t *testing.T) {
		a := seriesFrom("600519.SH", 0.01, 0.02)
		b := NewReturnSeries("000858.SZ", []ReturnPoint{
			{Date: testStart, Return: 0.02},
		})

		// Even an explicit 0 cannot allow a single-point correlation
		_, err := Align(a, b, 0)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInsufficientOverlap))
	})

	t.Run("intraday timestamps align on the trade date", func(t *testing.T) {
		shanghai := time.FixedZone("CST", 8*60*60)
		a := NewReturnSeries("600519.SH", []ReturnPoint{
			{Date: time.Date(2025, 1, 6, 15, 0, 0, 0, shanghai), Return: 0.01},
			{Date: time.Date(2025, 1, 7, 15, 0, 0, 0, shanghai), Return: 0.02},
		})
		b := NewReturnSeries("000858.SZ", []ReturnPoint{
			{Date: time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), Return: 0.03},
			{Date: time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC), Return: 0.04},
		})

		pair, err := Align(a, b, 2)
		require.NoError(t, err)
		assert.Equal(t, 2, pair.Samples())
	})
}
