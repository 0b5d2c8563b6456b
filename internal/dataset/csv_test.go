package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCSVBars(t *testing.T) {
	t.Run("vendor header file", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "daily.csv",
			"ts_code,trade_date,open,high,low,close,pre_close,vol\n"+
				"600519.SH,20250106,1405.0,1422.0,1398.0,1412.5,1400.0,31200\n"+
				"600519.SH,20250107,1412.0,1430.0,1410.0,1425.0,1412.5,28800\n")

		bars, err := LoadCSVBars(path)
		require.NoError(t, err)
		require.Len(t, bars, 2)

		assert.Equal(t, "600519.SH", bars[0].Ticker)
		assert.Equal(t, "2025-01-06", bars[0].Date.Format("2006-01-02"))
		assert.InDelta(t, 1405.0, bars[0].Open, 1e-9)
		assert.InDelta(t, 1412.5, bars[0].Close, 1e-9)
		assert.InDelta(t, 1400.0, bars[0].PrevClose, 1e-9)
		assert.InDelta(t, 31200.0, bars[0].Volume, 1e-9)
	})

	t.Run("generic header names", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "bars.csv",
			"date,ticker,close,prev_close\n"+
				"2025-01-06,000001.SZ,11.50,11.30\n")

		bars, err := LoadCSVBars(path)
		require.NoError(t, err)
		require.Len(t, bars, 1)
		assert.Equal(t, "000001.SZ", bars[0].Ticker)
		assert.InDelta(t, 11.50, bars[0].Close, 1e-9)
		assert.InDelta(t, 11.30, bars[0].PrevClose, 1e-9)
		assert.Zero(t, bars[0].Open)
	})

	t.Run("headerless vendor dump order", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "dump.csv",
			"000858.SZ,20250106,140.0,143.0,139.5,142.0,139.8\n"+
				"000858.SZ,20250107,142.1,144.0,141.0,143.5,142.0\n")

		bars, err := LoadCSVBars(path)
		require.NoError(t, err)
		require.Len(t, bars, 2)
		assert.Equal(t, "000858.SZ", bars[0].Ticker)
		assert.InDelta(t, 142.0, bars[0].Close, 1e-9)
		assert.InDelta(t, 139.8, bars[0].PrevClose, 1e-9)
	})

	t.Run("bad rows are skipped", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "partial.csv",
			"ts_code,trade_date,close,pre_close\n"+
				"600519.SH,20250106,1412.5,1400.0\n"+
				"600519.SH,not-a-date,1425.0,1412.5\n"+
				",20250108,1430.0,1425.0\n"+
				"600519.SH,20250109,n/a,1430.0\n"+
				"600519.SH,20250110,1436.0,1430.0\n")

		bars, err := LoadCSVBars(path)
		require.NoError(t, err)
		require.Len(t, bars, 2)
		assert.Equal(t, "2025-01-06", bars[0].Date.Format("2006-01-02"))
		assert.Equal(t, "2025-01-10", bars[1].Date.Format("2006-01-02"))
	})

	t.Run("thousands separators tolerated", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "grouped.csv",
			"ts_code,trade_date,close,pre_close,vol\n"+
				"600519.SH,20250106,\"1,412.50\",\"1,400.00\",\"31,200\"\n")

		bars, err := LoadCSVBars(path)
		require.NoError(t, err)
		require.Len(t, bars, 1)
		assert.InDelta(t, 1412.50, bars[0].Close, 1e-9)
		assert.InDelta(t, 31200.0, bars[0].Volume, 1e-9)
	})

	t.Run("no valid bars", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "junk.csv",
			"ts_code,trade_date,close,pre_close\n"+
				"600519.SH,never,1412.5,1400.0\n")

		_, err := LoadCSVBars(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no valid bars")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadCSVBars(filepath.Join(t.TempDir(), "absent.csv"))
		require.Error(t, err)
	})
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"20250106", "2025-01-06"},
		{"2025-01-06", "2025-01-06"},
		{"2025/01/06", "2025-01-06"},
		{"01/06/2025", "2025-01-06"},
		{"2025-01-06 15:30:00", "2025-01-06"},
	}
	for _, tc := range cases {
		parsed, err := parseDate(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, parsed.Format("2006-01-02"), tc.in)
	}

	_, err := parseDate("not-a-date")
	assert.Error(t, err)

	_, err = parseDate("")
	assert.Error(t, err)
}

func TestFindBarFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "x")
	writeFile(t, dir, "b.XLSX", "x")
	writeFile(t, dir, "~$b.xlsx", "x")
	writeFile(t, dir, "notes.txt", "x")

	sub := filepath.Join(dir, "2025")
	require.NoError(t, os.Mkdir(sub, 0o755))
	writeFile(t, sub, "c.csv", "x")

	files, err := FindBarFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 3)
	for _, file := range files {
		assert.NotContains(t, file, "~$")
		assert.NotContains(t, file, ".txt")
	}
}
