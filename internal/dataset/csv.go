package dataset

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Canonical column names used by the loaders. Header cells are matched
// against vendor spellings (ts_code, trade_date, pre_close) as well as the
// generic ones.
const (
	colTicker    = "ticker"
	colDate      = "date"
	colOpen      = "open"
	colHigh      = "high"
	colLow       = "low"
	colClose     = "close"
	colPrevClose = "prev_close"
	colVolume    = "volume"
)

// columnMap maps canonical column names to record indices
type columnMap map[string]int

// LoadCSVBars loads daily bars from a CSV file. The first row is inspected
// for a header; files without one are assumed to follow the vendor dump
// order ts_code, trade_date, open, high, low, close, pre_close. Rows that
// fail to parse are skipped with a warning so one bad line does not discard
// the file.
func LoadCSVBars(path string) ([]Bar, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty CSV file: %s", path)
	}

	cols, hasHeader := buildColumnMap(records[0])
	start := 0
	if hasHeader {
		start = 1
	} else {
		cols = defaultColumns()
	}

	var bars []Bar
	for i := start; i < len(records); i++ {
		bar, err := parseBarRecord(records[i], cols, i+1)
		if err != nil {
			slog.Warn("skipping invalid bar record",
				"file", filepath.Base(path),
				"line", i+1,
				"error", err)
			continue
		}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("no valid bars in file: %s", path)
	}
	return bars, nil
}

// buildColumnMap matches header cells to canonical columns. The second
// return value reports whether the row looks like a header at all; a row
// whose cells parse as data is handed back to the caller as a record.
func buildColumnMap(header []string) (columnMap, bool) {
	cols := make(columnMap)
	for i, cell := range header {
		cell = strings.ToLower(strings.TrimSpace(cell))
		switch {
		case cell == "ts_code" || cell == "ticker" || cell == "symbol" || cell == "code":
			cols[colTicker] = i
		case strings.Contains(cell, "date"):
			cols[colDate] = i
		case strings.Contains(cell, "pre") && strings.Contains(cell, "close"):
			cols[colPrevClose] = i
		case cell == "close":
			cols[colClose] = i
		case cell == "open":
			cols[colOpen] = i
		case cell == "high":
			cols[colHigh] = i
		case cell == "low":
			cols[colLow] = i
		case cell == "vol" || cell == "volume":
			cols[colVolume] = i
		}
	}

	_, hasDate := cols[colDate]
	_, hasClose := cols[colClose]
	_, hasTicker := cols[colTicker]
	return cols, hasDate && hasClose && hasTicker
}

// defaultColumns is the vendor dump order used for headerless files
func defaultColumns() columnMap {
	return columnMap{
		colTicker:    0,
		colDate:      1,
		colOpen:      2,
		colHigh:      3,
		colLow:       4,
		colClose:     5,
		colPrevClose: 6,
	}
}

// parseBarRecord parses a single CSV record into a Bar
func parseBarRecord(record []string, cols columnMap, line int) (Bar, error) {
	get := func(col string) string {
		idx, ok := cols[col]
		if !ok || idx < 0 || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	ticker := get(colTicker)
	if ticker == "" {
		return Bar{}, fmt.Errorf("line %d: missing ticker", line)
	}

	date, err := parseDate(get(colDate))
	if err != nil {
		return Bar{}, fmt.Errorf("line %d: %w", line, err)
	}

	closePrice, err := parseFloat(get(colClose), "close", line)
	if err != nil {
		return Bar{}, err
	}

	bar := Bar{
		Ticker: ticker,
		Date:   date,
		Close:  closePrice,
	}

	optional := []struct {
		col string
		dst *float64
	}{
		{colOpen, &bar.Open},
		{colHigh, &bar.High},
		{colLow, &bar.Low},
		{colPrevClose, &bar.PrevClose},
		{colVolume, &bar.Volume},
	}
	for _, opt := range optional {
		value := get(opt.col)
		if value == "" {
			continue
		}
		parsed, err := parseFloat(value, opt.col, line)
		if err != nil {
			return Bar{}, err
		}
		*opt.dst = parsed
	}

	if !bar.IsValid() {
		return Bar{}, fmt.Errorf("line %d: invalid bar for %s", line, ticker)
	}
	return bar, nil
}

// parseDate parses dates in the formats bar files are seen in
func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("missing date")
	}

	formats := []string{
		"20060102",
		"2006-01-02",
		"2006/01/02",
		"01/02/2006",
		"2006-01-02 15:04:05",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", value)
}

// parseFloat parses a float field, tolerating thousands separators
func parseFloat(value, field string, line int) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if cleaned == "" || cleaned == "-" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: invalid %s value %q", line, field, value)
	}
	return f, nil
}

// FindBarFiles walks root and returns every CSV and XLSX file found,
// skipping Excel lock files
func FindBarFiles(root string) ([]string, error) {
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		name := strings.ToLower(info.Name())
		if strings.HasPrefix(name, "~$") {
			return nil
		}
		if strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".xlsx") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	return files, nil
}
