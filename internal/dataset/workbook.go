package dataset

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LoadWorkbookBars loads daily bars from an XLSX workbook. Well known sheet
// names are probed first, then every remaining sheet is scanned for a
// recognisable header row. All sheets that yield bars contribute to the
// result, so workbooks split by exchange or by year load in one pass.
func LoadWorkbookBars(path string) ([]Bar, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	var bars []Bar
	for _, sheet := range orderSheets(f.GetSheetList()) {
		rows, err := f.GetRows(sheet)
		if err != nil {
			slog.Warn("skipping unreadable sheet",
				"file", filepath.Base(path),
				"sheet", sheet,
				"error", err)
			continue
		}
		bars = append(bars, parseSheetRows(rows, sheet, path)...)
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("no valid bars in workbook: %s", path)
	}
	return bars, nil
}

// orderSheets moves sheets with well known data names to the front so the
// common single-table case is found without scanning decorative sheets
func orderSheets(sheets []string) []string {
	known := map[string]bool{
		"bars":   true,
		"daily":  true,
		"prices": true,
		"data":   true,
	}

	ordered := make([]string, 0, len(sheets))
	var rest []string
	for _, sheet := range sheets {
		if known[strings.ToLower(strings.TrimSpace(sheet))] {
			ordered = append(ordered, sheet)
		} else {
			rest = append(rest, sheet)
		}
	}
	return append(ordered, rest...)
}

// parseSheetRows locates the header row within the first rows of a sheet and
// parses everything below it. Sheets without a header are silently ignored;
// workbooks often carry notes or chart sheets alongside the data.
func parseSheetRows(rows [][]string, sheet, path string) []Bar {
	headerIdx := -1
	var cols columnMap

	probe := len(rows)
	if probe > 10 {
		probe = 10
	}
	for i := 0; i < probe; i++ {
		if m, ok := buildColumnMap(rows[i]); ok {
			headerIdx, cols = i, m
			break
		}
	}
	if headerIdx < 0 {
		return nil
	}

	var bars []Bar
	for i := headerIdx + 1; i < len(rows); i++ {
		if isEmptyRow(rows[i]) {
			continue
		}
		bar, err := parseBarRecord(rows[i], cols, i+1)
		if err != nil {
			slog.Warn("skipping invalid bar row",
				"file", filepath.Base(path),
				"sheet", sheet,
				"row", i+1,
				"error", err)
			continue
		}
		bars = append(bars, bar)
	}
	return bars
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
