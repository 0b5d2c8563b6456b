package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"corrlens/internal/infrastructure"
	"corrlens/pkg/contracts/domain"
)

// Export file formats, recorded on the reports-exported metric
const (
	formatCSV  = "csv"
	formatJSON = "json"
	formatText = "text"
)

// Exporter writes correlation reports to files: ticker-labelled matrix grids
// and top-pair rankings as CSV, the full report as JSON, and a plain-text
// summary.
type Exporter struct {
	writer  *CSVWriter
	metrics *infrastructure.BusinessMetrics
	logger  *slog.Logger
}

// NewExporter creates a report exporter writing into outputDir.
// metrics may be nil when observability is disabled.
func NewExporter(outputDir string, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Exporter{
		writer:  NewCSVWriter(outputDir, logger),
		metrics: metrics,
		logger:  infrastructure.WithComponent(logger, "exporter"),
	}
}

// ExportPair writes a two-ticker report as JSON plus a text summary and
// returns the written file paths
func (e *Exporter) ExportPair(ctx context.Context, report *domain.PairReport) ([]string, error) {
	if report == nil {
		return nil, fmt.Errorf("no pair report to export")
	}

	base := fmt.Sprintf("pair_%s_%s", report.TickerA, report.TickerB)

	var files []string
	path, err := e.writeJSON(ctx, base+".json", report)
	if err != nil {
		return files, err
	}
	files = append(files, path)

	path, err = e.writePairSummary(ctx, base+"_summary.txt", report)
	if err != nil {
		return files, err
	}
	files = append(files, path)

	e.logger.InfoContext(ctx, "pair report exported",
		"report_id", report.ID,
		"files", len(files),
	)
	return files, nil
}

// ExportMatrix writes a single-statistic matrix report: the grid and top
// pairs as CSV, the full report as JSON, and a text summary
func (e *Exporter) ExportMatrix(ctx context.Context, report *domain.MatrixReport) ([]string, error) {
	if report == nil {
		return nil, fmt.Errorf("no matrix report to export")
	}

	method := string(report.Method)

	var files []string
	path, err := e.writeGrid(ctx, fmt.Sprintf("correlation_matrix_%s.csv", method), report.Tickers, report.Matrix)
	if err != nil {
		return files, err
	}
	files = append(files, path)

	path, err = e.writeTopPairs(ctx, fmt.Sprintf("top_pairs_%s.csv", method), report.TopPairs)
	if err != nil {
		return files, err
	}
	files = append(files, path)

	path, err = e.writeJSON(ctx, fmt.Sprintf("matrix_%s.json", method), report)
	if err != nil {
		return files, err
	}
	files = append(files, path)

	path, err = e.writeMatrixSummary(ctx, fmt.Sprintf("matrix_%s_summary.txt", method), report)
	if err != nil {
		return files, err
	}
	files = append(files, path)

	e.logger.InfoContext(ctx, "matrix report exported",
		"report_id", report.ID,
		"method", method,
		"files", len(files),
	)
	return files, nil
}

// ExportCombined writes a combined report: all three grids and the combined
// top pairs as CSV, the full report as JSON, and a text summary
func (e *Exporter) ExportCombined(ctx context.Context, report *domain.CombinedReport) ([]string, error) {
	if report == nil {
		return nil, fmt.Errorf("no combined report to export")
	}

	grids := []struct {
		name string
		grid domain.MatrixGrid
	}{
		{"correlation_matrix_pearson.csv", report.Pearson},
		{"correlation_matrix_spearman.csv", report.Spearman},
		{"correlation_matrix_combined.csv", report.Combined},
	}

	var files []string
	for _, g := range grids {
		path, err := e.writeGrid(ctx, g.name, report.Tickers, g.grid)
		if err != nil {
			return files, err
		}
		files = append(files, path)
	}

	path, err := e.writeTopPairs(ctx, "top_pairs_combined.csv", report.TopPairs)
	if err != nil {
		return files, err
	}
	files = append(files, path)

	path, err = e.writeJSON(ctx, "matrix_combined.json", report)
	if err != nil {
		return files, err
	}
	files = append(files, path)

	path, err = e.writeCombinedSummary(ctx, "matrix_combined_summary.txt", report)
	if err != nil {
		return files, err
	}
	files = append(files, path)

	e.logger.InfoContext(ctx, "combined report exported",
		"report_id", report.ID,
		"files", len(files),
	)
	return files, nil
}

// writeGrid streams a ticker-labelled correlation grid. The header row
// carries the tickers, each data row starts with its ticker, and undefined
// cells are written as NA.
func (e *Exporter) writeGrid(ctx context.Context, name string, tickers []string, grid domain.MatrixGrid) (string, error) {
	headers := append([]string{""}, tickers...)
	stream, err := e.writer.CreateStreamWriter(name, headers)
	if err != nil {
		return "", fmt.Errorf("create grid writer: %w", err)
	}

	for _, a := range tickers {
		row := make([]string, 0, len(tickers)+1)
		row = append(row, a)
		for _, b := range tickers {
			row = append(row, formatScorePtr(grid[a][b]))
		}
		if err := stream.WriteRecord(row); err != nil {
			stream.Close()
			return "", fmt.Errorf("write grid row %s: %w", a, err)
		}
	}

	if err := stream.Close(); err != nil {
		return "", fmt.Errorf("close grid writer: %w", err)
	}

	infrastructure.RecordReportExported(ctx, e.metrics, formatCSV)
	return e.writer.resolvePath(name), nil
}

// writeTopPairs writes the ranked pairs CSV
func (e *Exporter) writeTopPairs(ctx context.Context, name string, pairs []domain.RankedPairEntry) (string, error) {
	headers := []string{"Rank", "TickerA", "TickerB", "Correlation", "SharedDays"}
	records := make([][]string, len(pairs))
	for i, p := range pairs {
		records[i] = []string{
			formatInt(p.Rank),
			p.TickerA,
			p.TickerB,
			formatScorePtr(p.Score),
			formatInt(p.SampleDays),
		}
	}

	if err := e.writer.WriteSimpleCSV(name, headers, records); err != nil {
		return "", fmt.Errorf("write top pairs: %w", err)
	}

	infrastructure.RecordReportExported(ctx, e.metrics, formatCSV)
	return e.writer.resolvePath(name), nil
}

// writeJSON writes a full report DTO as indented JSON
func (e *Exporter) writeJSON(ctx context.Context, name string, report interface{}) (string, error) {
	fullPath := e.writer.resolvePath(name)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("create JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return "", fmt.Errorf("encode JSON: %w", err)
	}

	infrastructure.RecordReportExported(ctx, e.metrics, formatJSON)
	return fullPath, nil
}

// writePairSummary writes the plain-text summary of a two-ticker report
func (e *Exporter) writePairSummary(ctx context.Context, name string, report *domain.PairReport) (string, error) {
	fullPath := e.writer.resolvePath(name)
	file, err := e.createSummaryFile(fullPath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	fmt.Fprintf(file, "Return Correlation Pair - Summary Report\n")
	fmt.Fprintf(file, "========================================\n\n")
	fmt.Fprintf(file, "Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(file, "Report ID: %s\n\n", report.ID)

	fmt.Fprintf(file, "PAIR STATISTICS\n")
	fmt.Fprintf(file, "---------------\n")
	fmt.Fprintf(file, "Tickers: %s/%s\n", report.TickerA, report.TickerB)
	fmt.Fprintf(file, "Window: %s to %s\n", report.StartDate, report.EndDate)
	fmt.Fprintf(file, "Shared Days: %d\n", report.SampleDays)
	fmt.Fprintf(file, "Pearson: %s\n", formatScorePtr(report.Pearson))
	fmt.Fprintf(file, "P-Value: %s\n", formatPValue(report.PValue))
	fmt.Fprintf(file, "Spearman: %s\n", formatScorePtr(report.Spearman))

	infrastructure.RecordReportExported(ctx, e.metrics, formatText)
	return fullPath, nil
}

// writeMatrixSummary writes the plain-text summary of a matrix report
func (e *Exporter) writeMatrixSummary(ctx context.Context, name string, report *domain.MatrixReport) (string, error) {
	fullPath := e.writer.resolvePath(name)
	file, err := e.createSummaryFile(fullPath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	fmt.Fprintf(file, "Return Correlation Matrix - Summary Report\n")
	fmt.Fprintf(file, "==========================================\n\n")
	fmt.Fprintf(file, "Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(file, "Report ID: %s\n\n", report.ID)

	fmt.Fprintf(file, "ANALYSIS OVERVIEW\n")
	fmt.Fprintf(file, "-----------------\n")
	fmt.Fprintf(file, "Method: %s\n", report.Method)
	fmt.Fprintf(file, "Tickers: %d (%s)\n", report.TickerCount, strings.Join(report.Tickers, ", "))
	fmt.Fprintf(file, "Window: %s to %s\n", report.DateFrom, report.DateTo)
	writePairCounts(file, report.TickerCount, len(report.Undefined))
	fmt.Fprintf(file, "Duration: %s\n\n", report.Duration.Round(time.Millisecond))

	writeTopPairsSection(file, report.TopPairs)
	writeUndefinedSection(file, report.Undefined)
	writeFailuresSection(file, report.Failures)

	infrastructure.RecordReportExported(ctx, e.metrics, formatText)
	return fullPath, nil
}

// writeCombinedSummary writes the plain-text summary of a combined report
func (e *Exporter) writeCombinedSummary(ctx context.Context, name string, report *domain.CombinedReport) (string, error) {
	fullPath := e.writer.resolvePath(name)
	file, err := e.createSummaryFile(fullPath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	fmt.Fprintf(file, "Return Correlation Matrix - Summary Report\n")
	fmt.Fprintf(file, "==========================================\n\n")
	fmt.Fprintf(file, "Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(file, "Report ID: %s\n\n", report.ID)

	fmt.Fprintf(file, "ANALYSIS OVERVIEW\n")
	fmt.Fprintf(file, "-----------------\n")
	fmt.Fprintf(file, "Method: combined (mean of pearson and spearman)\n")
	fmt.Fprintf(file, "Tickers: %d (%s)\n", report.TickerCount, strings.Join(report.Tickers, ", "))
	fmt.Fprintf(file, "Window: %s to %s\n", report.DateFrom, report.DateTo)
	writePairCounts(file, report.TickerCount, len(report.Undefined))
	fmt.Fprintf(file, "Duration: %s\n\n", report.Duration.Round(time.Millisecond))

	writeTopPairsSection(file, report.TopPairs)
	writeUndefinedSection(file, report.Undefined)
	writeFailuresSection(file, report.Failures)

	infrastructure.RecordReportExported(ctx, e.metrics, formatText)
	return fullPath, nil
}

// createSummaryFile creates a summary file with its directory
func (e *Exporter) createSummaryFile(fullPath string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	file, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("create summary file: %w", err)
	}
	return file, nil
}

// writePairCounts writes the defined-vs-total pair count line
func writePairCounts(file *os.File, tickerCount, undefined int) {
	total := tickerCount * (tickerCount - 1) / 2
	fmt.Fprintf(file, "Defined Pairs: %d/%d\n", total-undefined, total)
}

func writeTopPairsSection(file *os.File, pairs []domain.RankedPairEntry) {
	fmt.Fprintf(file, "TOP CORRELATED PAIRS\n")
	fmt.Fprintf(file, "--------------------\n")
	if len(pairs) == 0 {
		fmt.Fprintf(file, "none\n")
	}
	for _, p := range pairs {
		fmt.Fprintf(file, "%2d. %s/%s: %s (%d shared days)\n",
			p.Rank, p.TickerA, p.TickerB, formatScorePtr(p.Score), p.SampleDays)
	}
	fmt.Fprintf(file, "\n")
}

func writeUndefinedSection(file *os.File, cells []domain.UndefinedCell) {
	fmt.Fprintf(file, "UNDEFINED PAIRS\n")
	fmt.Fprintf(file, "---------------\n")
	if len(cells) == 0 {
		fmt.Fprintf(file, "none\n")
	}
	for _, c := range cells {
		fmt.Fprintf(file, "%s/%s: %s (%d shared days)\n",
			c.TickerA, c.TickerB, c.Reason, c.SampleDays)
	}
	fmt.Fprintf(file, "\n")
}

func writeFailuresSection(file *os.File, failures map[string]string) {
	fmt.Fprintf(file, "FETCH FAILURES\n")
	fmt.Fprintf(file, "--------------\n")
	if len(failures) == 0 {
		fmt.Fprintf(file, "none\n")
		return
	}
	tickers := make([]string, 0, len(failures))
	for ticker := range failures {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)
	for _, ticker := range tickers {
		fmt.Fprintf(file, "%s: %s\n", ticker, failures[ticker])
	}
}
