package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"

	"corrlens/internal/config"
	"corrlens/internal/correlation"
	"corrlens/internal/infrastructure"
	"corrlens/pkg/contracts/domain"
)

// dayFormat is the calendar date layout used in requests and reports
const dayFormat = "2006-01-02"

// Analysis kinds used in logs and metric attributes
const (
	kindPair     = "pair"
	kindMatrix   = "matrix"
	kindCombined = "combined"
)

// SeriesResolver resolves ticker symbols into per-ticker return series
// outcomes for a trade date range
type SeriesResolver interface {
	Resolve(ctx context.Context, tickers []string, from, to time.Time) (correlation.SeriesSet, error)
}

// Service orchestrates correlation analyses: it validates requests, resolves
// return series, runs the engine, and assembles report DTOs.
type Service struct {
	resolver SeriesResolver
	builder  *correlation.Builder
	params   correlation.Params
	analysis config.AnalysisConfig
	validate *validator.Validate
	metrics  *infrastructure.BusinessMetrics
	logger   *slog.Logger
}

// NewService creates an analytics service around a series resolver.
// metrics may be nil when observability is disabled.
func NewService(resolver SeriesResolver, analysis config.AnalysisConfig, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = infrastructure.WithComponent(logger, "analytics")

	params := correlation.Params{
		MinOverlap: analysis.MinOverlap,
		TopK:       analysis.TopK,
	}

	return &Service{
		resolver: resolver,
		builder:  correlation.NewBuilder(params, logger),
		params:   params,
		analysis: analysis,
		validate: newValidator(),
		metrics:  metrics,
		logger:   logger,
	}
}

// AnalyzePair computes Pearson with its two-sided p-value plus Spearman for
// two tickers over one shared trade date window. Empty request dates fall
// back to the configured pair window.
func (s *Service) AnalyzePair(ctx context.Context, req domain.PairRequest) (report *domain.PairReport, err error) {
	req.TickerA = normalizeTicker(req.TickerA)
	req.TickerB = normalizeTicker(req.TickerB)
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}

	from, to, err := s.window(req.DateFrom, req.DateTo, s.analysis.PairWindow)
	if err != nil {
		return nil, err
	}

	ctx, span := startAnalysisSpan(ctx, kindPair,
		attribute.String("ticker.a", req.TickerA),
		attribute.String("ticker.b", req.TickerB),
	)
	defer func() { endAnalysisSpan(span, err) }()

	start := time.Now()
	infrastructure.RecordActiveAnalysisChange(ctx, s.metrics, 1, kindPair)
	defer infrastructure.RecordActiveAnalysisChange(ctx, s.metrics, -1, kindPair)

	s.logger.InfoContext(ctx, "starting pair analysis",
		"ticker_a", req.TickerA,
		"ticker_b", req.TickerB,
		"date_from", from.Format(dayFormat),
		"date_to", to.Format(dayFormat),
	)

	set, err := s.resolver.Resolve(ctx, []string{req.TickerA, req.TickerB}, from, to)
	if err != nil {
		return nil, s.fail(ctx, kindPair, start, err)
	}

	if failures := set.Failures(); len(failures) > 0 {
		infrastructure.RecordSeriesFetchFailures(ctx, s.metrics, kindPair, int64(len(failures)))
		tickers := failures.Tickers()
		err := fmt.Errorf("series unavailable for %s: %s",
			strings.Join(tickers, ", "), failures[tickers[0]])
		return nil, s.fail(ctx, kindPair, start, err)
	}

	result, err := correlation.ComputeTwoTickerCorrelation(
		set[req.TickerA].Series, set[req.TickerB].Series, s.params)
	if err != nil {
		return nil, s.fail(ctx, kindPair, start, err)
	}

	report = buildPairReport(result)
	duration := time.Since(start)

	infrastructure.RecordAnalysisMetrics(ctx, s.metrics, report.ID, kindPair, duration, nil)
	infrastructure.AddSpanEvent(ctx, "analysis.pair_complete", map[string]interface{}{
		"report_id":   report.ID,
		"sample_days": report.SampleDays,
	})

	s.logger.InfoContext(ctx, "pair analysis complete",
		"report_id", report.ID,
		"ticker_a", result.TickerA,
		"ticker_b", result.TickerB,
		"sample_days", result.Samples,
		"duration", duration,
	)

	return report, nil
}

// AnalyzeMatrix builds the pairwise correlation matrix for one statistic over
// a set of tickers and ranks its top pairs. Tickers whose series cannot be
// resolved are reported on the result, not fatal; fewer than two usable
// series fails the analysis.
func (s *Service) AnalyzeMatrix(ctx context.Context, req domain.MatrixRequest) (report *domain.MatrixReport, err error) {
	req.Tickers = normalizeTickers(req.Tickers)
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}

	method := correlation.MethodPearson
	if req.Method != "" {
		parsed, err := correlation.ParseMethod(req.Method)
		if err != nil {
			return nil, err
		}
		method = parsed
	}
	if method == correlation.MethodCombined {
		return nil, ValidationErrors{{
			Field:   "method",
			Message: "method must be pearson or spearman for a single-method matrix",
		}}
	}

	from, to, err := s.window(req.DateFrom, req.DateTo, s.analysis.MatrixWindow)
	if err != nil {
		return nil, err
	}

	ctx, span := startAnalysisSpan(ctx, kindMatrix,
		attribute.String("analysis.method", method.String()),
		attribute.Int("analysis.tickers", len(req.Tickers)),
	)
	defer func() { endAnalysisSpan(span, err) }()

	start := time.Now()
	infrastructure.RecordActiveAnalysisChange(ctx, s.metrics, 1, kindMatrix)
	defer infrastructure.RecordActiveAnalysisChange(ctx, s.metrics, -1, kindMatrix)

	s.logger.InfoContext(ctx, "starting matrix analysis",
		"method", method.String(),
		"tickers", len(req.Tickers),
		"date_from", from.Format(dayFormat),
		"date_to", to.Format(dayFormat),
	)

	set, err := s.resolver.Resolve(ctx, req.Tickers, from, to)
	if err != nil {
		return nil, s.fail(ctx, kindMatrix, start, err)
	}

	matrix, failures, err := s.builder.Build(ctx, set, method)
	infrastructure.RecordSeriesFetchFailures(ctx, s.metrics, kindMatrix, int64(len(failures)))
	if err != nil {
		return nil, s.fail(ctx, kindMatrix, start, err)
	}

	ranked := correlation.RankTopPairs(matrix, s.topK(req.TopK))

	report = &domain.MatrixReport{
		ID:          infrastructure.NewReportID(),
		Method:      domain.AnalysisMethod(method),
		Tickers:     matrix.Tickers(),
		TickerCount: matrix.Size(),
		DateFrom:    from.Format(dayFormat),
		DateTo:      to.Format(dayFormat),
		Matrix:      buildGrid(matrix),
		TopPairs:    rankedEntries(ranked),
		Undefined:   undefinedCells(matrix),
		Failures:    failures,
		GeneratedAt: time.Now().UTC(),
		Duration:    time.Since(start),
	}

	s.recordMatrixOutcome(ctx, kindMatrix, report.ID, matrix, len(ranked), start)

	s.logger.InfoContext(ctx, "matrix analysis complete",
		"report_id", report.ID,
		"method", method.String(),
		"tickers", report.TickerCount,
		"undefined_cells", len(report.Undefined),
		"fetch_failures", len(failures),
		"top_pairs", len(report.TopPairs),
		"duration", report.Duration,
	)

	return report, nil
}

// AnalyzeCombined builds Pearson and Spearman matrices over the same resolved
// series, averages them cell-wise, and ranks the combined scores. The report
// carries all three grids.
func (s *Service) AnalyzeCombined(ctx context.Context, req domain.MatrixRequest) (report *domain.CombinedReport, err error) {
	req.Tickers = normalizeTickers(req.Tickers)
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}

	from, to, err := s.window(req.DateFrom, req.DateTo, s.analysis.MatrixWindow)
	if err != nil {
		return nil, err
	}

	ctx, span := startAnalysisSpan(ctx, kindCombined,
		attribute.Int("analysis.tickers", len(req.Tickers)),
	)
	defer func() { endAnalysisSpan(span, err) }()

	start := time.Now()
	infrastructure.RecordActiveAnalysisChange(ctx, s.metrics, 1, kindCombined)
	defer infrastructure.RecordActiveAnalysisChange(ctx, s.metrics, -1, kindCombined)

	s.logger.InfoContext(ctx, "starting combined analysis",
		"tickers", len(req.Tickers),
		"date_from", from.Format(dayFormat),
		"date_to", to.Format(dayFormat),
	)

	set, err := s.resolver.Resolve(ctx, req.Tickers, from, to)
	if err != nil {
		return nil, s.fail(ctx, kindCombined, start, err)
	}

	pearson, failures, err := s.builder.Build(ctx, set, correlation.MethodPearson)
	infrastructure.RecordSeriesFetchFailures(ctx, s.metrics, kindCombined, int64(len(failures)))
	if err != nil {
		return nil, s.fail(ctx, kindCombined, start, err)
	}

	spearman, _, err := s.builder.Build(ctx, set, correlation.MethodSpearman)
	if err != nil {
		return nil, s.fail(ctx, kindCombined, start, err)
	}

	combined, err := correlation.Combine(pearson, spearman)
	if err != nil {
		return nil, s.fail(ctx, kindCombined, start, err)
	}

	ranked := correlation.RankTopPairs(combined, s.topK(req.TopK))

	report = &domain.CombinedReport{
		ID:          infrastructure.NewReportID(),
		Tickers:     combined.Tickers(),
		TickerCount: combined.Size(),
		DateFrom:    from.Format(dayFormat),
		DateTo:      to.Format(dayFormat),
		Pearson:     buildGrid(pearson),
		Spearman:    buildGrid(spearman),
		Combined:    buildGrid(combined),
		TopPairs:    rankedEntries(ranked),
		Undefined:   undefinedCells(combined),
		Failures:    failures,
		GeneratedAt: time.Now().UTC(),
		Duration:    time.Since(start),
	}

	s.recordMatrixOutcome(ctx, kindCombined, report.ID, combined, len(ranked), start)

	s.logger.InfoContext(ctx, "combined analysis complete",
		"report_id", report.ID,
		"tickers", report.TickerCount,
		"undefined_cells", len(report.Undefined),
		"fetch_failures", len(failures),
		"top_pairs", len(report.TopPairs),
		"duration", report.Duration,
	)

	return report, nil
}

// window resolves the request date range, with empty sides falling back to
// the configured default window
func (s *Service) window(dateFrom, dateTo string, defaults func() (time.Time, time.Time, error)) (time.Time, time.Time, error) {
	from, to, err := defaults()
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("default analysis window: %w", err)
	}

	if dateFrom != "" {
		from, err = time.Parse(dayFormat, dateFrom)
		if err != nil {
			return time.Time{}, time.Time{}, ValidationErrors{{
				Field:   "date_from",
				Message: "date_from must be a valid ISO8601 date",
			}}
		}
	}
	if dateTo != "" {
		to, err = time.Parse(dayFormat, dateTo)
		if err != nil {
			return time.Time{}, time.Time{}, ValidationErrors{{
				Field:   "date_to",
				Message: "date_to must be a valid ISO8601 date",
			}}
		}
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, ValidationErrors{{
			Field:   "date_from",
			Message: "date_from must not be after date_to",
		}}
	}

	return from, to, nil
}

// topK picks the ranking depth: the request value, else the configured
// policy, else the engine default
func (s *Service) topK(requested int) int {
	if requested > 0 {
		return requested
	}
	if s.params.TopK > 0 {
		return s.params.TopK
	}
	return correlation.DefaultTopK
}

// fail records a failed analysis and returns the error unchanged
func (s *Service) fail(ctx context.Context, kind string, start time.Time, err error) error {
	infrastructure.RecordAnalysisMetrics(ctx, s.metrics, "", kind, time.Since(start), err)
	infrastructure.RecordError(ctx, err)
	infrastructure.WithError(s.logger, err).ErrorContext(ctx, "analysis failed",
		"kind", kind,
		"duration", time.Since(start),
	)
	return err
}

// recordMatrixOutcome records cell and ranking metrics for a finished
// matrix-level analysis
func (s *Service) recordMatrixOutcome(ctx context.Context, kind, reportID string, matrix *correlation.CorrelationMatrix, ranked int, start time.Time) {
	var defined, undefined int64
	for _, cell := range matrix.Cells() {
		if cell.Valid() {
			defined++
		} else {
			undefined++
		}
	}

	infrastructure.RecordMatrixCells(ctx, s.metrics, kind, defined, undefined)
	infrastructure.RecordRankedPairs(ctx, s.metrics, kind, int64(ranked))
	infrastructure.RecordAnalysisMetrics(ctx, s.metrics, reportID, kind, time.Since(start), nil)
	infrastructure.AddSpanEvent(ctx, "analysis.matrix_complete", map[string]interface{}{
		"report_id":       reportID,
		"kind":            kind,
		"defined_cells":   defined,
		"undefined_cells": undefined,
	})
}

// normalizeTicker uppercases a symbol the way vendor feeds list them
func normalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// normalizeTickers returns a normalized copy, leaving the request slice alone
func normalizeTickers(tickers []string) []string {
	out := make([]string, len(tickers))
	for i, ticker := range tickers {
		out[i] = normalizeTicker(ticker)
	}
	return out
}
