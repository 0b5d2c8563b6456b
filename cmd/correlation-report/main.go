package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"corrlens/internal/analytics"
	"corrlens/internal/config"
	"corrlens/internal/dataset"
	"corrlens/internal/exporter"
	"corrlens/internal/infrastructure"
	"corrlens/internal/series"
	"corrlens/pkg/contracts"
	"corrlens/pkg/contracts/domain"
)

func main() {
	dataDir := flag.String("data", "", "directory with daily bar files (defaults to configured data dir)")
	tickerList := flag.String("tickers", "", "comma-separated ticker symbols (matrix defaults to every ticker in the data dir)")
	method := flag.String("method", "pearson", "correlation method: pearson, spearman, or combined")
	dateFrom := flag.String("from", "", "analysis window start, YYYY-MM-DD (defaults to configured window)")
	dateTo := flag.String("to", "", "analysis window end, YYYY-MM-DD (defaults to configured window)")
	topK := flag.Int("top", 0, "ranking depth for matrix analyses (defaults to configured top_k)")
	outputDir := flag.String("out", "", "output directory for report files (defaults to configured reports dir)")
	configFile := flag.String("config", "", "config file path (defaults to corrlens.yaml lookup)")
	pair := flag.Bool("pair", false, "run a two-ticker analysis with p-value instead of a matrix")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	var cfg *config.Config
	var err error
	if *configFile != "" {
		cfg, err = config.LoadFromFile(*configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	ctx := infrastructure.EnsureTraceID(context.Background())

	metrics, providers := setupMetrics(ctx, cfg, logger)
	if providers != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := providers.Shutdown(shutdownCtx); err != nil {
				logger.Error("Error shutting down OpenTelemetry", "error", err)
			}
		}()
	}

	// Load the bar files once; every analysis reads from this provider
	dir := *dataDir
	if dir == "" {
		dir = cfg.GetDataDir()
	}
	provider := dataset.NewProvider(dir, logger)

	logger.InfoContext(ctx, "Loading bar files", "dir", dir)
	if err := provider.Load(ctx); err != nil {
		logger.ErrorContext(ctx, "Failed to load bar files", "dir", dir, "error", err)
		os.Exit(1)
	}

	available := provider.Tickers()
	if len(available) == 0 {
		logger.ErrorContext(ctx, "No bar files found",
			"dir", dir,
			"hint", "expected CSV or XLSX files with daily bars")
		os.Exit(1)
	}
	logger.InfoContext(ctx, "Loaded bar files", "tickers", len(available))

	tickers := splitTickers(*tickerList)
	if len(tickers) == 0 && !*pair {
		// A matrix over everything in the data directory
		tickers = available
	}

	resolver := series.NewResolver(provider, series.Options{
		MaxConcurrency: cfg.Analysis.MaxConcurrency,
		RateLimit:      cfg.Analysis.FetchRateLimit,
		Burst:          cfg.Analysis.FetchBurst,
		FetchTimeout:   cfg.Analysis.FetchTimeout,
	}, logger)

	svc := analytics.NewService(resolver, cfg.Analysis, metrics, logger)

	out := *outputDir
	if out == "" {
		out = cfg.GetReportsDir()
	}
	exp := exporter.NewExporter(out, metrics, logger)

	switch {
	case *pair:
		runPair(ctx, svc, exp, tickers, *dateFrom, *dateTo)
	case strings.EqualFold(*method, string(domain.AnalysisMethodCombined)):
		runCombined(ctx, svc, exp, tickers, *dateFrom, *dateTo, *topK)
	default:
		runMatrix(ctx, svc, exp, tickers, *method, *dateFrom, *dateTo, *topK)
	}
}

// runPair computes a two-ticker correlation and writes its report files
func runPair(ctx context.Context, svc *analytics.Service, exp *exporter.Exporter, tickers []string, dateFrom, dateTo string) {
	logger := infrastructure.LoggerWithContext(ctx)

	if len(tickers) != 2 {
		logger.ErrorContext(ctx, "Pair analysis needs exactly two tickers",
			"got", len(tickers),
			"hint", "pass -tickers AAA,BBB")
		os.Exit(1)
	}

	report, err := svc.AnalyzePair(ctx, domain.PairRequest{
		TickerA:  tickers[0],
		TickerB:  tickers[1],
		DateFrom: dateFrom,
		DateTo:   dateTo,
	})
	if err != nil {
		logger.ErrorContext(ctx, "Pair analysis failed", "error", err)
		os.Exit(1)
	}

	files, err := exp.ExportPair(ctx, report)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to export pair report", "error", err)
		os.Exit(1)
	}

	logger.InfoContext(ctx, "Pair report generated successfully",
		"report_id", report.ID,
		"files", len(files))

	printPairReport(report)
	printFiles(files)
}

// runMatrix builds a single-statistic matrix and writes its report files
func runMatrix(ctx context.Context, svc *analytics.Service, exp *exporter.Exporter, tickers []string, method, dateFrom, dateTo string, topK int) {
	logger := infrastructure.LoggerWithContext(ctx)

	report, err := svc.AnalyzeMatrix(ctx, domain.MatrixRequest{
		Tickers:  tickers,
		Method:   method,
		DateFrom: dateFrom,
		DateTo:   dateTo,
		TopK:     topK,
	})
	if err != nil {
		logger.ErrorContext(ctx, "Matrix analysis failed", "error", err)
		os.Exit(1)
	}

	files, err := exp.ExportMatrix(ctx, report)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to export matrix report", "error", err)
		os.Exit(1)
	}

	logger.InfoContext(ctx, "Matrix report generated successfully",
		"report_id", report.ID,
		"method", string(report.Method),
		"tickers", report.TickerCount,
		"files", len(files))

	fmt.Printf("\nCorrelation matrix (%s): %d tickers, %s to %s\n",
		report.Method, report.TickerCount, report.DateFrom, report.DateTo)
	printTopPairs(report.TopPairs)
	printFailures(report.Failures)
	printFiles(files)
}

// runCombined averages Pearson and Spearman matrices and writes the report
func runCombined(ctx context.Context, svc *analytics.Service, exp *exporter.Exporter, tickers []string, dateFrom, dateTo string, topK int) {
	logger := infrastructure.LoggerWithContext(ctx)

	report, err := svc.AnalyzeCombined(ctx, domain.MatrixRequest{
		Tickers:  tickers,
		DateFrom: dateFrom,
		DateTo:   dateTo,
		TopK:     topK,
	})
	if err != nil {
		logger.ErrorContext(ctx, "Combined analysis failed", "error", err)
		os.Exit(1)
	}

	files, err := exp.ExportCombined(ctx, report)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to export combined report", "error", err)
		os.Exit(1)
	}

	logger.InfoContext(ctx, "Combined report generated successfully",
		"report_id", report.ID,
		"tickers", report.TickerCount,
		"files", len(files))

	fmt.Printf("\nCombined correlation matrix: %d tickers, %s to %s\n",
		report.TickerCount, report.DateFrom, report.DateTo)
	printTopPairs(report.TopPairs)
	printFailures(report.Failures)
	printFiles(files)
}

// setupMetrics initializes OpenTelemetry and the Prometheus listener when
// metrics are enabled; disabled metrics leave all recording as no-ops
func setupMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*infrastructure.BusinessMetrics, *infrastructure.OTelProviders) {
	if !cfg.Metrics.Enabled {
		return nil, nil
	}

	otelCfg := infrastructure.DefaultOTelConfig()
	otelCfg.TraceExporter = cfg.Metrics.TraceExporter
	otelCfg.EnableTracing = cfg.Metrics.TraceExporter != "" && cfg.Metrics.TraceExporter != "none"

	providers, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize OpenTelemetry", "error", err)
		os.Exit(1)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to create business metrics", "error", err)
		os.Exit(1)
	}

	if providers.PrometheusHTTP != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", providers.PrometheusHTTP)
		server := &http.Server{
			Addr:              cfg.Metrics.ListenAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("Metrics listener started", "addr", cfg.Metrics.ListenAddr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics listener failed", "error", err)
			}
		}()
	}

	return metrics, providers
}

// splitTickers parses the comma-separated ticker flag
func splitTickers(list string) []string {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	parts := strings.Split(list, ",")
	tickers := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tickers = append(tickers, t)
		}
	}
	return tickers
}

func printPairReport(report *domain.PairReport) {
	fmt.Printf("\n=== PAIR CORRELATION: %s/%s ===\n", report.TickerA, report.TickerB)
	fmt.Printf("Window:      %s to %s\n", report.StartDate, report.EndDate)
	fmt.Printf("Shared days: %d\n", report.SampleDays)
	fmt.Printf("Pearson:     %s\n", scoreString(report.Pearson))
	fmt.Printf("P-value:     %s\n", pValueString(report.PValue))
	fmt.Printf("Spearman:    %s\n", scoreString(report.Spearman))
}

func printTopPairs(pairs []domain.RankedPairEntry) {
	if len(pairs) == 0 {
		fmt.Println("\nNo defined pairs to rank")
		return
	}

	fmt.Println("\n=== TOP CORRELATED PAIRS ===")
	fmt.Println("Rank | Pair                      | Correlation | Shared Days")
	fmt.Println("-----|---------------------------|-------------|------------")
	for _, p := range pairs {
		fmt.Printf("%4d | %-25s | %11s | %11d\n",
			p.Rank, p.TickerA+"/"+p.TickerB, scoreString(p.Score), p.SampleDays)
	}
}

func printFailures(failures map[string]string) {
	if len(failures) == 0 {
		return
	}
	fmt.Printf("\nExcluded tickers (%d):\n", len(failures))
	for _, ticker := range sortedKeys(failures) {
		fmt.Printf("  %s: %s\n", ticker, failures[ticker])
	}
}

func printFiles(files []string) {
	fmt.Println("\nReport files:")
	for _, f := range files {
		fmt.Printf("  %s\n", f)
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func scoreString(f *float64) string {
	if f == nil {
		return "NA"
	}
	return fmt.Sprintf("%.4f", *f)
}

func pValueString(f *float64) string {
	if f == nil {
		return "NA"
	}
	return fmt.Sprintf("%.6f", *f)
}
