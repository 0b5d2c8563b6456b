package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	ServiceName    = "corrlens"
	ServiceVersion = "1.0.0"
	MeterName      = "corrlens"
)

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	TraceExporter  string // "stdout", "none"
	MetricExporter string // "prometheus", "none"
	EnableMetrics  bool
	EnableTracing  bool
	SampleRatio    float64
}

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// DefaultOTelConfig returns a default OpenTelemetry configuration
func DefaultOTelConfig() *OTelConfig {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	return &OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: ServiceVersion,
		Environment:    env,
		TraceExporter:  "none",
		MetricExporter: "prometheus",
		EnableMetrics:  true,
		EnableTracing:  false,
		SampleRatio:    1.0,
	}
}

// InitializeOTel initializes OpenTelemetry with tracing and metrics providers
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = DefaultOTelConfig()
	}

	ctx := context.Background()

	logger.InfoContext(ctx, "Initializing OpenTelemetry",
		slog.String("service", cfg.ServiceName),
		slog.String("version", cfg.ServiceVersion),
		slog.String("environment", cfg.Environment),
		slog.Bool("tracing_enabled", cfg.EnableTracing),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))

	res, err := createResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	providers := &OTelProviders{
		Logger: logger,
	}

	if cfg.EnableTracing {
		if err := initializeTracing(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	if cfg.EnableMetrics {
		if err := initializeMetrics(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.InfoContext(ctx, "OpenTelemetry initialization complete",
		slog.Bool("tracing_enabled", cfg.EnableTracing),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))

	return providers, nil
}

// createResource creates the OpenTelemetry resource
func createResource(cfg *OTelConfig) (*resource.Resource, error) {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironment(cfg.Environment),
		attribute.String("service.instance.id", generateInstanceID()),
	), nil
}

// initializeTracing sets up OpenTelemetry tracing
func initializeTracing(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err = stdouttrace.New(
			stdouttrace.WithPrettyPrint(),
		)
	case "none":
		return nil
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)

	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))

	otel.SetTracerProvider(tp)

	providers.Logger.InfoContext(ctx, "Tracing initialized",
		slog.String("exporter", cfg.TraceExporter),
		slog.Float64("sample_ratio", cfg.SampleRatio))

	return nil
}

// initializeMetrics sets up OpenTelemetry metrics
func initializeMetrics(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	switch cfg.MetricExporter {
	case "prometheus":
		exporter, err := prometheus.New()
		if err != nil {
			return fmt.Errorf("failed to create prometheus exporter: %w", err)
		}

		providers.PrometheusHTTP = promhttp.Handler()

		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)

		providers.MeterProvider = mp
		providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))

		otel.SetMeterProvider(mp)

	case "none":
		return nil
	default:
		return fmt.Errorf("unsupported metric exporter: %s", cfg.MetricExporter)
	}

	providers.Logger.InfoContext(ctx, "Metrics initialized",
		slog.String("exporter", cfg.MetricExporter))

	return nil
}

// CreateBusinessMetrics creates application-specific metrics
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	analysesTotal, err := meter.Int64Counter(
		"analyses_total",
		metric.WithDescription("Total number of correlation analyses executed"),
	)
	if err != nil {
		return nil, err
	}

	analysisDuration, err := meter.Float64Histogram(
		"analysis_duration_seconds",
		metric.WithDescription("Correlation analysis duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	activeAnalyses, err := meter.Int64UpDownCounter(
		"active_analyses",
		metric.WithDescription("Number of analyses currently running"),
	)
	if err != nil {
		return nil, err
	}

	analysisErrors, err := meter.Int64Counter(
		"analysis_errors_total",
		metric.WithDescription("Total number of failed analyses"),
	)
	if err != nil {
		return nil, err
	}

	seriesFetchFailures, err := meter.Int64Counter(
		"series_fetch_failures_total",
		metric.WithDescription("Total number of tickers whose return series could not be resolved"),
	)
	if err != nil {
		return nil, err
	}

	matrixCellsTotal, err := meter.Int64Counter(
		"matrix_cells_total",
		metric.WithDescription("Total number of computed matrix cells by status"),
	)
	if err != nil {
		return nil, err
	}

	rankedPairsReturned, err := meter.Int64Counter(
		"ranked_pairs_returned_total",
		metric.WithDescription("Total number of ranked pairs included in reports"),
	)
	if err != nil {
		return nil, err
	}

	reportsExported, err := meter.Int64Counter(
		"reports_exported_total",
		metric.WithDescription("Total number of report files written"),
	)
	if err != nil {
		return nil, err
	}

	return &BusinessMetrics{
		AnalysesTotal:       analysesTotal,
		AnalysisDuration:    analysisDuration,
		ActiveAnalyses:      activeAnalyses,
		AnalysisErrors:      analysisErrors,
		SeriesFetchFailures: seriesFetchFailures,
		MatrixCellsTotal:    matrixCellsTotal,
		RankedPairsReturned: rankedPairsReturned,
		ReportsExported:     reportsExported,
	}, nil
}

// BusinessMetrics holds all application-specific metrics
type BusinessMetrics struct {
	AnalysesTotal       metric.Int64Counter
	AnalysisDuration    metric.Float64Histogram
	ActiveAnalyses      metric.Int64UpDownCounter
	AnalysisErrors      metric.Int64Counter
	SeriesFetchFailures metric.Int64Counter
	MatrixCellsTotal    metric.Int64Counter
	RankedPairsReturned metric.Int64Counter
	ReportsExported     metric.Int64Counter
}

// Shutdown gracefully shuts down OpenTelemetry providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %v", errs)
	}

	p.Logger.InfoContext(ctx, "OpenTelemetry shutdown complete")
	return nil
}

// generateInstanceID generates a unique instance identifier
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// TraceIDFromContext extracts trace ID from context for logging correlation
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// AddSpanEvent adds an event to the current span with structured attributes
func AddSpanEvent(ctx context.Context, name string, attributes map[string]interface{}) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	attrs := make([]attribute.KeyValue, 0, len(attributes))
	for k, v := range attributes {
		switch val := v.(type) {
		case string:
			attrs = append(attrs, attribute.String(k, val))
		case int:
			attrs = append(attrs, attribute.Int(k, val))
		case int64:
			attrs = append(attrs, attribute.Int64(k, val))
		case float64:
			attrs = append(attrs, attribute.Float64(k, val))
		case bool:
			attrs = append(attrs, attribute.Bool(k, val))
		default:
			attrs = append(attrs, attribute.String(k, fmt.Sprintf("%v", val)))
		}
	}

	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}

// RecordAnalysisMetrics records metrics for a completed analysis run
func RecordAnalysisMetrics(ctx context.Context, metrics *BusinessMetrics, analysisID, kind string, duration time.Duration, err error) {
	if metrics == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("analysis.kind", kind),
	}

	metrics.AnalysesTotal.Add(ctx, 1, metric.WithAttributes(attrs...))

	statusAttr := attribute.String("status", "success")
	if err != nil {
		statusAttr = attribute.String("status", "failure")
	}
	durationAttrs := append(attrs, statusAttr)
	metrics.AnalysisDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(durationAttrs...))

	if err != nil {
		errorAttrs := append(attrs, attribute.String("error.type", fmt.Sprintf("%T", err)))
		metrics.AnalysisErrors.Add(ctx, 1, metric.WithAttributes(errorAttrs...))
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent("analysis.metrics_recorded",
			trace.WithAttributes(
				attribute.String("analysis.id", analysisID),
				attribute.Bool("success", err == nil),
				attribute.Float64("duration_seconds", duration.Seconds()),
			),
		)
	}
}

// RecordSeriesFetchFailures records tickers that could not be resolved
func RecordSeriesFetchFailures(ctx context.Context, metrics *BusinessMetrics, kind string, count int64) {
	if metrics == nil || count == 0 {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("analysis.kind", kind),
	}

	metrics.SeriesFetchFailures.Add(ctx, count, metric.WithAttributes(attrs...))
}

// RecordMatrixCells records computed matrix cell counts by status
func RecordMatrixCells(ctx context.Context, metrics *BusinessMetrics, kind string, defined, undefined int64) {
	if metrics == nil {
		return
	}

	if defined > 0 {
		metrics.MatrixCellsTotal.Add(ctx, defined, metric.WithAttributes(
			attribute.String("analysis.kind", kind),
			attribute.String("status", "defined"),
		))
	}
	if undefined > 0 {
		metrics.MatrixCellsTotal.Add(ctx, undefined, metric.WithAttributes(
			attribute.String("analysis.kind", kind),
			attribute.String("status", "undefined"),
		))
	}
}

// RecordRankedPairs records the number of ranked pairs returned in a report
func RecordRankedPairs(ctx context.Context, metrics *BusinessMetrics, kind string, count int64) {
	if metrics == nil || count == 0 {
		return
	}

	metrics.RankedPairsReturned.Add(ctx, count, metric.WithAttributes(
		attribute.String("analysis.kind", kind),
	))
}

// RecordReportExported records a report file written to disk
func RecordReportExported(ctx context.Context, metrics *BusinessMetrics, format string) {
	if metrics == nil {
		return
	}

	metrics.ReportsExported.Add(ctx, 1, metric.WithAttributes(
		attribute.String("format", format),
	))
}

// RecordActiveAnalysisChange records changes in the running analysis count
func RecordActiveAnalysisChange(ctx context.Context, metrics *BusinessMetrics, delta int64, kind string) {
	if metrics == nil {
		return
	}

	metrics.ActiveAnalyses.Add(ctx, delta, metric.WithAttributes(
		attribute.String("analysis.kind", kind),
	))
}
