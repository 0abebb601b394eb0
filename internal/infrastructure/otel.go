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
	ServiceName    = "cmx-pulse"
	ServiceVersion = "v1.0.0"
	MeterName      = "cmxcli"
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
		TraceExporter:  "stdout",
		MetricExporter: "prometheus",
		EnableMetrics:  true,
		EnableTracing:  true,
		SampleRatio:    1.0,
	}
}

// InitializeOTel initializes tracing and metrics providers
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

	// Fall back to the global (noop by default) providers when an exporter
	// is disabled so callers never see a nil tracer or meter.
	if providers.Tracer == nil {
		providers.Tracer = otel.Tracer(MeterName)
	}
	if providers.Meter == nil {
		providers.Meter = otel.Meter(MeterName)
	}

	return providers, nil
}

func createResource(cfg *OTelConfig) (*resource.Resource, error) {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironment(cfg.Environment),
		attribute.String("service.instance.id", generateInstanceID()),
	), nil
}

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

// Metrics holds all application-specific metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	// Risk scoring metrics
	RiskRefreshTotal    metric.Int64Counter
	RiskRefreshDuration metric.Float64Histogram
	RiskRefreshErrors   metric.Int64Counter
	RiskCompositeScore  metric.Int64Gauge

	// Import metrics
	ImportRunsTotal      metric.Int64Counter
	ImportFilesTotal     metric.Int64Counter
	ImportSnapshotsTotal metric.Int64Counter
	ImportErrors         metric.Int64Counter

	// WebSocket metrics
	WebSocketClients metric.Int64UpDownCounter
}

// CreateMetrics creates application-specific metrics on the given meter
func CreateMetrics(meter metric.Meter) (*Metrics, error) {
	httpRequestsTotal, err := meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	httpRequestDuration, err := meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	httpActiveRequests, err := meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	riskRefreshTotal, err := meter.Int64Counter(
		"risk_refresh_total",
		metric.WithDescription("Total number of risk score refreshes"),
	)
	if err != nil {
		return nil, err
	}

	riskRefreshDuration, err := meter.Float64Histogram(
		"risk_refresh_duration_seconds",
		metric.WithDescription("Risk score refresh duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	riskRefreshErrors, err := meter.Int64Counter(
		"risk_refresh_errors_total",
		metric.WithDescription("Total number of failed risk score refreshes"),
	)
	if err != nil {
		return nil, err
	}

	riskCompositeScore, err := meter.Int64Gauge(
		"risk_composite_score",
		metric.WithDescription("Latest composite risk score per metal"),
	)
	if err != nil {
		return nil, err
	}

	importRunsTotal, err := meter.Int64Counter(
		"import_runs_total",
		metric.WithDescription("Total number of import runs"),
	)
	if err != nil {
		return nil, err
	}

	importFilesTotal, err := meter.Int64Counter(
		"import_files_total",
		metric.WithDescription("Total number of report files imported"),
	)
	if err != nil {
		return nil, err
	}

	importSnapshotsTotal, err := meter.Int64Counter(
		"import_snapshots_total",
		metric.WithDescription("Total number of snapshots upserted by imports"),
	)
	if err != nil {
		return nil, err
	}

	importErrors, err := meter.Int64Counter(
		"import_errors_total",
		metric.WithDescription("Total number of failed import runs"),
	)
	if err != nil {
		return nil, err
	}

	webSocketClients, err := meter.Int64UpDownCounter(
		"websocket_clients",
		metric.WithDescription("Number of connected WebSocket clients"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		HTTPRequestsTotal:   httpRequestsTotal,
		HTTPRequestDuration: httpRequestDuration,
		HTTPActiveRequests:  httpActiveRequests,

		RiskRefreshTotal:    riskRefreshTotal,
		RiskRefreshDuration: riskRefreshDuration,
		RiskRefreshErrors:   riskRefreshErrors,
		RiskCompositeScore:  riskCompositeScore,

		ImportRunsTotal:      importRunsTotal,
		ImportFilesTotal:     importFilesTotal,
		ImportSnapshotsTotal: importSnapshotsTotal,
		ImportErrors:         importErrors,

		WebSocketClients: webSocketClients,
	}, nil
}

// RecordRiskRefresh records a completed or failed refresh for one metal.
// Safe to call with a nil metrics struct.
func RecordRiskRefresh(ctx context.Context, m *Metrics, metal string, duration time.Duration, success bool) {
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("metal", metal),
	}

	m.RiskRefreshTotal.Add(ctx, 1, metric.WithAttributes(attrs...))

	statusAttr := attribute.String("status", "success")
	if !success {
		statusAttr = attribute.String("status", "failure")
		m.RiskRefreshErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	m.RiskRefreshDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(append(attrs, statusAttr)...))
}

// RecordCompositeScore publishes the latest composite score for one metal
func RecordCompositeScore(ctx context.Context, m *Metrics, metal string, composite int) {
	if m == nil {
		return
	}
	m.RiskCompositeScore.Record(ctx, int64(composite),
		metric.WithAttributes(attribute.String("metal", metal)))
}

// RecordImportRun records the outcome of one import run
func RecordImportRun(ctx context.Context, m *Metrics, files, snapshots int, err error) {
	if m == nil {
		return
	}

	m.ImportRunsTotal.Add(ctx, 1)
	m.ImportFilesTotal.Add(ctx, int64(files))
	m.ImportSnapshotsTotal.Add(ctx, int64(snapshots))
	if err != nil {
		m.ImportErrors.Add(ctx, 1)
	}
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

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}
