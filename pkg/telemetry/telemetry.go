// Package telemetry exports scan lifecycle events to an OpenTelemetry
// collector over OTLP/gRPC. One root span covers the whole scan; findings
// and completion land on it as span events.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/sqlscout/sqlscout/pkg/duration"
	"github.com/sqlscout/sqlscout/pkg/finding"
)

// Options configures the OTLP exporter.
type Options struct {
	// Endpoint is the collector address (default "localhost:4317").
	Endpoint string

	// ServiceName tags exported spans (default "sqlscout").
	ServiceName string

	// ServiceVersion tags exported spans.
	ServiceVersion string

	// Insecure disables TLS to the collector.
	Insecure bool

	// Headers are added to every export request.
	Headers map[string]string

	// ConnectTimeout bounds exporter setup.
	ConnectTimeout time.Duration

	// ShutdownTimeout bounds the final flush.
	ShutdownTimeout time.Duration
}

// Hook implements the scanner's lifecycle hook on top of a tracer.
type Hook struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	shutdown time.Duration

	mu       sync.Mutex
	rootCtx  context.Context
	rootSpan trace.Span
	findings int
}

// New connects an OTLP exporter and returns a hook. Connection failures
// after setup are handled by the batch exporter without blocking scans.
func New(opts Options) (*Hook, error) {
	if opts.Endpoint == "" {
		opts.Endpoint = "localhost:4317"
	}
	if opts.ServiceName == "" {
		opts.ServiceName = "sqlscout"
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = duration.TelemetryConnect
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = duration.TelemetryShutdown
	}

	var grpcOpts []grpc.DialOption
	if opts.Insecure {
		grpcOpts = append(grpcOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	exporterOpts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(opts.Endpoint),
		otlptracegrpc.WithDialOption(grpcOpts...),
	}
	if opts.Insecure {
		exporterOpts = append(exporterOpts, otlptracegrpc.WithInsecure())
	}
	if len(opts.Headers) > 0 {
		exporterOpts = append(exporterOpts, otlptracegrpc.WithHeaders(opts.Headers))
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()
	exporter, err := otlptracegrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, err
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(opts.ServiceName),
		semconv.ServiceVersion(opts.ServiceVersion),
		attribute.String("service.component", "scanner"),
	)
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(provider)

	h := newWithProvider(provider)
	h.shutdown = opts.ShutdownTimeout
	return h, nil
}

// newWithProvider wires a hook onto an existing provider. Tests use this
// with an in-memory exporter.
func newWithProvider(provider *sdktrace.TracerProvider) *Hook {
	return &Hook{
		provider: provider,
		tracer:   provider.Tracer("sqlscout/scanner"),
		shutdown: duration.TelemetryShutdown,
	}
}

// ScanStarted opens the root span.
func (h *Hook) ScanStarted(scanID, target string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ctx, span := h.tracer.Start(context.Background(), "sqlscout.scan",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("scan_id", scanID),
			attribute.String("target", target),
		),
	)
	h.rootCtx = ctx
	h.rootSpan = span
	h.findings = 0

	span.AddEvent("scan_started", trace.WithAttributes(
		attribute.String("target", target),
	))
}

// FindingReported records one confirmed finding on the root span.
func (h *Hook) FindingReported(f finding.Finding) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rootSpan == nil {
		return
	}
	h.findings++
	h.rootSpan.AddEvent("finding_confirmed", trace.WithAttributes(
		attribute.String("finding_id", f.ID),
		attribute.String("type", f.Type),
		attribute.String("severity", string(f.Severity)),
		attribute.String("location", f.Location),
		attribute.String("parameter", f.Parameter),
		attribute.String("dbms", f.DBMS),
		attribute.Float64("confidence", f.Confidence),
	))
}

// ScanFinished stamps the totals on the root span and closes it.
func (h *Hook) ScanFinished(res *finding.ScanResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rootSpan == nil {
		return
	}

	h.rootSpan.SetAttributes(
		attribute.Int("totals.findings", len(res.Findings)),
		attribute.Int("totals.tested_params", res.TestedParams),
		attribute.Int64("totals.requests", res.Requests),
		attribute.Float64("timing.duration_sec", res.Duration.Seconds()),
	)
	h.rootSpan.AddEvent("scan_completed", trace.WithAttributes(
		attribute.Int("findings", len(res.Findings)),
	))

	if len(res.Findings) > 0 {
		h.rootSpan.SetStatus(codes.Error, "injectable parameters confirmed")
	} else {
		h.rootSpan.SetStatus(codes.Ok, "no injections found")
	}
	h.rootSpan.End()
	h.rootSpan = nil
	h.rootCtx = nil
}

// Close flushes buffered spans and shuts the provider down.
func (h *Hook) Close() error {
	h.mu.Lock()
	if h.rootSpan != nil {
		h.rootSpan.End()
		h.rootSpan = nil
	}
	h.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), h.shutdown)
	defer cancel()
	if err := h.provider.ForceFlush(ctx); err != nil {
		return err
	}
	return h.provider.Shutdown(ctx)
}
