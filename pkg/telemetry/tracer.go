package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/credentials/insecure"
)

// Tracer wraps the OpenTelemetry tracer with solver-specific span
// helpers.
type Tracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	config   TracingConfig
}

// NewTracer creates a new tracer with the given configuration.
func NewTracer(cfg TracingConfig, serviceName, serviceVersion, environment string) (*Tracer, error) {
	if !cfg.Enabled {
		return &Tracer{
			provider: sdktrace.NewTracerProvider(),
			tracer:   otel.Tracer(serviceName),
			config:   cfg,
		}, nil
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
			attribute.String("environment", environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace resource: %w", err)
	}

	var exporter sdktrace.SpanExporter
	switch cfg.Exporter {
	case "otlp":
		exporter, err = createOTLPExporter(cfg)
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "none":
		exporter = nil
	default:
		return nil, fmt.Errorf("unsupported trace exporter: %s", cfg.Exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	sampler := sdktrace.ParentBased(
		sdktrace.TraceIDRatioBased(cfg.SamplingRate),
	)

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	}
	if exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(
			exporter,
			sdktrace.WithMaxExportBatchSize(cfg.MaxExportBatchSize),
			sdktrace.WithExportTimeout(cfg.ExportTimeout),
		))
	}

	provider := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	return &Tracer{
		provider: provider,
		tracer:   provider.Tracer(serviceName),
		config:   cfg,
	}, nil
}

// createOTLPExporter creates an OTLP gRPC exporter.
func createOTLPExporter(cfg TracingConfig) (sdktrace.SpanExporter, error) {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(insecure.NewCredentials()))
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(cfg.Headers))
	}
	return otlptracegrpc.New(context.Background(), opts...)
}

// Start begins a new span with the given name.
func (t *Tracer) Start(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, spanName, opts...)
}

// StartSpan starts a span with the given attributes.
func (t *Tracer) StartSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, operation, trace.WithAttributes(attrs...))
}

// StartRunSpan starts a span covering one solver run.
func (t *Tracer) StartRunSpan(ctx context.Context, runID string, constraints, iterations int) (context.Context, trace.Span) {
	return t.StartSpan(ctx, "run.solve",
		AttrRunID.String(runID),
		attribute.Int("run.constraints", constraints),
		attribute.Int("run.iterations", iterations),
	)
}

// StartIterationSpan starts a span covering one pass over the
// constraint list.
func (t *Tracer) StartIterationSpan(ctx context.Context, runID string, iteration int) (context.Context, trace.Span) {
	return t.StartSpan(ctx, "iteration.solve",
		AttrRunID.String(runID),
		AttrIteration.Int(iteration),
	)
}

// StartConstraintSpan starts a span covering one constraint evaluation.
func (t *Tracer) StartConstraintSpan(ctx context.Context, constraintID, kind string) (context.Context, trace.Span) {
	return t.StartSpan(ctx, "constraint.evaluate",
		AttrConstraintID.String(constraintID),
		AttrConstraintKind.String(kind),
	)
}

// RecordError records an error on the span.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// RecordSuccess marks the span as successful.
func RecordSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// Shutdown gracefully shuts down the tracer, flushing pending spans.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}

// ForceFlush forces all pending spans to be exported immediately.
func (t *Tracer) ForceFlush(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	return t.provider.ForceFlush(ctx)
}

// TraceID returns the trace ID of the current span in the context.
func TraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return ""
	}
	return span.SpanContext().TraceID().String()
}

// Common attribute keys for alignment tracing.
var (
	AttrRunID          = attribute.Key("run.id")
	AttrIteration      = attribute.Key("run.iteration")
	AttrConstraintID   = attribute.Key("constraint.id")
	AttrConstraintKind = attribute.Key("constraint.kind")
	AttrStatus         = attribute.Key("constraint.status")
	AttrAngleError     = attribute.Key("constraint.angle_error")
	AttrComponent      = attribute.Key("component.name")
)
