package monitoring

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/bocado-ai/gate/internal/config"
	"github.com/bocado-ai/gate/pkg/logger"
)

const defaultServiceName = "bocado-gate"

// TracingManager owns the tracer provider and exposes span helpers.
type TracingManager struct {
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
	logger   logger.Logger
}

// NewTracingManager initializes OpenTelemetry with a Jaeger exporter when
// tracing is enabled. Disabled tracing yields a manager backed by the global
// no-op tracer.
func NewTracingManager(cfg config.TracingConfig, environment string, log logger.Logger) (*TracingManager, error) {
	name := cfg.ServiceName
	if name == "" {
		name = defaultServiceName
	}
	if !cfg.Enabled {
		log.Info(context.Background(), "Tracing is disabled")
		return &TracingManager{tracer: otel.Tracer(name), logger: log}, nil
	}

	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(
		jaeger.WithEndpoint(cfg.JaegerEndpoint),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create Jaeger exporter: %w", err)
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(name),
			attribute.String("environment", environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	provider := newProvider(sdktrace.WithBatcher(exporter), res, cfg.SampleRate)
	log.Info(context.Background(), "Tracing initialized",
		logger.String("endpoint", cfg.JaegerEndpoint),
		logger.Float64("sample_rate", cfg.SampleRate),
	)
	return &TracingManager{tracer: provider.Tracer(name), provider: provider, logger: log}, nil
}

// NewTracingManagerWithProcessor is used by tests to capture spans.
func NewTracingManagerWithProcessor(sp sdktrace.SpanProcessor, log logger.Logger) *TracingManager {
	provider := newProvider(sdktrace.WithSpanProcessor(sp), resource.Default(), 1)
	return &TracingManager{tracer: provider.Tracer(defaultServiceName), provider: provider, logger: log}
}

func newProvider(opt sdktrace.TracerProviderOption, res *resource.Resource, rate float64) *sdktrace.TracerProvider {
	if rate <= 0 || rate > 1 {
		rate = 1
	}
	provider := sdktrace.NewTracerProvider(
		opt,
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return provider
}

// Tracer returns the tracer used for HTTP server spans.
func (tm *TracingManager) Tracer() trace.Tracer { return tm.tracer }

// StartSpan starts a span with optional attributes.
func (tm *TracingManager) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tm.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// RecordError marks the span in ctx as failed.
func (tm *TracingManager) RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// TraceID returns the trace id of ctx, or "".
func TraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

// Trace runs fn inside a span named operation.
func (tm *TracingManager) Trace(ctx context.Context, operation string, fn func(context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := tm.StartSpan(ctx, operation, attrs...)
	defer span.End()

	if err := fn(ctx); err != nil {
		tm.RecordError(ctx, err)
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// Shutdown flushes pending spans.
func (tm *TracingManager) Shutdown(ctx context.Context) error {
	if tm.provider == nil {
		return nil
	}
	if err := tm.provider.Shutdown(ctx); err != nil {
		tm.logger.Error(ctx, "Failed to shutdown tracing provider", err)
		return err
	}
	return nil
}
