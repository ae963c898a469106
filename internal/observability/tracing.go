package observability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc/credentials"

	"github.com/jonit-dev/vibe-planner-mcp-sub000/pkg/version"
)

const (
	defaultBatchTimeout = 5 * time.Second
	defaultServiceName  = "vibeplanner"

	// TracerName is the instrumentation scope used by the planner services.
	TracerName = "github.com/jonit-dev/vibe-planner-mcp-sub000"
)

// TracingOption is a functional option for configuring tracing initialization.
type TracingOption func(*tracingOptions)

type tracingOptions struct {
	sampler      sdktrace.Sampler
	resource     *resource.Resource
	batchTimeout time.Duration
	exporter     sdktrace.SpanExporter
}

// WithSampler sets a custom sampler for the tracer provider.
func WithSampler(sampler sdktrace.Sampler) TracingOption {
	return func(o *tracingOptions) {
		o.sampler = sampler
	}
}

// WithResource sets a custom resource for the tracer provider.
func WithResource(res *resource.Resource) TracingOption {
	return func(o *tracingOptions) {
		o.resource = res
	}
}

// WithBatchTimeout sets the maximum time between batch exports.
func WithBatchTimeout(timeout time.Duration) TracingOption {
	return func(o *tracingOptions) {
		o.batchTimeout = timeout
	}
}

// WithSpanExporter replaces the OTLP exporter, e.g. with an in-memory one.
func WithSpanExporter(exporter sdktrace.SpanExporter) TracingOption {
	return func(o *tracingOptions) {
		o.exporter = exporter
	}
}

// InitTracing initializes distributed tracing. Supported providers are "otlp"
// and "noop". When cfg.Enabled is false, or the provider is noop, the
// returned provider records nothing.
func InitTracing(ctx context.Context, cfg TracingConfig, opts ...TracingOption) (*sdktrace.TracerProvider, error) {
	if !cfg.Enabled {
		return sdktrace.NewTracerProvider(), nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, WrapObservabilityError(ErrExporterConnection, "invalid tracing configuration", err)
	}

	options := &tracingOptions{
		batchTimeout: defaultBatchTimeout,
	}
	for _, opt := range opts {
		opt(options)
	}

	if options.sampler == nil {
		options.sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	if options.resource == nil {
		res, err := newResource(ctx, cfg.ServiceName)
		if err != nil {
			return nil, err
		}
		options.resource = res
	}

	exporter := options.exporter
	switch provider := strings.ToLower(cfg.Provider); provider {
	case "otlp":
		if exporter != nil {
			break
		}
		otlpOpts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
		}

		switch {
		case cfg.TLSCertFile != "":
			creds, err := credentials.NewClientTLSFromFile(cfg.TLSCertFile, "")
			if err != nil {
				return nil, WrapObservabilityError(ErrExporterConnection, "failed to load TLS credentials", err)
			}
			otlpOpts = append(otlpOpts, otlptracegrpc.WithTLSCredentials(creds))
		case cfg.InsecureMode:
			otlpOpts = append(otlpOpts, otlptracegrpc.WithInsecure())
		default:
			otlpOpts = append(otlpOpts, otlptracegrpc.WithTLSCredentials(credentials.NewTLS(nil)))
		}

		var err error
		exporter, err = otlptracegrpc.New(ctx, otlpOpts...)
		if err != nil {
			return nil, NewExporterConnectionError(cfg.Endpoint, err)
		}

	case "noop":
		return sdktrace.NewTracerProvider(), nil

	default:
		return nil, NewObservabilityError(ErrExporterConnection, fmt.Sprintf("unsupported tracing provider: %s", cfg.Provider))
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(options.batchTimeout),
		),
		sdktrace.WithSampler(options.sampler),
		sdktrace.WithResource(options.resource),
	)

	otel.SetTracerProvider(tp)

	return tp, nil
}

// ShutdownTracing flushes pending spans and shuts the provider down.
func ShutdownTracing(ctx context.Context, provider *sdktrace.TracerProvider) error {
	if provider == nil {
		return nil
	}

	if err := provider.Shutdown(ctx); err != nil {
		return WrapObservabilityError(ErrShutdownTimeout, "failed to shutdown tracer provider", err)
	}

	return nil
}

func newResource(ctx context.Context, serviceName string) (*resource.Resource, error) {
	if serviceName == "" {
		serviceName = defaultServiceName
	}

	res, err := resource.New(
		ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version.Version),
		),
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, WrapObservabilityError(ErrExporterConnection, "failed to create resource", err)
	}
	return res, nil
}
