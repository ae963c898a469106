package observability

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"google.golang.org/grpc/credentials"
)

// Metric names recorded by the planner services.
const (
	MetricTasksSelected         = "vibeplanner.tasks.selected"
	MetricTaskStatusTransitions = "vibeplanner.tasks.status_transitions"
	MetricTaskValidations       = "vibeplanner.tasks.validations"
)

// InitMetrics returns a meter provider for cfg. Supported providers are
// "otlp" (pushes to a collector over gRPC) and "noop".
func InitMetrics(ctx context.Context, cfg MetricsConfig) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		return noop.NewMeterProvider(), nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, WrapObservabilityError(ErrExporterConnection, "invalid metrics configuration", err)
	}

	switch strings.ToLower(cfg.Provider) {
	case "otlp":
		return initOTLPProvider(ctx, cfg)
	case "noop":
		return noop.NewMeterProvider(), nil
	default:
		return nil, NewObservabilityError(ErrExporterConnection, fmt.Sprintf("unsupported metrics provider: %s", cfg.Provider))
	}
}

func initOTLPProvider(ctx context.Context, cfg MetricsConfig) (metric.MeterProvider, error) {
	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.InsecureMode {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	} else {
		opts = append(opts, otlpmetricgrpc.WithTLSCredentials(credentials.NewTLS(nil)))
	}

	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, NewExporterConnectionError(cfg.Endpoint, err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
	), nil
}

// ShutdownMetrics flushes and stops provider if it is an SDK provider.
func ShutdownMetrics(ctx context.Context, provider metric.MeterProvider) error {
	sdkProvider, ok := provider.(*sdkmetric.MeterProvider)
	if !ok {
		return nil
	}
	if err := sdkProvider.Shutdown(ctx); err != nil {
		return WrapObservabilityError(ErrShutdownTimeout, "failed to shutdown meter provider", err)
	}
	return nil
}

// Metrics records planner counters. A nil *Metrics records nothing.
type Metrics struct {
	selected    metric.Int64Counter
	transitions metric.Int64Counter
	validations metric.Int64Counter
}

// NewMetrics creates the planner instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	selected, err := meter.Int64Counter(MetricTasksSelected,
		metric.WithDescription("Next-task selections, by whether a task was found"))
	if err != nil {
		return nil, WrapObservabilityError(ErrMetricsRegistration, MetricTasksSelected, err)
	}

	transitions, err := meter.Int64Counter(MetricTaskStatusTransitions,
		metric.WithDescription("Task status changes, by from and to status"))
	if err != nil {
		return nil, WrapObservabilityError(ErrMetricsRegistration, MetricTaskStatusTransitions, err)
	}

	validations, err := meter.Int64Counter(MetricTaskValidations,
		metric.WithDescription("Validation outcomes reported for tasks"))
	if err != nil {
		return nil, WrapObservabilityError(ErrMetricsRegistration, MetricTaskValidations, err)
	}

	return &Metrics{
		selected:    selected,
		transitions: transitions,
		validations: validations,
	}, nil
}

// TaskSelected counts one next-task selection.
func (m *Metrics) TaskSelected(ctx context.Context, found bool) {
	if m == nil {
		return
	}
	m.selected.Add(ctx, 1, metric.WithAttributes(attribute.Bool("found", found)))
}

// StatusTransition counts a task moving between two statuses.
func (m *Metrics) StatusTransition(ctx context.Context, from, to string) {
	if m == nil || from == to {
		return
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

// Validation counts a reported validation outcome.
func (m *Metrics) Validation(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.validations.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
