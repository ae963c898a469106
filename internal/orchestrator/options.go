package orchestrator

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/observability"
)

// Option is a functional option shared by the planning services.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *observability.Metrics
	now     func() time.Time
}

// WithLogger sets the logger for service operations.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTracer sets the OpenTelemetry tracer for distributed tracing.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithMetrics sets the counters recorded by the services. Default: none.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(o *options) {
		o.metrics = metrics
	}
}

// WithNow sets the time source used for completion dates.
func WithNow(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger: slog.Default(),
		tracer: trace.NewNoopTracerProvider().Tracer("orchestrator"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// completionNow returns the current time as a completion date.
func (o options) completionNow() *time.Time {
	t := o.now().UTC()
	return &t
}
