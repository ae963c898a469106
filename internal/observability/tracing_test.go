package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitTracingDisabled(t *testing.T) {
	tp, err := InitTracing(context.Background(), TracingConfig{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, tp)
	assert.NoError(t, ShutdownTracing(context.Background(), tp))
}

func TestInitTracingNoop(t *testing.T) {
	tp, err := InitTracing(context.Background(), TracingConfig{Enabled: true, Provider: "noop", SampleRate: 1})
	require.NoError(t, err)
	assert.NotNil(t, tp)
}

func TestInitTracingInvalid(t *testing.T) {
	_, err := InitTracing(context.Background(), TracingConfig{Enabled: true, Provider: "zipkin", Endpoint: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, NewObservabilityError(ErrExporterConnection, ""))
}

func TestInitTracingExportsSpans(t *testing.T) {
	ctx := context.Background()
	exporter := tracetest.NewInMemoryExporter()

	tp, err := InitTracing(ctx, TracingConfig{
		Enabled:     true,
		Provider:    "otlp",
		Endpoint:    "localhost:4317",
		ServiceName: "planner-test",
		SampleRate:  1,
	}, WithSpanExporter(exporter))
	require.NoError(t, err)

	_, span := tp.Tracer(TracerName).Start(ctx, "plan.get")
	span.End()

	require.NoError(t, tp.ForceFlush(ctx))
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "plan.get", spans[0].Name)

	require.NoError(t, ShutdownTracing(ctx, tp))
}

func TestShutdownTracingNil(t *testing.T) {
	assert.NoError(t, ShutdownTracing(context.Background(), nil))
}
