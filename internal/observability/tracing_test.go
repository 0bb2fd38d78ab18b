package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/vanshika/indexbench/internal/config"
)

func TestSetupTracingDisabled(t *testing.T) {
	tracer, shutdown, err := SetupTracing(context.Background(), config.TracingConfig{})
	require.NoError(t, err)
	assert.Nil(t, tracer)
	assert.NoError(t, shutdown(context.Background()))
}

func TestNewProviderRecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := NewProvider(sdktrace.WithSpanProcessor(recorder), nil)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, span := tp.Tracer(TracerName).Start(context.Background(), "indexbench.run")
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "indexbench.run", spans[0].Name())
	assert.Equal(t, TracerName, spans[0].InstrumentationScope().Name)
}
