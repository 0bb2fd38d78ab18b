package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTracedClient_RecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	mem := NewMemoryClient().
		Respond("RETURN 1 as x", Result{Keys: []string{"x"}, Records: []Record{{"x": int64(1)}}}).
		FailSyntax("RETURN RETURN")
	client := NewTracedClient(mem, provider.Tracer("test"))

	ctx := context.Background()
	_, err := client.ExecuteRead(ctx, "RETURN 1 as x", nil)
	require.NoError(t, err)
	_, err = client.ExecuteWrite(ctx, "RETURN RETURN", nil)
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "indexbench.graph.read", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.Int("db.rows", 1))
	assert.Contains(t, spans[0].Attributes(), attribute.String("db.statement", "RETURN 1 as x"))

	assert.Equal(t, "indexbench.graph.write", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Contains(t, spans[1].Attributes(), attribute.String("db.neo4j.code", CodeSyntaxError))
}

func TestTracedClient_DelegatesClose(t *testing.T) {
	mem := NewMemoryClient()
	client := NewTracedClient(mem, sdktrace.NewTracerProvider().Tracer("test"))
	require.NoError(t, client.Close(context.Background()))
	assert.True(t, mem.Closed())
}
