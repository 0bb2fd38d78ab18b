package graph

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracedClient wraps a Client and records one span per statement.
//
// Span names:
//   - ExecuteRead:  "indexbench.graph.read"
//   - ExecuteWrite: "indexbench.graph.write"
//   - VerifyConnectivity: "indexbench.graph.verify"
type TracedClient struct {
	inner  Client
	tracer trace.Tracer
}

// NewTracedClient wraps inner with spans created by tracer.
func NewTracedClient(inner Client, tracer trace.Tracer) *TracedClient {
	return &TracedClient{inner: inner, tracer: tracer}
}

func (c *TracedClient) ExecuteWrite(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	ctx, span := c.tracer.Start(ctx, "indexbench.graph.write", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	res, err := c.inner.ExecuteWrite(ctx, cypher, params)
	finishStatement(span, cypher, res, err)
	return res, err
}

func (c *TracedClient) ExecuteRead(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	ctx, span := c.tracer.Start(ctx, "indexbench.graph.read", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	res, err := c.inner.ExecuteRead(ctx, cypher, params)
	finishStatement(span, cypher, res, err)
	return res, err
}

func (c *TracedClient) VerifyConnectivity(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "indexbench.graph.verify")
	defer span.End()

	err := c.inner.VerifyConnectivity(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *TracedClient) Close(ctx context.Context) error {
	return c.inner.Close(ctx)
}

func finishStatement(span trace.Span, cypher string, res Result, err error) {
	span.SetAttributes(
		attribute.String("db.system", "neo4j"),
		attribute.String("db.statement", normalize(cypher)),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if code := ErrorCode(err); code != "" {
			span.SetAttributes(attribute.String("db.neo4j.code", code))
		}
		return
	}
	span.SetAttributes(
		attribute.Int("db.rows", len(res.Records)),
		attribute.Int64("db.neo4j.available_after_ms", res.Summary.AvailableAfter.Milliseconds()),
	)
	span.SetStatus(codes.Ok, "")
}
