package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// WithDBSpan runs fn inside a MongoDB client span for the given collection.
func WithDBSpan(ctx context.Context, collection, operation string, fn func(ctx context.Context) error) error {
	ctx, span := Tracer().Start(ctx, "db."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.DBSystemKey.String("mongodb"),
			semconv.DBOperationKey.String(operation),
			attribute.String("db.collection", collection),
		),
	)
	err := fn(ctx)
	EndSpan(span, err)
	return err
}
