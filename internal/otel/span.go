// Package otel provides OpenTelemetry instrumentation utilities for the component registry.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys shared by registry spans
const (
	AttrCatalogSource = attribute.Key("registry.catalog.source")
	AttrCatalogSize   = attribute.Key("registry.catalog.size")
	AttrItemName      = attribute.Key("registry.item.name")
	AttrFileCount     = attribute.Key("registry.file.count")
	AttrOutcome       = attribute.Key("registry.outcome")
)

// StartSpan starts a new span if the tracer is non-nil, otherwise returns a no-op span.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError records an error on a span and sets the span status to error.
// It safely handles nil spans and nil errors.
// The status description stays generic so file paths and secrets never reach
// the span status; the error itself is kept as a span event.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}

// SetOutcome tags the span with the outcome of a registry lookup
func SetOutcome(span trace.Span, outcome string) {
	if span != nil {
		span.SetAttributes(AttrOutcome.String(outcome))
	}
}
