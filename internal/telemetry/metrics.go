// Package telemetry provides OpenTelemetry instrumentation for the component registry.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RegistryMetricsMeterName is the name used for the registry metrics meter
const RegistryMetricsMeterName = "github.com/stacklok/component-registry-server/registry"

// Lookup outcomes recorded by RecordItemLookup
const (
	OutcomeResolved  = "resolved"
	OutcomeCatalog   = "catalog"
	OutcomeNotFound  = "not_found"
	OutcomeInvalid   = "invalid"
	OutcomeReadError = "read_error"
	OutcomeNoCatalog = "catalog_unavailable"
	OutcomeError     = "error"
)

// RegistryMetrics holds the OpenTelemetry instruments for registry metrics
type RegistryMetrics struct {
	lookupDuration metric.Float64Histogram
	catalogItems   metric.Int64Gauge
	filesRead      metric.Int64Counter
	bytesRead      metric.Int64Counter
}

// NewRegistryMetrics creates a new RegistryMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewRegistryMetrics(provider metric.MeterProvider) (*RegistryMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(RegistryMetricsMeterName)

	lookupDuration, err := meter.Float64Histogram(
		"component_registry_item_lookup_duration_seconds",
		metric.WithDescription("Duration of item lookups including validation and file resolution"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5),
	)
	if err != nil {
		return nil, err
	}

	catalogItems, err := meter.Int64Gauge(
		"component_registry_catalog_items",
		metric.WithDescription("Number of entries in the loaded catalog"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return nil, err
	}

	filesRead, err := meter.Int64Counter(
		"component_registry_files_read_total",
		metric.WithDescription("Number of item files read"),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, err
	}

	bytesRead, err := meter.Int64Counter(
		"component_registry_file_bytes_read_total",
		metric.WithDescription("Bytes of item file content read"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	return &RegistryMetrics{
		lookupDuration: lookupDuration,
		catalogItems:   catalogItems,
		filesRead:      filesRead,
		bytesRead:      bytesRead,
	}, nil
}

// RecordItemLookup records the duration and outcome of an item lookup
func (m *RegistryMetrics) RecordItemLookup(ctx context.Context, outcome string, duration time.Duration) {
	if m == nil || m.lookupDuration == nil {
		return
	}

	m.lookupDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordCatalogItems records the number of entries in the catalog loaded from source
func (m *RegistryMetrics) RecordCatalogItems(ctx context.Context, source string, count int) {
	if m == nil || m.catalogItems == nil {
		return
	}

	m.catalogItems.Record(ctx, int64(count),
		metric.WithAttributes(attribute.String("source", source)))
}

// RecordFileRead records a single file read. It satisfies resolver.ReadRecorder.
func (m *RegistryMetrics) RecordFileRead(ctx context.Context, bytes int, err error) {
	if m == nil || m.filesRead == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.Bool("success", err == nil))
	m.filesRead.Add(ctx, 1, attrs)
	if err == nil && bytes > 0 {
		m.bytesRead.Add(ctx, int64(bytes))
	}
}
