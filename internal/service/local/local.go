// Package local provides a RegistryService backed by a catalog file and a
// directory of component sources on the local filesystem.
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/component-registry-server/internal/catalog"
	otelutil "github.com/stacklok/component-registry-server/internal/otel"
	"github.com/stacklok/component-registry-server/internal/resolver"
	"github.com/stacklok/component-registry-server/internal/service"
	"github.com/stacklok/component-registry-server/internal/telemetry"
	"github.com/stacklok/component-registry-server/internal/validators"
	"github.com/stacklok/component-registry-server/pkg/registry"
)

// TracerName is the name of the tracer used by the service
const TracerName = "github.com/stacklok/component-registry-server/service"

// regSvc implements the RegistryService interface.
// It holds no mutable state; the catalog is loaded on every call.
type regSvc struct {
	loader    catalog.Loader
	validator validators.ItemValidator
	resolver  resolver.FileResolver
	filesRoot fs.FS
	tracer    trace.Tracer
	metrics   *telemetry.RegistryMetrics
}

var _ service.RegistryService = (*regSvc)(nil)

// Option is a functional option for configuring the regSvc
type Option func(*regSvc)

// WithValidator overrides the item schema validator
func WithValidator(v validators.ItemValidator) Option {
	return func(s *regSvc) {
		s.validator = v
	}
}

// WithFilesRoot sets the filesystem item file paths are resolved against.
// Defaults to the process working directory.
func WithFilesRoot(root fs.FS) Option {
	return func(s *regSvc) {
		s.filesRoot = root
	}
}

// WithResolver overrides the file resolver, taking precedence over WithFilesRoot
func WithResolver(r resolver.FileResolver) Option {
	return func(s *regSvc) {
		s.resolver = r
	}
}

// WithTracerProvider enables tracing of service calls
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *regSvc) {
		if tp != nil {
			s.tracer = tp.Tracer(TracerName)
		}
	}
}

// WithMetrics sets the metrics recorder. A nil value disables metrics.
func WithMetrics(m *telemetry.RegistryMetrics) Option {
	return func(s *regSvc) {
		s.metrics = m
	}
}

// New creates a new registry service reading its catalog through loader
func New(loader catalog.Loader, opts ...Option) (service.RegistryService, error) {
	if loader == nil {
		return nil, fmt.Errorf("catalog loader is required")
	}

	s := &regSvc{
		loader:    loader,
		validator: validators.NewItemValidator(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.resolver == nil {
		if s.filesRoot == nil {
			wd, err := os.Getwd()
			if err != nil {
				return nil, fmt.Errorf("failed to determine working directory: %w", err)
			}
			s.filesRoot = os.DirFS(wd)
		}
		s.resolver = resolver.NewFileResolver(s.filesRoot, resolver.WithReadRecorder(s.metrics))
	}

	return s, nil
}

// loadCatalog loads the catalog, mapping any failure to ErrRegistryNotFound
func (s *regSvc) loadCatalog(ctx context.Context) (*catalog.Index, error) {
	idx, err := s.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", service.ErrRegistryNotFound, err)
	}
	s.metrics.RecordCatalogItems(ctx, s.loader.Source(), idx.Len())
	return idx, nil
}

// CheckReadiness implements RegistryService.CheckReadiness
func (s *regSvc) CheckReadiness(ctx context.Context) error {
	if _, err := s.loadCatalog(ctx); err != nil {
		return fmt.Errorf("registry data not available: %w", err)
	}
	return nil
}

// ListAll implements RegistryService.ListAll
func (s *regSvc) ListAll(ctx context.Context) (*catalog.Index, error) {
	ctx, span := otelutil.StartSpan(ctx, s.tracer, "RegistryService.ListAll",
		trace.WithAttributes(otelutil.AttrCatalogSource.String(s.loader.Source())))
	defer span.End()

	idx, err := s.loadCatalog(ctx)
	if err != nil {
		otelutil.RecordError(span, err)
		return nil, err
	}

	span.SetAttributes(otelutil.AttrCatalogSize.Int(idx.Len()))
	return idx, nil
}

// GetItem implements RegistryService.GetItem
func (s *regSvc) GetItem(ctx context.Context, name string) (*service.ItemResult, bool, error) {
	ctx, span := otelutil.StartSpan(ctx, s.tracer, "RegistryService.GetItem",
		trace.WithAttributes(
			otelutil.AttrItemName.String(name),
			otelutil.AttrCatalogSource.String(s.loader.Source()),
		))
	defer span.End()

	start := time.Now()
	result, found, outcome, err := s.getItem(ctx, name, span)
	s.metrics.RecordItemLookup(ctx, outcome, time.Since(start))
	otelutil.SetOutcome(span, outcome)
	otelutil.RecordError(span, err)

	if err != nil {
		slog.DebugContext(ctx, "Item lookup failed", "name", name, "outcome", outcome, "error", err)
	}
	return result, found, err
}

// getItem runs Load, Lookup, Validate and Resolve in that order
func (s *regSvc) getItem(
	ctx context.Context,
	name string,
	span trace.Span,
) (*service.ItemResult, bool, string, error) {
	idx, err := s.loadCatalog(ctx)
	if err != nil {
		return nil, false, telemetry.OutcomeNoCatalog, err
	}

	if name == registry.CatalogName {
		return &service.ItemResult{Catalog: idx}, true, telemetry.OutcomeCatalog, nil
	}

	entry, ok := idx.Lookup(name)
	if !ok {
		return nil, false, telemetry.OutcomeNotFound, nil
	}

	item, err := s.validator.ValidateItem(entry.Raw)
	if err != nil {
		if errors.Is(err, service.ErrInvalidItem) {
			return nil, false, telemetry.OutcomeInvalid, err
		}
		return nil, false, telemetry.OutcomeError, fmt.Errorf("failed to validate item %s: %w", name, err)
	}

	// An item without files has nothing to serve
	if !item.HasFiles() {
		return nil, false, telemetry.OutcomeNotFound, nil
	}
	span.SetAttributes(otelutil.AttrFileCount.Int(len(item.Files)))

	files, err := s.resolver.Resolve(ctx, item.Files)
	if err != nil {
		return nil, false, telemetry.OutcomeReadError, err
	}

	resolved, err := registry.NewResolvedItem(item, files)
	if err != nil {
		return nil, false, telemetry.OutcomeError, err
	}
	return &service.ItemResult{Item: resolved}, true, telemetry.OutcomeResolved, nil
}
