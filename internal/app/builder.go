package app

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/component-registry-server/internal/api"
	"github.com/stacklok/component-registry-server/internal/auth"
	"github.com/stacklok/component-registry-server/internal/catalog"
	"github.com/stacklok/component-registry-server/internal/config"
	"github.com/stacklok/component-registry-server/internal/head"
	"github.com/stacklok/component-registry-server/internal/service"
	"github.com/stacklok/component-registry-server/internal/service/local"
	"github.com/stacklok/component-registry-server/internal/telemetry"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 15 * time.Second
	defaultIdleTimeout    = 60 * time.Second
)

// RegistryAppOptions is a function that configures the registry app builder
type RegistryAppOptions func(*registryAppConfig) error

// registryAppConfig collects the builder inputs. Every component can be
// injected; anything left unset is derived from config.
type registryAppConfig struct {
	config *config.Config

	// Optional component overrides (primarily for testing)
	catalogLoader catalog.Loader
	filesRoot     fs.FS
	secretSource  auth.SecretSource

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration

	// Telemetry components
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	metricsHandler http.Handler
	telemetry      *telemetry.Telemetry
}

func baseConfig(opts ...RegistryAppOptions) (*registryAppConfig, error) {
	cfg := &registryAppConfig{
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		cfg.config = config.Default()
	}
	if cfg.address == "" {
		cfg.address = cfg.config.GetAddress()
	}

	return cfg, nil
}

// NewRegistryApp creates a RegistryApp from the given options
func NewRegistryApp(
	ctx context.Context,
	opts ...RegistryAppOptions,
) (*RegistryApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	if err := buildTelemetry(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to build telemetry: %w", err)
	}

	// Providers created here are shut down if a later step fails
	var cleanupNeeded = true
	defer func() {
		if cleanupNeeded && cfg.telemetry != nil {
			if err := cfg.telemetry.Shutdown(context.Background()); err != nil {
				slog.Warn("Failed to shut down telemetry", "error", err)
			}
		}
	}()

	registryService, err := buildServiceComponents(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build service components: %w", err)
	}

	if cfg.secretSource == nil {
		cfg.secretSource = auth.NewSecretSource(cfg.config.Auth)
	}
	authMiddleware, err := auth.NewAuthMiddleware(ctx, cfg.secretSource)
	if err != nil {
		return nil, fmt.Errorf("failed to build auth middleware: %w", err)
	}

	httpServer, err := buildHTTPServer(ctx, cfg, registryService, authMiddleware)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	appCtx, cancel := context.WithCancel(ctx)
	cleanupNeeded = false

	return &RegistryApp{
		config: cfg.config,
		components: &AppComponents{
			RegistryService: registryService,
			Telemetry:       cfg.telemetry,
		},
		httpServer: httpServer,
		ctx:        appCtx,
		cancelFunc: cancel,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address, overriding server.address
func WithAddress(addr string) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, found := strings.Cut(addr, ":")
		if !found || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares replaces the default HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider for HTTP and registry metrics
func WithMeterProvider(mp metric.MeterProvider) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		cfg.meterProvider = mp
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider for HTTP and service spans
func WithTracerProvider(tp trace.TracerProvider) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		cfg.tracerProvider = tp
		return nil
	}
}

// WithCatalogLoader overrides the loader built from catalog.path
func WithCatalogLoader(l catalog.Loader) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		if l == nil {
			return fmt.Errorf("catalog loader cannot be nil")
		}
		cfg.catalogLoader = l
		return nil
	}
}

// WithFileSystem overrides the files root built from files.root
func WithFileSystem(fsys fs.FS) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		if fsys == nil {
			return fmt.Errorf("file system cannot be nil")
		}
		cfg.filesRoot = fsys
		return nil
	}
}

// WithSecretSource overrides the token source built from auth
func WithSecretSource(s auth.SecretSource) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		cfg.secretSource = s
		return nil
	}
}

// buildTelemetry creates the providers from config.Telemetry unless both were injected
func buildTelemetry(ctx context.Context, b *registryAppConfig) error {
	if b.meterProvider != nil && b.tracerProvider != nil {
		return nil
	}

	tel, err := telemetry.New(ctx, telemetry.WithTelemetryConfig(b.config.Telemetry))
	if err != nil {
		return err
	}
	b.telemetry = tel

	if b.meterProvider == nil {
		b.meterProvider = tel.MeterProvider()
		b.metricsHandler = tel.MetricsHandler()
	}
	if b.tracerProvider == nil {
		b.tracerProvider = tel.TracerProvider()
	}
	return nil
}

// buildServiceComponents builds the catalog loader and registry service
func buildServiceComponents(
	ctx context.Context,
	b *registryAppConfig,
) (service.RegistryService, error) {
	slog.InfoContext(ctx, "Initializing service components")

	if b.catalogLoader == nil {
		b.catalogLoader = catalog.NewFileLoader(b.config.GetCatalogPath())
	}
	if b.filesRoot == nil {
		root := b.config.GetFilesRoot()
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("files root %s: %w", root, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("files root %s is not a directory", root)
		}
		b.filesRoot = os.DirFS(root)
	}

	registryMetrics, err := telemetry.NewRegistryMetrics(b.meterProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create registry metrics: %w", err)
	}

	svc, err := local.New(b.catalogLoader,
		local.WithFilesRoot(b.filesRoot),
		local.WithTracerProvider(b.tracerProvider),
		local.WithMetrics(registryMetrics),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create registry service: %w", err)
	}

	slog.InfoContext(ctx, "Service components initialized successfully",
		"catalog", b.catalogLoader.Source())
	return svc, nil
}

// buildHTTPServer builds the HTTP server with router and middleware
func buildHTTPServer(
	ctx context.Context,
	b *registryAppConfig,
	svc service.RegistryService,
	authMiddleware func(http.Handler) http.Handler,
) (*http.Server, error) {
	slog.InfoContext(ctx, "Initializing HTTP server")

	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	// Metrics and tracing come first so requests rejected by auth are observed too
	var observability []func(http.Handler) http.Handler
	if b.meterProvider != nil {
		metricsMiddleware, err := telemetry.MetricsMiddleware(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
		}
		if metricsMiddleware != nil {
			observability = append(observability, metricsMiddleware)
		}
	}
	if b.tracerProvider != nil {
		observability = append(observability, telemetry.TracingMiddleware(b.tracerProvider))
	}
	middlewares := append(observability, b.middlewares...)

	serverOpts := []api.ServerOption{
		api.WithMiddlewares(middlewares...),
		api.WithAuthMiddleware(authMiddleware),
	}
	if b.metricsHandler != nil {
		serverOpts = append(serverOpts, api.WithMetricsHandler(b.metricsHandler))
		slog.InfoContext(ctx, "Prometheus metrics enabled", "path", "/metrics")
	}
	if site := b.config.Site; site != nil {
		serverOpts = append(serverOpts, api.WithHeadGenerator(head.NewGenerator(head.Site{
			Title:       site.Title,
			Description: site.Description,
			URL:         site.URL,
			Image:       site.Image,
			ThemeColor:  site.ThemeColor,
			Keywords:    site.Keywords,
			Twitter:     site.Twitter,
		})))
	}

	router := api.NewServer(svc, serverOpts...)

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.InfoContext(ctx, "HTTP server configured", "address", b.address)
	return server, nil
}
