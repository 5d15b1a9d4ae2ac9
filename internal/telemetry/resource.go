package telemetry

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ProviderOption configures NewTracerProvider and NewMeterProvider.
// Both providers take the same options so New can describe the process once;
// each provider ignores the options that do not concern it.
type ProviderOption func(*providerConfig)

type providerConfig struct {
	serviceName    string
	serviceVersion string
	instanceID     string
	endpoint       string
	insecure       bool

	tracing    *TracingConfig
	metrics    *MetricsConfig
	registerer prometheus.Registerer
}

func newProviderConfig(opts ...ProviderOption) *providerConfig {
	cfg := &providerConfig{
		serviceName:    DefaultServiceName,
		serviceVersion: "unknown",
		endpoint:       DefaultEndpoint,
		registerer:     prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// providerOptions translates a validated Config into provider options
func providerOptions(c *Config, instanceID string) []ProviderOption {
	return []ProviderOption{
		WithServiceName(c.GetServiceName()),
		WithServiceVersion(c.GetServiceVersion()),
		WithInstanceID(instanceID),
		WithEndpoint(c.GetEndpoint()),
		WithInsecure(c.Insecure),
		WithTracingConfig(c.Tracing),
		WithMetricsConfig(c.Metrics),
	}
}

// WithServiceName sets service.name
func WithServiceName(name string) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.serviceName = name
	}
}

// WithServiceVersion sets service.version
func WithServiceVersion(version string) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.serviceVersion = version
	}
}

// WithInstanceID sets service.instance.id; a uuid is generated when empty
func WithInstanceID(id string) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.instanceID = id
	}
}

// WithEndpoint sets the OTLP collector endpoint (host:port)
func WithEndpoint(endpoint string) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.endpoint = endpoint
	}
}

// WithInsecure sends OTLP data over plain HTTP
func WithInsecure(insecure bool) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.insecure = insecure
	}
}

// WithTracingConfig enables tracing when tc.Enabled is set
func WithTracingConfig(tc *TracingConfig) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.tracing = tc
	}
}

// WithMetricsConfig enables metrics when mc.Enabled is set
func WithMetricsConfig(mc *MetricsConfig) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.metrics = mc
	}
}

// WithPrometheusRegisterer sets the registry the Prometheus reader registers with.
// Defaults to prometheus.DefaultRegisterer.
func WithPrometheusRegisterer(reg prometheus.Registerer) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.registerer = reg
	}
}

// newInstanceID returns a fresh service.instance.id value
func newInstanceID() string {
	return uuid.NewString()
}

// resource describes this process to the exporters.
// resource.New is used instead of resource.Default to avoid schema URL conflicts.
func (cfg *providerConfig) resource(ctx context.Context) (*resource.Resource, error) {
	if cfg.instanceID == "" {
		cfg.instanceID = newInstanceID()
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.serviceName),
			semconv.ServiceVersion(cfg.serviceVersion),
			semconv.ServiceInstanceID(cfg.instanceID),
		),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}
