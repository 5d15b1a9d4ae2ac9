// Package config provides configuration loading and management for the component registry server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/component-registry-server/internal/telemetry"
)

const (
	// DefaultAddress is the address the HTTP server listens on
	DefaultAddress = ":8080"

	// DefaultCatalogPath is the catalog location, relative to the working directory
	DefaultCatalogPath = "registry.json"

	// DefaultFilesRoot is the directory item file paths are resolved against
	DefaultFilesRoot = "."

	// ConfigFileName is the path searched under the XDG config directories
	ConfigFileName = "component-registry/config.yaml"

	// EnvPrefix is the prefix of environment variables read by the server
	EnvPrefix = "COMPONENT_REGISTRY"
)

// ErrNoConfigFile is returned when no configuration file can be discovered
var ErrNoConfigFile = errors.New("no configuration file found")

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// EvalSymlinks also cleans the path
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) && !filepath.IsLocal(realPath) {
			return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
		}

		cfg.path = realPath
		return nil
	}
}

// WithDiscoveredConfig loads the configuration file found in the XDG config
// directories (e.g. ~/.config/component-registry/config.yaml)
func WithDiscoveredConfig() Option {
	return func(cfg *loaderConfig) error {
		path, err := xdg.SearchConfigFile(ConfigFileName)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrNoConfigFile, err)
		}
		return WithConfigPath(path)(cfg)
	}
}

// Config represents the root configuration structure
type Config struct {
	Server    ServerConfig      `yaml:"server,omitempty"`
	Catalog   CatalogConfig     `yaml:"catalog"`
	Files     FilesConfig       `yaml:"files,omitempty"`
	Auth      *AuthConfig       `yaml:"auth,omitempty"`
	Site      *SiteConfig       `yaml:"site,omitempty"`
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// ServerConfig defines HTTP server settings
type ServerConfig struct {
	// Address is the listen address, ":8080" when empty
	Address string `yaml:"address,omitempty"`
}

// CatalogConfig defines where the registry index is read from
type CatalogConfig struct {
	// Path is the catalog file (.json, .hujson, .jsonc, .yaml or .yml).
	// Relative paths are resolved against the working directory.
	Path string `yaml:"path"`
}

// FilesConfig defines where item files are read from
type FilesConfig struct {
	// Root is the directory item file paths are relative to
	Root string `yaml:"root,omitempty"`
}

// AuthConfig defines how the private route token is obtained
type AuthConfig struct {
	// TokenFile is a file holding the token. It is read on every request
	// and takes precedence over TokenEnv.
	TokenFile string `yaml:"tokenFile,omitempty"`

	// TokenEnv names the environment variable holding the token,
	// COMPONENT_REGISTRY_TOKEN when empty
	TokenEnv string `yaml:"tokenEnv,omitempty"`
}

// SiteConfig describes the site the registry belongs to. It feeds the
// head metadata served at /head.
type SiteConfig struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description,omitempty"`
	URL         string   `yaml:"url,omitempty"`
	Image       string   `yaml:"image,omitempty"`
	ThemeColor  string   `yaml:"themeColor,omitempty"`
	Keywords    []string `yaml:"keywords,omitempty"`
	Twitter     string   `yaml:"twitter,omitempty"`
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return config, nil
}

// Parse decodes and validates a YAML configuration document
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Catalog: CatalogConfig{Path: DefaultCatalogPath},
	}
}

// GetAddress returns the listen address, using the default if not specified
func (c *Config) GetAddress() string {
	if c.Server.Address == "" {
		return DefaultAddress
	}
	return c.Server.Address
}

// GetCatalogPath returns the catalog path, using the default if not specified
func (c *Config) GetCatalogPath() string {
	if c.Catalog.Path == "" {
		return DefaultCatalogPath
	}
	return c.Catalog.Path
}

// GetFilesRoot returns the files root, using the default if not specified
func (c *Config) GetFilesRoot() string {
	if c.Files.Root == "" {
		return DefaultFilesRoot
	}
	return c.Files.Root
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path is required")
	}
	if err := validateCatalogExtension(c.Catalog.Path); err != nil {
		return err
	}

	if c.Auth != nil && c.Auth.TokenEnv != "" && strings.ContainsAny(c.Auth.TokenEnv, "= \t") {
		return fmt.Errorf("auth.tokenEnv %q is not a valid environment variable name", c.Auth.TokenEnv)
	}

	if c.Site != nil && c.Site.Title == "" {
		return fmt.Errorf("site.title is required when site is configured")
	}

	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	return nil
}

func validateCatalogExtension(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".hujson", ".jsonc", ".yaml", ".yml":
		return nil
	default:
		return fmt.Errorf("catalog.path must be a .json, .hujson, .jsonc, .yaml or .yml file, got %s", path)
	}
}
