package helpers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/onsi/gomega"
	"gopkg.in/yaml.v3"

	registryapp "github.com/stacklok/component-registry-server/internal/app"
	"github.com/stacklok/component-registry-server/internal/config"
)

// ServerTestHelper manages the registry API server lifecycle for testing
type ServerTestHelper struct {
	ctx        context.Context
	configPath string
	baseURL    string
	address    string
	httpClient *http.Client
	app        *registryapp.RegistryApp
}

// NewServerTestHelper creates a new server test helper listening on a free loopback port
func NewServerTestHelper(ctx context.Context, configPath string) (*ServerTestHelper, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to find a free port: %w", err)
	}
	address := listener.Addr().String()
	if err := listener.Close(); err != nil {
		return nil, err
	}

	return &ServerTestHelper{
		ctx:        ctx,
		configPath: configPath,
		address:    address,
		baseURL:    "http://" + address,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// StartServer builds the application from the config file and starts serving
func (s *ServerTestHelper) StartServer() error {
	cfg, err := config.LoadConfig(config.WithConfigPath(s.configPath))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app, err := registryapp.NewRegistryApp(s.ctx,
		registryapp.WithConfig(cfg),
		registryapp.WithAddress(s.address),
	)
	if err != nil {
		return fmt.Errorf("failed to build app: %w", err)
	}
	s.app = app

	go func() {
		if err := app.Start(); err != nil {
			// The test fails when it tries to connect
			fmt.Fprintf(os.Stderr, "Server start failed: %v\n", err)
		}
	}()

	return nil
}

// StopServer gracefully stops the registry API server
func (s *ServerTestHelper) StopServer() error {
	if s.app != nil {
		return s.app.Stop(5 * time.Second)
	}
	return nil
}

// WaitForServerReady waits for the server to be ready to accept requests
func (s *ServerTestHelper) WaitForServerReady(timeout time.Duration) {
	gomega.Eventually(func() error {
		resp, err := s.httpClient.Get(s.baseURL + "/health")
		if err != nil {
			return err
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server returned status %d", resp.StatusCode)
		}
		return nil
	}, timeout, 100*time.Millisecond).Should(gomega.Succeed(), "Server should be ready")
}

// Response is a consumed HTTP response
type Response struct {
	StatusCode int
	Body       []byte
}

// JSON decodes the body into a generic value
func (r Response) JSON() map[string]any {
	var out map[string]any
	gomega.Expect(json.Unmarshal(r.Body, &out)).To(gomega.Succeed(), string(r.Body))
	return out
}

// Get requests path, sending token as a bearer token when it is not empty
func (s *ServerTestHelper) Get(path, token string) Response {
	req, err := http.NewRequestWithContext(s.ctx, http.MethodGet, s.baseURL+path, nil)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.httpClient.Do(req)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	return Response{StatusCode: resp.StatusCode, Body: body}
}

// GetBaseURL returns the base URL of the server
func (s *ServerTestHelper) GetBaseURL() string {
	return s.baseURL
}

// ServerConfig describes the config file written by WriteConfigYAML
type ServerConfig struct {
	CatalogPath string
	FilesRoot   string
	TokenFile   string
	SiteTitle   string
	Prometheus  bool
}

// WriteConfigYAML writes a YAML configuration file for testing and returns its path
func WriteConfigYAML(dir string, sc ServerConfig) string {
	doc := map[string]any{
		"catalog": map[string]any{"path": sc.CatalogPath},
		"files":   map[string]any{"root": sc.FilesRoot},
		"auth":    map[string]any{"tokenFile": sc.TokenFile},
	}
	if sc.SiteTitle != "" {
		doc["site"] = map[string]any{"title": sc.SiteTitle, "url": "https://ui.example.com"}
	}
	if sc.Prometheus {
		doc["telemetry"] = map[string]any{
			"enabled": true,
			"metrics": map[string]any{"enabled": true, "exporter": "prometheus"},
		}
	}

	data, err := yaml.Marshal(doc)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())

	configPath := filepath.Join(dir, "config.yaml")
	gomega.Expect(os.WriteFile(configPath, data, 0600)).To(gomega.Succeed())
	return configPath
}
