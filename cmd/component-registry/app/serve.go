package app

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/component-registry-server/internal/app"
)

const defaultGracefulTimeout = 30 * time.Second // Kubernetes-friendly shutdown time

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the registry API server",
		Long: `Start the registry API server to serve registry items.

The configuration file (--config) specifies the catalog path, the files root,
how the private route token is obtained, site metadata and telemetry. When
--config is omitted, component-registry/config.yaml is searched in the XDG
config directories, and the defaults are used when none is found.

The token for private routes is read from COMPONENT_REGISTRY_TOKEN unless
auth.tokenFile or auth.tokenEnv is configured. Without one the server still
starts, and private routes answer 403 until a token is available.`,
		RunE: runServe,
	}

	cmd.Flags().String("address", ":8080", "Address to listen on")
	cmd.Flags().String("config", "", "Path to configuration file (YAML format)")

	if err := viper.BindPFlag("address", cmd.Flags().Lookup("address")); err != nil {
		slog.Error("Failed to bind address flag", "error", err)
	}

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(configPath(cmd))
	if err != nil {
		return err
	}

	opts := []app.RegistryAppOptions{app.WithConfig(cfg)}
	// The flag or COMPONENT_REGISTRY_ADDRESS overrides server.address
	if viper.IsSet("address") {
		opts = append(opts, app.WithAddress(viper.GetString("address")))
	}

	registryApp, err := app.NewRegistryApp(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- registryApp.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	if err := registryApp.Stop(defaultGracefulTimeout); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		return err
	}
	return <-errChan
}
