// Package app provides the commands of the component registry CLI.
package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/component-registry-server/internal/config"
	"github.com/stacklok/component-registry-server/pkg/versions"
)

// LogLevel is the level of the default logger; --debug lowers it
var LogLevel = new(slog.LevelVar)

// NewRootCmd creates a new root command for the component registry.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "component-registry",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		Short:             "Component registry server",
		Long: `Component registry server serves UI component definitions from a catalog,
with each item's source files resolved inline.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if viper.GetBool("debug") {
				LogLevel.Set(slog.LevelDebug)
			}
		},
		Run: func(cmd *cobra.Command, _ []string) {
			// If no subcommand is provided, print help
			if err := cmd.Help(); err != nil {
				slog.Error("Error displaying help", "error", err)
			}
		},
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")
	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		slog.Error("Error binding debug flag", "error", err)
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versions.GetVersionInfo()
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return err
			}

			switch format {
			case "json":
				output, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to format version info as JSON: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(output))
			case "":
				fmt.Fprintln(cmd.OutOrStdout(), "component-registry "+info.String())
			default:
				return fmt.Errorf("unsupported format %q", format)
			}
			return nil
		},
	}
	cmd.Flags().String("format", "", "Output format (json)")
	return cmd
}

// configPath returns --config, falling back to COMPONENT_REGISTRY_CONFIG
func configPath(cmd *cobra.Command) string {
	if path, err := cmd.Flags().GetString("config"); err == nil && path != "" {
		return path
	}
	return viper.GetString("config")
}

// loadConfig reads the file at path, or the file found in the XDG config
// directories when path is empty. Without either the defaults are used.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		cfg, err := config.LoadConfig(config.WithConfigPath(path))
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		slog.Info("Loaded configuration", "path", path)
		return cfg, nil
	}

	cfg, err := config.LoadConfig(config.WithDiscoveredConfig())
	switch {
	case err == nil:
		slog.Info("Loaded discovered configuration")
		return cfg, nil
	case errors.Is(err, config.ErrNoConfigFile):
		slog.Info("No configuration file found, using defaults",
			"catalog", config.DefaultCatalogPath)
		return config.Default(), nil
	default:
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
}
