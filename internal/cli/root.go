package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thruflo/ranker/internal/config"
	"github.com/thruflo/ranker/internal/logging"
	"github.com/thruflo/ranker/internal/stream"
)

// Version is set at build time via ldflags.
var Version = "dev"

var (
	rootConfigPath string
	rootBackendURL string
	rootLogLevel   string
	rootLogStamps  bool
)

var rootCmd = &cobra.Command{
	Use:   "ranker",
	Short: "Rank the images in a folder with an analysis backend",
	Long: `Ranker submits a folder of images to an analysis backend, follows the
streamed progress, and shows the ranked results. Selected images can be
exported to a timestamped folder.

Configuration is read from .ranker/config.yaml in the working directory,
or from the file named by --config. Flags override file values.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("ranker version {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&rootConfigPath, "config", "", "config file (default: .ranker/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&rootBackendURL, "backend-url", "", "analysis backend base URL")
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&rootLogStamps, "log-timestamps", false, "prefix log lines with a timestamp")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx, which commands use to stop
// streaming on interrupt.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// loadConfig reads configuration, applies persistent flag overrides, and
// configures the default logger.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if rootConfigPath != "" {
		cfg, err = config.LoadFile(rootConfigPath)
	} else {
		cwd, cwdErr := os.Getwd()
		if cwdErr != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", cwdErr)
		}
		cfg, err = config.LoadConfig(cwd)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if rootBackendURL != "" {
		cfg.Backend.URL = rootBackendURL
	}
	if rootLogLevel != "" {
		cfg.Log.Level = rootLogLevel
	}
	if rootLogStamps {
		cfg.Log.Timestamps = true
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	logging.SetLevel(cfg.Level())
	logging.SetTimestamps(cfg.Log.Timestamps)
	return cfg, nil
}

func newClient(cfg *config.Config) *stream.Client {
	return stream.NewClient(cfg.Backend.URL,
		stream.WithAnalyzePaths(cfg.Backend.AnalyzePath, cfg.Backend.PromptPath),
		stream.WithHealthPath(cfg.Backend.HealthPath),
		stream.WithLogger(logging.With("component", "client")),
	)
}
