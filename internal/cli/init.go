package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thruflo/ranker/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default .ranker/config.yaml",
	Long: `Creates .ranker/config.yaml in the working directory, or the file named by
--config, filled with default values. --backend-url and --log-level are
written into the new file. An existing file is kept unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	path := rootConfigPath
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
		path = config.Path(cwd)
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
	}

	cfg := config.DefaultConfig()
	if rootBackendURL != "" {
		cfg.Backend.URL = rootBackendURL
	}
	if rootLogLevel != "" {
		cfg.Log.Level = rootLogLevel
	}
	cfg.Log.Timestamps = rootLogStamps
	if err := config.ValidateConfig(&cfg); err != nil {
		return err
	}

	if err := config.Save(&cfg, path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
