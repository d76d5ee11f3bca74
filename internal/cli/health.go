package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thruflo/ranker/internal/stream"
)

var healthWait bool

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the analysis backend is up",
	Long: `Probes the backend's liveness endpoint once. With --wait, polls until the
backend answers or backend.ready_timeout elapses.`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

func init() {
	healthCmd.Flags().BoolVar(&healthWait, "wait", false, "poll until the backend is ready")
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client := newClient(cfg)

	var status *stream.HealthStatus
	if healthWait {
		status, err = client.WaitReady(ctx, cfg.Backend.ReadyTimeout)
	} else {
		status, err = client.Health(ctx)
	}
	if err != nil {
		return fmt.Errorf("backend at %s is not healthy: %w", client.BaseURL(), err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Backend at %s: %s", client.BaseURL(), status.Status)
	if status.Message != "" {
		fmt.Fprintf(cmd.OutOrStdout(), " (%s)", status.Message)
	}
	fmt.Fprintln(cmd.OutOrStdout())

	if !status.OK() {
		return fmt.Errorf("backend reported status %q", status.Status)
	}
	return nil
}
