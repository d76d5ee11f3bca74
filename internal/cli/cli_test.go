package cli

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/thruflo/ranker/internal/testutil"
)

// resetFlags restores every flag variable and clears cobra's changed marks so
// executions do not leak into each other.
func resetFlags() {
	rootConfigPath, rootBackendURL, rootLogLevel = "", "", ""
	rootLogStamps = false
	initForce = false
	healthWait = false
	analyzePrompt, analyzeMode, analyzeExportDir = "", "", ""
	analyzeSelect = nil
	analyzeSelectAll, analyzeExport, analyzeCopyPath = false, false, false
	analyzeWaitReady, analyzeNotify = false, false
	analyzePreview = 0

	unmark := func(f *pflag.Flag) { f.Changed = false }
	rootCmd.PersistentFlags().VisitAll(unmark)
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(unmark)
		// cobra only inherits the root context when a subcommand's is nil.
		c.SetContext(nil)
	}
}

// writeConfig writes a config file pointing at backendURL and returns its path.
func writeConfig(t *testing.T, backendURL, exportDir string) string {
	t.Helper()
	dir := t.TempDir()
	content := fmt.Sprintf(`backend:
  url: %s
  ready_timeout: 5s
export:
  dir: %s
log:
  level: error
`, backendURL, exportDir)
	testutil.WriteTestFile(t, dir, "config.yaml", []byte(content))
	return filepath.Join(dir, "config.yaml")
}

// execute runs the root command with args and stdin, returning everything
// written to stdout and stderr.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	})

	ctx, cancel := testutil.StreamContext(t)
	defer cancel()

	err := rootCmd.ExecuteContext(ctx)
	return out.String(), err
}

func findCommand(t *testing.T, name string) *cobra.Command {
	t.Helper()
	for _, c := range rootCmd.Commands() {
		if c.Name() == name {
			return c
		}
	}
	require.Failf(t, "command not registered", "%s", name)
	return nil
}

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"analyze", "health", "shell"} {
		findCommand(t, name)
	}
}

func TestPersistentFlagsRegistered(t *testing.T) {
	for _, name := range []string{"config", "backend-url", "log-level"} {
		require.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	resetFlags()
	t.Cleanup(resetFlags)

	rootConfigPath = writeConfig(t, "http://127.0.0.1:1", t.TempDir())
	rootBackendURL = "http://127.0.0.1:9999"
	rootLogLevel = "debug"

	cfg, err := loadConfig()
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:9999", cfg.Backend.URL)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfig_InvalidOverride(t *testing.T) {
	resetFlags()
	t.Cleanup(resetFlags)

	rootConfigPath = writeConfig(t, "http://127.0.0.1:1", t.TempDir())
	rootLogLevel = "loud"

	_, err := loadConfig()
	require.Error(t, err)
	require.Contains(t, err.Error(), "log.level")
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	resetFlags()
	t.Cleanup(resetFlags)

	rootConfigPath = filepath.Join(t.TempDir(), "nope.yaml")
	_, err := loadConfig()
	require.Error(t, err)
	require.Contains(t, err.Error(), "config file not found")
}
