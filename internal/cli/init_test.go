package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thruflo/ranker/internal/config"
	"github.com/thruflo/ranker/internal/logging"
)

func TestInitCommand_WritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.Dir, config.File)

	out, err := execute(t, "", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), *cfg)
}

func TestInitCommand_AppliesFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranker.yaml")

	_, err := execute(t, "", "init", "--config", path,
		"--backend-url", "http://10.0.0.5:8000", "--log-level", "debug", "--log-timestamps")
	require.NoError(t, err)

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:8000", cfg.Backend.URL)
	assert.Equal(t, logging.LevelDebug, cfg.Level())
	assert.True(t, cfg.Log.Timestamps)
}

func TestInitCommand_ExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranker.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend:\n  url: http://keep.me:1\n"), 0o644))

	tests := []struct {
		name    string
		args    []string
		wantErr string
		wantURL string
	}{
		{name: "kept without force", args: nil, wantErr: "already exists", wantURL: "http://keep.me:1"},
		{name: "overwritten with force", args: []string{"--force"}, wantURL: config.DefaultBackendURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"init", "--config", path}, tt.args...)
			_, err := execute(t, "", args...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			cfg, err := config.LoadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, cfg.Backend.URL)
		})
	}
}

func TestInitCommand_RejectsInvalidOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranker.yaml")

	_, err := execute(t, "", "init", "--config", path, "--backend-url", "ftp://nope")
	require.Error(t, err)
	assert.True(t, config.IsValidationError(err))
	assert.NoFileExists(t, path)
}

func TestLoadConfig_LogTimestampsFlag(t *testing.T) {
	t.Cleanup(func() { logging.SetTimestamps(false) })
	cfgPath := writeConfig(t, "http://127.0.0.1:8000", t.TempDir())

	resetFlags()
	t.Cleanup(resetFlags)
	rootConfigPath = cfgPath

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.False(t, cfg.Log.Timestamps)

	rootLogStamps = true
	cfg, err = loadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.Log.Timestamps)
}
