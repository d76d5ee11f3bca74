package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// SampleConfig is a minimal .ranker/config.yaml.
const SampleConfig = `backend:
  url: http://127.0.0.1:8000
  ready_timeout: 5s
analysis:
  mode: batch
log:
  level: warn
`

// SetupTestDir creates a temporary directory with a .ranker/config.yaml.
// The directory is automatically cleaned up when the test completes.
func SetupTestDir(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	WriteTestFile(t, tmpDir, filepath.Join(".ranker", "config.yaml"), []byte(SampleConfig))
	return tmpDir
}

// WriteImages writes each image's payload to dir under its filename.
func WriteImages(t *testing.T, dir string, images []Image) {
	t.Helper()
	for _, img := range images {
		WriteTestFile(t, dir, img.Filename, img.Payload)
	}
}

// MustMarshalJSON marshals a value to JSON, failing the test on error.
// Uses indented format for readability.
func MustMarshalJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.MarshalIndent(v, "", "  ")
	require.NoError(t, err)
	return data
}

// WriteTestFile writes content to a file in the test directory.
// Creates parent directories as needed.
func WriteTestFile(t *testing.T, basePath, relativePath string, content []byte) {
	t.Helper()
	fullPath := filepath.Join(basePath, relativePath)
	require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0755))
	require.NoError(t, os.WriteFile(fullPath, content, 0644))
}
