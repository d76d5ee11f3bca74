package cli

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thruflo/ranker/internal/export"
	"github.com/thruflo/ranker/internal/stream"
	"github.com/thruflo/ranker/internal/testutil"
)

func completeScript(w *testutil.SSEWriter, r *http.Request) {
	images := testutil.SampleImages()
	for i, img := range images {
		w.Progress(i+1, len(images), img.Filename)
	}
	w.Complete(images)
}

func imageDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteImages(t, dir, testutil.SampleImages())
	return dir
}

func TestAnalyzeCommand_Completes(t *testing.T) {
	backend := testutil.NewBackend(t, completeScript)
	cfg := writeConfig(t, backend.URL, t.TempDir())
	dir := imageDir(t)

	out, err := execute(t, "", "analyze", dir, "--config", cfg)
	require.NoError(t, err)

	assert.Contains(t, out, "3/3 forest.png")
	assert.Contains(t, out, "Analysis of "+dir+" complete: 3 images ranked")

	sunset := strings.Index(out, "1. sunset.png")
	beach := strings.Index(out, "2. beach.png")
	forest := strings.Index(out, "3. forest.png")
	require.True(t, sunset >= 0 && beach > sunset && forest > beach, out)

	reqs := backend.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, stream.DefaultAnalyzePath, reqs[0].Path)
	assert.Equal(t, dir, reqs[0].Body["folder_path"])
	assert.Equal(t, "batch", reqs[0].Body["processing_mode"])
	assert.NotContains(t, reqs[0].Body, "prompt")
}

func TestAnalyzeCommand_Prompt(t *testing.T) {
	backend := testutil.NewBackend(t, completeScript)
	cfg := writeConfig(t, backend.URL, t.TempDir())
	dir := imageDir(t)

	_, err := execute(t, "", "analyze", dir, "--config", cfg, "--prompt", "golden hour", "--mode", "single")
	require.NoError(t, err)

	reqs := backend.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, stream.DefaultPromptPath, reqs[0].Path)
	assert.Equal(t, "golden hour", reqs[0].Body["prompt"])
	assert.Equal(t, "single", reqs[0].Body["processing_mode"])
}

func TestAnalyzeCommand_EmptyPromptRejected(t *testing.T) {
	backend := testutil.NewBackend(t, completeScript)
	cfg := writeConfig(t, backend.URL, t.TempDir())

	_, err := execute(t, "", "analyze", imageDir(t), "--config", cfg, "--prompt", " ")
	require.Error(t, err)
	assert.True(t, stream.IsValidationError(err))
	assert.Empty(t, backend.Requests())
}

func TestAnalyzeCommand_InvalidMode(t *testing.T) {
	backend := testutil.NewBackend(t, completeScript)
	cfg := writeConfig(t, backend.URL, t.TempDir())

	_, err := execute(t, "", "analyze", imageDir(t), "--config", cfg, "--mode", "fast")
	require.Error(t, err)
	assert.True(t, stream.IsValidationError(err))
}

func TestAnalyzeCommand_NotADirectory(t *testing.T) {
	backend := testutil.NewBackend(t, completeScript)
	cfg := writeConfig(t, backend.URL, t.TempDir())
	file := filepath.Join(imageDir(t), "beach.png")

	_, err := execute(t, "", "analyze", file, "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a directory")
	assert.Empty(t, backend.Requests())
}

func TestAnalyzeCommand_PromptedFolder(t *testing.T) {
	backend := testutil.NewBackend(t, completeScript)
	cfg := writeConfig(t, backend.URL, t.TempDir())
	dir := imageDir(t)

	out, err := execute(t, dir+"\n", "analyze", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "Folder to analyze")
	assert.Contains(t, out, "complete: 3 images ranked")
}

func TestAnalyzeCommand_PickerCancelled(t *testing.T) {
	backend := testutil.NewBackend(t, completeScript)
	cfg := writeConfig(t, backend.URL, t.TempDir())

	out, err := execute(t, "\n", "analyze", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "No folder selected.")
	assert.Empty(t, backend.Requests())
}

func TestAnalyzeCommand_BackendError(t *testing.T) {
	backend := testutil.NewBackend(t, func(w *testutil.SSEWriter, r *http.Request) {
		w.Progress(1, 3, "beach.png")
		w.Error("model unavailable")
	})
	cfg := writeConfig(t, backend.URL, t.TempDir())
	dir := imageDir(t)

	out, err := execute(t, "", "analyze", dir, "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analysis failed")
	assert.Contains(t, err.Error(), "model unavailable")
	assert.Contains(t, out, "Analysis of "+dir+" failed")
}

func TestAnalyzeCommand_EarlyClose(t *testing.T) {
	backend := testutil.NewBackend(t, func(w *testutil.SSEWriter, r *http.Request) {
		w.Progress(1, 3, "beach.png")
	})
	cfg := writeConfig(t, backend.URL, t.TempDir())

	_, err := execute(t, "", "analyze", imageDir(t), "--config", cfg)
	require.Error(t, err)
	assert.True(t, stream.IsTransportError(err))
}

func TestAnalyzeCommand_SelectAndExport(t *testing.T) {
	backend := testutil.NewBackend(t, completeScript)
	cfg := writeConfig(t, backend.URL, t.TempDir())
	exportDir := t.TempDir()

	var copied string
	orig := copyToClipboard
	copyToClipboard = func(s string) error {
		copied = s
		return nil
	}
	t.Cleanup(func() { copyToClipboard = orig })

	out, err := execute(t, "", "analyze", imageDir(t), "--config", cfg,
		"--select", "sunset.png,forest.png", "--export", "--export-dir", exportDir, "--copy-path")
	require.NoError(t, err)

	assert.Contains(t, out, "[x] 1. sunset.png")
	assert.Contains(t, out, "[ ] 2. beach.png")
	assert.Contains(t, out, "[x] 3. forest.png")
	assert.Contains(t, out, "Copied path to clipboard.")

	entries, err := os.ReadDir(exportDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	dest := filepath.Join(exportDir, entries[0].Name())
	assert.Equal(t, dest, copied)
	assert.Contains(t, out, "Exported to "+dest)

	for _, name := range []string{"sunset.png", "forest.png", export.ManifestFile} {
		assert.FileExists(t, filepath.Join(dest, name))
	}
	assert.NoFileExists(t, filepath.Join(dest, "beach.png"))
}

func TestAnalyzeCommand_ExportNothingSelected(t *testing.T) {
	backend := testutil.NewBackend(t, completeScript)
	cfg := writeConfig(t, backend.URL, t.TempDir())

	_, err := execute(t, "", "analyze", imageDir(t), "--config", cfg, "--export")
	require.Error(t, err)
	assert.True(t, stream.IsValidationError(err))
}

func TestAnalyzeCommand_UnknownSelection(t *testing.T) {
	backend := testutil.NewBackend(t, completeScript)
	cfg := writeConfig(t, backend.URL, t.TempDir())

	_, err := execute(t, "", "analyze", imageDir(t), "--config", cfg, "--select", "missing.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no ranked image named "missing.png"`)
}

func TestAnalyzeCommand_Preview(t *testing.T) {
	backend := testutil.NewBackend(t, completeScript)
	cfg := writeConfig(t, backend.URL, t.TempDir())

	out, err := execute(t, "", "analyze", imageDir(t), "--config", cfg, "--preview", "4")
	require.NoError(t, err)
	assert.Equal(t, 3*2*4, strings.Count(out, "▀"), "three 4x4 previews of two rows each")
}

func TestAnalyzeCommand_WaitReady(t *testing.T) {
	backend := testutil.NewBackend(t, completeScript)
	cfg := writeConfig(t, backend.URL, t.TempDir())

	_, err := execute(t, "", "analyze", imageDir(t), "--config", cfg, "--wait-ready")
	require.NoError(t, err)
	assert.Len(t, backend.Requests(), 1)
}
