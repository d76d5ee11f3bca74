// Package export writes selected result images to the local filesystem.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/thruflo/ranker/internal/logging"
	"github.com/thruflo/ranker/internal/stream"
	"gopkg.in/yaml.v3"
)

// ManifestFile is written beside the exported images.
const ManifestFile = "ranking.yaml"

// Result is the outcome reported by an export. On failure Error is set and
// DestinationPath is empty.
type Result struct {
	Success         bool
	DestinationPath string
	Error           string
}

// Manifest records what was exported, in rank order.
type Manifest struct {
	ExportedAt time.Time       `yaml:"exported_at"`
	Images     []ManifestEntry `yaml:"images"`
}

// ManifestEntry is one exported image.
type ManifestEntry struct {
	Rank     int     `yaml:"rank"`
	Filename string  `yaml:"filename"`
	Score    float64 `yaml:"score"`
}

// DirExporter writes each export into a fresh timestamped folder under a base
// directory.
type DirExporter struct {
	baseDir string
	now     func() time.Time
	log     *logging.Logger
}

// NewDirExporter creates an exporter rooted at baseDir. A leading "~" is
// expanded to the user's home directory.
func NewDirExporter(baseDir string) *DirExporter {
	return &DirExporter{
		baseDir: baseDir,
		now:     time.Now,
		log:     logging.With("component", "export"),
	}
}

// DefaultDir returns ~/Downloads, or the working directory if the home
// directory cannot be determined.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Downloads")
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// ExportImages writes items and a manifest. A write failure is reported in the
// Result rather than as an error; the error return is for rejected input.
// A failed export leaves no folder behind.
func (e *DirExporter) ExportImages(ctx context.Context, items []stream.RankedItem) (Result, error) {
	if len(items) == 0 {
		return Result{}, stream.ValidationError{Field: "items", Message: "no images provided"}
	}

	dest, err := e.createDestination()
	if err != nil {
		return Result{Success: false, Error: err.Error()}, nil
	}

	if err := e.writeAll(ctx, dest, items); err != nil {
		if rmErr := os.RemoveAll(dest); rmErr != nil {
			e.log.Warn("failed to remove partial export", "destination", dest, "error", rmErr)
		}
		return Result{Success: false, Error: err.Error()}, nil
	}

	e.log.Info("exported images", "count", len(items), "destination", dest)
	return Result{Success: true, DestinationPath: dest}, nil
}

func (e *DirExporter) writeAll(ctx context.Context, dest string, items []stream.RankedItem) error {
	manifest := Manifest{ExportedAt: e.now().UTC()}
	used := make(map[string]bool, len(items))
	for i, item := range stream.RankItems(items) {
		if err := ctx.Err(); err != nil {
			return err
		}

		name, err := safeName(item.Filename)
		if err != nil {
			return err
		}
		name = uniqueName(name, used)
		if err := os.WriteFile(filepath.Join(dest, name), item.ImagePayload, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		manifest.Images = append(manifest.Images, ManifestEntry{Rank: i + 1, Filename: name, Score: item.Score})
	}

	data, err := yaml.Marshal(&manifest)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dest, ManifestFile), data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// createDestination makes a new, empty export folder. Exports within the same
// second get a numeric suffix.
func (e *DirExporter) createDestination() (string, error) {
	base, err := ExpandHome(e.baseDir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	stamp := "ranker-" + e.now().Format("20060102-150405")
	dest := filepath.Join(base, stamp)
	for i := 1; ; i++ {
		err := os.Mkdir(dest, 0o755)
		if err == nil {
			return dest, nil
		}
		if !os.IsExist(err) {
			return "", fmt.Errorf("failed to create export folder: %w", err)
		}
		dest = filepath.Join(base, fmt.Sprintf("%s-%d", stamp, i))
	}
}

// safeName keeps only the final path element so an item can never be written
// outside the destination.
func safeName(filename string) (string, error) {
	name := filepath.Base(filepath.Clean(strings.ReplaceAll(filename, "\\", "/")))
	if name == "." || name == ".." || name == "/" || name == "" || name == ManifestFile {
		return "", fmt.Errorf("invalid filename %q", filename)
	}
	return name, nil
}

// uniqueName returns name, or name with a numeric suffix before the extension
// if an earlier item already took it. Names are compared case-insensitively
// so exports behave the same on case-folding filesystems.
func uniqueName(name string, used map[string]bool) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := name
	for i := 2; used[strings.ToLower(candidate)]; i++ {
		candidate = fmt.Sprintf("%s-%d%s", stem, i, ext)
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}
