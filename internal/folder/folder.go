// Package folder provides ways to choose the folder to analyze.
package folder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/thruflo/ranker/internal/export"
)

// PickResult is the outcome of a pick. Path is set only when Cancelled is false.
type PickResult struct {
	Cancelled bool
	Path      string
}

// Picker chooses a folder.
type Picker interface {
	PickFolder(ctx context.Context) (PickResult, error)
}

// ArgPicker returns a fixed path, typically a command-line argument.
type ArgPicker struct {
	Path string
}

// PickFolder validates the path and returns it as an absolute directory.
// An empty path counts as cancelled.
func (p ArgPicker) PickFolder(ctx context.Context) (PickResult, error) {
	if strings.TrimSpace(p.Path) == "" {
		return PickResult{Cancelled: true}, nil
	}
	path, err := Resolve(p.Path)
	if err != nil {
		return PickResult{}, err
	}
	return PickResult{Path: path}, nil
}

// PromptPicker asks for a path on a line-oriented input.
type PromptPicker struct {
	in     *bufio.Reader
	out    io.Writer
	prompt string
}

// NewPromptPicker reads answers from in and writes the prompt to out.
func NewPromptPicker(in io.Reader, out io.Writer) *PromptPicker {
	return &PromptPicker{
		in:     bufio.NewReader(in),
		out:    out,
		prompt: "Folder to analyze (empty to cancel): ",
	}
}

// PickFolder reads one line. An empty line or end of input cancels.
// An answer that is not a directory is an error and leaves no state behind.
func (p *PromptPicker) PickFolder(ctx context.Context) (PickResult, error) {
	if err := ctx.Err(); err != nil {
		return PickResult{}, err
	}
	fmt.Fprint(p.out, p.prompt)

	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return PickResult{}, fmt.Errorf("failed to read folder: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return PickResult{Cancelled: true}, nil
	}

	path, err := Resolve(line)
	if err != nil {
		return PickResult{}, err
	}
	return PickResult{Path: path}, nil
}

// Resolve expands "~", makes path absolute, and checks that it is a directory.
func Resolve(path string) (string, error) {
	expanded, err := export.ExpandHome(strings.TrimSpace(path))
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("folder %s: %w", path, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", path)
	}
	return abs, nil
}
