package tui

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	// Decoders for formats the backend accepts.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// Preview renders image bytes as half-block characters, width columns wide.
// Each character cell shows two vertically stacked pixels.
func Preview(width int, payload []byte) (string, error) {
	if width <= 0 {
		return "", fmt.Errorf("invalid preview width %d", width)
	}
	img, _, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}
	return ToString(width, img), nil
}

// ToString renders img resized to width columns.
func ToString(width int, img image.Image) string {
	img = imaging.Resize(img, width, 0, imaging.Lanczos)
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	var sb strings.Builder
	for y := 0; y < h; y += 2 {
		for x := 0; x < w; x++ {
			top := hex(img.At(b.Min.X+x, b.Min.Y+y))
			bottom := top
			if y+1 < h {
				bottom = hex(img.At(b.Min.X+x, b.Min.Y+y+1))
			}
			sb.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color(top)).
				Background(lipgloss.Color(bottom)).
				Render("▀"))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func hex(c color.Color) string {
	cf, _ := colorful.MakeColor(c)
	return cf.Hex()
}
