package devbackend

import (
	"bytes"
	"image"
	"strings"
	"unicode"

	"github.com/disintegration/imaging"
)

// score is mean luminance in [0, 1], averaged with the share of prompt words
// that appear in the filename when a prompt is given.
func score(img image.Image, filename string, words []string) float64 {
	lum := luminance(img)
	if len(words) == 0 {
		return lum
	}
	name := strings.ToLower(filename)
	hits := 0
	for _, w := range words {
		if strings.Contains(name, w) {
			hits++
		}
	}
	return (lum + float64(hits)/float64(len(words))) / 2
}

func luminance(img image.Image) float64 {
	small := imaging.Resize(img, 16, 16, imaging.Box)
	b := small.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return 0
	}
	var sum float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := small.At(x, y).RGBA()
			sum += (0.2126*float64(r) + 0.7152*float64(g) + 0.0722*float64(bl)) / 0xffff
		}
	}
	return sum / float64(n)
}

func promptWords(prompt string) []string {
	return strings.FieldsFunc(strings.ToLower(prompt), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func thumbnail(img image.Image, size int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Fit(img, size, size, imaging.Lanczos), imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
