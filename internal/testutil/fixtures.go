package testutil

import (
	"bytes"
	"encoding/json"
	"image/color"

	"github.com/disintegration/imaging"
)

// Image is a scored image as the backend reports it.
type Image struct {
	Filename string
	Score    float64
	Payload  []byte
}

type wireImage struct {
	Filename string  `json:"filename"`
	Score    float64 `json:"score"`
	Payload  []byte  `json:"base64_image"`
}

// SamplePNG encodes a 2x2 image of a single color.
func SamplePNG(c color.Color) []byte {
	var buf bytes.Buffer
	img := imaging.New(2, 2, c)
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// SampleImages returns three images in wire order, which is not score order.
// Returns a new slice each time to prevent test interference.
func SampleImages() []Image {
	return []Image{
		{Filename: "beach.png", Score: 0.78, Payload: SamplePNG(color.NRGBA{R: 230, G: 200, B: 120, A: 255})},
		{Filename: "sunset.png", Score: 0.91, Payload: SamplePNG(color.NRGBA{R: 250, G: 120, B: 40, A: 255})},
		{Filename: "forest.png", Score: 0.42, Payload: SamplePNG(color.NRGBA{R: 30, G: 120, B: 50, A: 255})},
	}
}

// Frame wraps a JSON payload as one data frame, including the blank line that
// terminates an event.
func Frame(payload string) string {
	return "data: " + payload + "\n\n"
}

// ProgressPayload returns the JSON for a progress event.
func ProgressPayload(current, total int, item string) string {
	pct := 0.0
	if total > 0 {
		pct = float64(current) / float64(total) * 100
	}
	return mustJSON(map[string]any{
		"type":         "progress",
		"current":      current,
		"total":        total,
		"percentage":   pct,
		"currentImage": item,
	})
}

// CompletePayload returns the JSON for a completion event.
func CompletePayload(images []Image) string {
	items := make([]wireImage, 0, len(images))
	for _, img := range images {
		items = append(items, wireImage(img))
	}
	return mustJSON(map[string]any{
		"type":       "complete",
		"top_images": items,
	})
}

// ErrorPayload returns the JSON for a backend error event.
func ErrorPayload(message string) string {
	return mustJSON(map[string]any{"type": "error", "message": message})
}

func ProgressFrame(current, total int, item string) string {
	return Frame(ProgressPayload(current, total, item))
}

func CompleteFrame(images []Image) string {
	return Frame(CompletePayload(images))
}

func ErrorFrame(message string) string {
	return Frame(ErrorPayload(message))
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}
