// Package stream implements the client side of the backend's analysis event stream:
// splitting raw chunks into frames, parsing frames into typed events, and exposing
// one request's events as a lazy pull sequence.
package stream

import (
	"fmt"
	"sort"
)

// EventType identifies the kind of event in the stream.
type EventType string

const (
	// EventTypeProgress is a progress snapshot.
	EventTypeProgress EventType = "progress"
	// EventTypeComplete carries the ranked results and ends the stream.
	EventTypeComplete EventType = "complete"
	// EventTypeError is a failure reported by the backend. It ends the stream.
	EventTypeError EventType = "error"
)

// Event is one typed message decoded from a frame.
// Exactly one of the payload fields is set, matching Type.
type Event struct {
	Type       EventType
	Progress   *ProgressEvent
	Completion *CompletionEvent
	Failure    *ErrorEvent
}

// ProgressEvent is a progress snapshot. Later snapshots supersede earlier ones.
type ProgressEvent struct {
	Current    int     `json:"current"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
	// CurrentItem is the label of the image being processed.
	CurrentItem string `json:"currentImage"`
}

// Indeterminate reports whether the total is unknown. The protocol does not
// guarantee monotonic or non-zero totals.
func (p ProgressEvent) Indeterminate() bool {
	return p.Total <= 0
}

// clamp brings out-of-range values back into their documented bounds.
func (p *ProgressEvent) clamp() {
	if p.Current < 0 {
		p.Current = 0
	}
	if p.Total < 0 {
		p.Total = 0
	}
	switch {
	case p.Percentage < 0:
		p.Percentage = 0
	case p.Percentage > 100:
		p.Percentage = 100
	}
}

// String returns a short human-readable description.
func (p ProgressEvent) String() string {
	if p.Indeterminate() {
		return fmt.Sprintf("processing %s", p.CurrentItem)
	}
	return fmt.Sprintf("%d/%d (%.0f%%) %s", p.Current, p.Total, p.Percentage, p.CurrentItem)
}

// RankedItem is one scored image.
type RankedItem struct {
	Filename string  `json:"filename"`
	Score    float64 `json:"score"`
	// ImagePayload holds the image bytes; on the wire it is standard base64.
	ImagePayload []byte `json:"base64_image"`
}

// CompletionEvent carries the final result set.
type CompletionEvent struct {
	Items []RankedItem `json:"top_images"`
}

// Ranked returns a copy of the items ordered by descending score.
// Ties keep their original order.
func (c CompletionEvent) Ranked() []RankedItem {
	return RankItems(c.Items)
}

// RankItems returns a copy of items ordered by descending score.
func RankItems(items []RankedItem) []RankedItem {
	out := make([]RankedItem, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// dedupe drops repeated filenames, keeping the first occurrence.
// It returns the names that were dropped.
func (c *CompletionEvent) dedupe() []string {
	seen := make(map[string]struct{}, len(c.Items))
	kept := c.Items[:0]
	var dropped []string
	for _, item := range c.Items {
		if _, ok := seen[item.Filename]; ok {
			dropped = append(dropped, item.Filename)
			continue
		}
		seen[item.Filename] = struct{}{}
		kept = append(kept, item)
	}
	c.Items = kept
	return dropped
}

// ErrorEvent is a failure reported by the backend mid-stream.
type ErrorEvent struct {
	Message string `json:"message"`
}
