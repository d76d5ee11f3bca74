package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankItems(t *testing.T) {
	t.Parallel()

	items := []RankedItem{
		{Filename: "a", Score: 0.5},
		{Filename: "b", Score: 0.9},
		{Filename: "c", Score: 0.5},
		{Filename: "d", Score: 0.1},
	}

	ranked := RankItems(items)
	names := make([]string, 0, len(ranked))
	for _, it := range ranked {
		names = append(names, it.Filename)
	}
	assert.Equal(t, []string{"b", "a", "c", "d"}, names, "ties keep original order")
	assert.Equal(t, "a", items[0].Filename, "input is not modified")

	c := CompletionEvent{Items: items}
	assert.Equal(t, ranked, c.Ranked())
}

func TestCompletionDedupe(t *testing.T) {
	t.Parallel()

	c := CompletionEvent{Items: []RankedItem{
		{Filename: "a", Score: 0.1},
		{Filename: "b", Score: 0.2},
		{Filename: "a", Score: 0.9},
	}}

	dropped := c.dedupe()
	assert.Equal(t, []string{"a"}, dropped)
	assert.Equal(t, []RankedItem{{Filename: "a", Score: 0.1}, {Filename: "b", Score: 0.2}}, c.Items)

	assert.Empty(t, c.dedupe())
}

func TestProgressString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "2/4 (50%) b.png", ProgressEvent{Current: 2, Total: 4, Percentage: 50, CurrentItem: "b.png"}.String())
	assert.Equal(t, "processing c.png", ProgressEvent{Current: 7, CurrentItem: "c.png"}.String())
}
