package tui

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thruflo/ranker/internal/session"
	"github.com/thruflo/ranker/internal/stream"
)

func TestPadOrTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		s     string
		width int
		want  string
	}{
		{"exact", "abc", 3, "abc"},
		{"pad", "ab", 4, "ab  "},
		{"truncate", "abcdefgh", 6, "abc..."},
		{"zero width", "abc", 0, ""},
		{"unicode", "日本語", 5, "日本語  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, PadOrTruncate(tt.s, tt.width))
		})
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "hello", Truncate("hello", 10))
	assert.Equal(t, "he...", Truncate("hello world", 5))
	assert.Equal(t, "he", Truncate("hello", 2))
	assert.Equal(t, "", Truncate("hello", 0))
}

func TestRightAlign(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "   42", RightAlign("42", 5))
	assert.Equal(t, "12345", RightAlign("12345", 5))
}

func TestProgressBar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		pct  float64
		want string
	}{
		{"empty", 0, "[░░░░░░░░░░░░░]   0%"},
		{"half", 50, "[██████░░░░░░░]  50%"},
		{"full", 100, "[█████████████] 100%"},
		{"clamped high", 250, "[█████████████] 100%"},
		{"clamped low", -5, "[░░░░░░░░░░░░░]   0%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ProgressBar(tt.pct, 20))
		})
	}

	assert.Empty(t, ProgressBar(50, 5), "too narrow")
}

func TestSpinner(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Spinner(0), Spinner(len(spinnerFrames)))
	assert.NotEqual(t, Spinner(0), Spinner(1))
	assert.NotPanics(t, func() { Spinner(-3) })
}

func TestStyle(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "plain", Style("plain"))
	assert.Equal(t, FgRed+Bold+"x"+Reset, Style("x", FgRed, Bold))
}

func TestFormatStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, FgRed+Bold+"failed"+Reset, FormatStatus(session.StatusFailed))
	assert.Equal(t, "status(99)", FormatStatus(session.Status(99)))
}

func TestRenderer_StateLine(t *testing.T) {
	t.Parallel()

	req := stream.NewAnalysisRequest("/pics", stream.ModeBatch)
	prompted := stream.NewPromptRequest("/pics", stream.ModeSingle, "sunsets")

	tests := []struct {
		name  string
		state session.State
		want  string
	}{
		{
			name:  "idle",
			state: session.State{Status: session.StatusIdle},
			want:  "idle",
		},
		{
			name:  "requesting",
			state: session.State{Status: session.StatusRequesting, Request: &req},
			want:  "requesting /pics (batch)",
		},
		{
			name:  "requesting with prompt",
			state: session.State{Status: session.StatusRequesting, Request: &prompted},
			want:  `requesting /pics (single, prompt "sunsets")`,
		},
		{
			name: "streaming",
			state: session.State{
				Status:   session.StatusStreaming,
				Request:  &req,
				Progress: &stream.ProgressEvent{Current: 2, Total: 4, Percentage: 50, CurrentItem: "b.png"},
			},
			want: ProgressBar(50, 40) + " 2/4 b.png",
		},
		{
			name: "completed",
			state: session.State{
				Status:  session.StatusCompleted,
				Request: &req,
				Items:   []stream.RankedItem{{Filename: "a.png"}, {Filename: "b.png"}},
			},
			want: "completed 2 images ranked in /pics",
		},
		{
			name:  "failed",
			state: session.State{Status: session.StatusFailed, Request: &req, Err: errors.New("boom")},
			want:  "failed boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := &Renderer{Width: 80}
			assert.Equal(t, tt.want, r.StateLine(tt.state))
		})
	}
}

func TestRenderer_StateLineIndeterminate(t *testing.T) {
	t.Parallel()

	req := stream.NewAnalysisRequest("/pics", stream.ModeBatch)
	st := session.State{
		Status:   session.StatusStreaming,
		Request:  &req,
		Progress: &stream.ProgressEvent{CurrentItem: "x.png"},
	}

	r := &Renderer{Width: 80}
	first := r.StateLine(st)
	second := r.StateLine(st)
	assert.True(t, strings.HasSuffix(first, "analyzing x.png"))
	assert.NotEqual(t, first, second, "spinner advances")
}

func TestRenderer_StateLineTruncates(t *testing.T) {
	t.Parallel()

	req := stream.NewAnalysisRequest("/a/very/long/folder/path/that/does/not/fit", stream.ModeBatch)
	r := &Renderer{Width: 20}
	line := r.StateLine(session.State{Status: session.StatusRequesting, Request: &req})
	assert.Len(t, []rune(line), 20)
	assert.True(t, strings.HasSuffix(line, "..."))
}

func TestRenderer_Results(t *testing.T) {
	t.Parallel()

	items := []stream.RankedItem{
		{Filename: "beach.png", Score: 0.78},
		{Filename: "sunset.png", Score: 0.91},
		{Filename: "forest.png", Score: 0.42},
	}
	selected := map[string]bool{"beach.png": true}

	r := &Renderer{Width: 40}
	lines := r.Results(items, func(name string) bool { return selected[name] })
	require.Len(t, lines, 3)

	assert.True(t, strings.HasPrefix(lines[0], "[ ] 1. sunset.png"))
	assert.True(t, strings.HasSuffix(lines[0], "   0.910"))
	assert.True(t, strings.HasPrefix(lines[1], "[x] 2. beach.png"))
	assert.True(t, strings.HasPrefix(lines[2], "[ ] 3. forest.png"))
	for _, l := range lines {
		assert.Len(t, []rune(l), 40)
	}
}

func TestRenderer_ResultsEmpty(t *testing.T) {
	t.Parallel()

	r := &Renderer{}
	assert.Equal(t, []string{"no images ranked"}, r.Results(nil, nil))
}
