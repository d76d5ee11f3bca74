package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/thruflo/ranker/internal/session"
	"github.com/thruflo/ranker/internal/stream"
)

// PadOrTruncate pads or truncates a string to exactly width characters.
// Uses visual width (rune count) for proper Unicode handling.
func PadOrTruncate(s string, width int) string {
	if width <= 0 {
		return ""
	}

	runeLen := utf8.RuneCountInString(s)
	if runeLen == width {
		return s
	}
	if runeLen < width {
		return s + strings.Repeat(" ", width-runeLen)
	}
	return Truncate(s, width)
}

// Truncate truncates a string to max width, adding ellipsis if needed.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}

	runes := []rune(s)
	if len(runes) <= width {
		return s
	}

	if width >= 3 {
		return string(runes[:width-3]) + "..."
	}
	return string(runes[:width])
}

// RightAlign right-aligns text within the given width.
func RightAlign(s string, width int) string {
	runeLen := utf8.RuneCountInString(s)
	if runeLen >= width {
		return PadOrTruncate(s, width)
	}
	return strings.Repeat(" ", width-runeLen) + s
}

// ProgressBar renders a bar like "[████████░░░░░░░░]  50%" from a percentage.
func ProgressBar(percentage float64, width int) string {
	if width < 10 {
		return ""
	}
	pct := min(max(percentage, 0), 100) / 100

	barWidth := width - 7 // Space for "[] XXX%"
	filled := int(pct * float64(barWidth))

	return "[" +
		strings.Repeat("█", filled) +
		strings.Repeat("░", barWidth-filled) +
		"] " + fmt.Sprintf("%3d", int(pct*100)) + "%"
}

// Spinner frames for indeterminate progress.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner returns the frame for tick.
func Spinner(tick int) string {
	if tick < 0 {
		tick = -tick
	}
	return spinnerFrames[tick%len(spinnerFrames)]
}

// Style applies ANSI style codes to text.
func Style(s string, codes ...string) string {
	if len(codes) == 0 {
		return s
	}
	return strings.Join(codes, "") + s + Reset
}

// StatusColor returns an appropriate color code for the given status.
func StatusColor(status session.Status) string {
	switch status {
	case session.StatusRequesting, session.StatusStreaming:
		return FgGreen
	case session.StatusCompleted:
		return FgBrightGreen
	case session.StatusFailed:
		return FgRed
	case session.StatusIdle:
		return FgBrightBlack
	default:
		return ""
	}
}

// FormatStatus formats a status with appropriate color.
func FormatStatus(status session.Status) string {
	color := StatusColor(status)
	if color == "" {
		return status.String()
	}
	return Style(status.String(), color, Bold)
}

// Renderer turns session state into text. Color is off for plain output.
type Renderer struct {
	Width int
	Color bool
	tick  int
}

func (r *Renderer) status(s session.Status) string {
	if r.Color {
		return FormatStatus(s)
	}
	return s.String()
}

func (r *Renderer) dim(s string) string {
	if r.Color {
		return Style(s, Dim)
	}
	return s
}

// StateLine renders a one-line summary suitable for a live line.
func (r *Renderer) StateLine(st session.State) string {
	width := r.Width
	if width <= 0 {
		width = DefaultWidth
	}

	var line string
	switch st.Status {
	case session.StatusIdle:
		line = r.status(st.Status)

	case session.StatusRequesting:
		line = fmt.Sprintf("%s %s %s", r.status(st.Status), st.Request.FolderPath, r.dim(describe(st.Request)))

	case session.StatusStreaming:
		p := st.Progress
		if p.Indeterminate() {
			r.tick++
			line = fmt.Sprintf("%s analyzing %s", Spinner(r.tick), p.CurrentItem)
		} else {
			bar := ProgressBar(p.Percentage, min(40, width/2))
			line = fmt.Sprintf("%s %d/%d %s", bar, p.Current, p.Total, p.CurrentItem)
		}

	case session.StatusCompleted:
		line = fmt.Sprintf("%s %d images ranked in %s", r.status(st.Status), len(st.Items), st.Request.FolderPath)

	case session.StatusFailed:
		line = fmt.Sprintf("%s %v", r.status(st.Status), st.Err)
	}

	if r.Color {
		// Escape codes do not take up columns, so only plain lines are cut.
		return line
	}
	return Truncate(line, width)
}

func describe(req *stream.AnalysisRequest) string {
	if req.Prompted() {
		return fmt.Sprintf("(%s, prompt %q)", req.Mode, req.PromptText())
	}
	return fmt.Sprintf("(%s)", req.Mode)
}

// Results renders completed items in rank order, one per line, with a
// selection marker and a 1-based rank.
func (r *Renderer) Results(items []stream.RankedItem, isSelected func(string) bool) []string {
	ranked := stream.RankItems(items)
	if len(ranked) == 0 {
		return []string{r.dim("no images ranked")}
	}

	width := r.Width
	if width <= 0 {
		width = DefaultWidth
	}
	rankWidth := len(fmt.Sprint(len(ranked)))
	// "[x] " + rank + ". " + name + " " + score(8)
	nameWidth := max(width-4-rankWidth-2-1-8, 8)

	lines := make([]string, 0, len(ranked))
	for i, it := range ranked {
		mark := "[ ]"
		if isSelected != nil && isSelected(it.Filename) {
			mark = "[x]"
			if r.Color {
				mark = Style(mark, FgCyan, Bold)
			}
		}
		rank := RightAlign(fmt.Sprint(i+1), rankWidth)
		score := RightAlign(fmt.Sprintf("%.3f", it.Score), 8)
		lines = append(lines, fmt.Sprintf("%s %s. %s %s", mark, rank, PadOrTruncate(it.Filename, nameWidth), score))
	}
	return lines
}
