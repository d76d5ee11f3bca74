package tui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestANSIEscapeConstants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		constant string
		want     string
	}{
		{"ClearLine", ClearLine, "\033[K"},
		{"Reset", Reset, "\033[0m"},
		{"Bold", Bold, "\033[1m"},
		{"Dim", Dim, "\033[2m"},
		{"FgRed", FgRed, "\033[31m"},
		{"FgGreen", FgGreen, "\033[32m"},
		{"FgYellow", FgYellow, "\033[33m"},
		{"FgCyan", FgCyan, "\033[36m"},
		{"FgBrightBlack", FgBrightBlack, "\033[90m"},
		{"FgBrightGreen", FgBrightGreen, "\033[92m"},
		{"Bell", Bell, "\a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.constant)
		})
	}
}

func TestTerminal_NonTTY(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	term := NewTerminal(&buf)

	assert.False(t, term.IsTTY())
	assert.Equal(t, DefaultWidth, term.Width())

	term.Live("1/3")
	term.Live("2/3")
	term.WriteLine("done")
	term.Writef("%d ranked\n", 3)

	assert.Equal(t, "1/3\n2/3\ndone\n3 ranked\n", buf.String())
}

func TestTerminal_LiveRedraw(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	term := &Terminal{out: &buf, isTTY: true}

	term.Live("1/3")
	term.Live("2/3")
	term.WriteLine("done")
	term.EndLive()

	assert.Equal(t, "\r"+ClearLine+"1/3\r"+ClearLine+"2/3\ndone\n", buf.String())
}
