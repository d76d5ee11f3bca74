// Package tui renders session state to a line-oriented terminal.
package tui

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// DefaultWidth is used when the output is not a terminal.
const DefaultWidth = 80

// Terminal writes to an output that may or may not be a terminal. Live lines
// are redrawn in place only when it is one.
type Terminal struct {
	out   io.Writer
	fd    int
	isTTY bool
	live  bool
}

// NewTerminal wraps out. Files attached to a terminal get in-place redraws.
func NewTerminal(out io.Writer) *Terminal {
	t := &Terminal{out: out, fd: -1}
	if f, ok := out.(*os.File); ok {
		t.fd = int(f.Fd())
		t.isTTY = term.IsTerminal(t.fd)
	}
	return t
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// IsTTY reports whether the output is a terminal.
func (t *Terminal) IsTTY() bool {
	return t.isTTY
}

// Width returns the terminal width, or DefaultWidth.
func (t *Terminal) Width() int {
	if !t.isTTY {
		return DefaultWidth
	}
	w, _, err := term.GetSize(t.fd)
	if err != nil || w <= 0 {
		return DefaultWidth
	}
	return w
}

// Live replaces the current live line. Off a terminal each call prints a new
// line instead.
func (t *Terminal) Live(s string) {
	if !t.isTTY {
		fmt.Fprintln(t.out, s)
		return
	}
	fmt.Fprint(t.out, "\r"+ClearLine+s)
	t.live = true
}

// EndLive moves past the live line so later output does not overwrite it.
func (t *Terminal) EndLive() {
	if t.live {
		fmt.Fprintln(t.out)
		t.live = false
	}
}

// WriteLine writes a string followed by a newline, ending any live line first.
func (t *Terminal) WriteLine(s string) {
	t.EndLive()
	fmt.Fprintln(t.out, s)
}

// Writef writes a formatted string, ending any live line first.
func (t *Terminal) Writef(format string, args ...any) {
	t.EndLive()
	fmt.Fprintf(t.out, format, args...)
}

// ANSI escape sequences
const (
	ClearLine = "\033[K" // Clear from cursor to end of line

	// Text attributes
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	// Foreground colors
	FgRed    = "\033[31m"
	FgGreen  = "\033[32m"
	FgYellow = "\033[33m"
	FgCyan   = "\033[36m"

	FgBrightBlack = "\033[90m"
	FgBrightGreen = "\033[92m"

	// Bell
	Bell = "\a"
)
