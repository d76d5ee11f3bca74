package stream

import "bytes"

// Frame is one complete line of the event stream, without its line terminator.
type Frame []byte

var dataMarker = []byte("data:")

// cutMarker strips the data marker and an optional single space after it.
func cutMarker(f []byte) ([]byte, bool) {
	rest, ok := bytes.CutPrefix(f, dataMarker)
	if !ok {
		return nil, false
	}
	rest, _ = bytes.CutPrefix(rest, []byte(" "))
	return rest, true
}

// Decoder splits chunks that arrive at arbitrary boundaries into frames.
// The zero value is ready to use. A Decoder is not safe for concurrent use.
type Decoder struct {
	buf []byte
}

// Feed appends chunk to the buffered tail and returns every complete line.
// Blank lines are skipped and a trailing '\r' is removed.
func (d *Decoder) Feed(chunk []byte) []Frame {
	d.buf = append(d.buf, chunk...)

	var frames []Frame
	start := 0
	for {
		i := bytes.IndexByte(d.buf[start:], '\n')
		if i < 0 {
			break
		}
		line := bytes.TrimSuffix(d.buf[start:start+i], []byte{'\r'})
		if len(line) > 0 {
			frames = append(frames, Frame(bytes.Clone(line)))
		}
		start += i + 1
	}

	// Keep only the incomplete tail.
	if start > 0 {
		d.buf = append(d.buf[:0], d.buf[start:]...)
	}
	return frames
}

// Flush is called at end of stream. It returns the buffered tail only when it is
// a data frame with non-empty content; anything else is discarded.
func (d *Decoder) Flush() (Frame, bool) {
	tail := bytes.TrimSuffix(d.buf, []byte{'\r'})
	d.buf = d.buf[:0]

	content, ok := cutMarker(tail)
	if !ok || len(bytes.TrimSpace(content)) == 0 {
		return nil, false
	}
	return Frame(bytes.Clone(tail)), true
}

// Buffered returns the number of bytes held for the next chunk.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}
