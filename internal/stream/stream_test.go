package stream

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thruflo/ranker/internal/logging"
	"github.com/thruflo/ranker/internal/testutil"
)

var errConnReset = errors.New("connection reset")

// chunkReader returns one chunk per Read. The last chunk is returned together
// with final, which defaults to io.EOF.
type chunkReader struct {
	chunks [][]byte
	final  error
	closed bool
}

func (r *chunkReader) Read(p []byte) (int, error) {
	final := r.final
	if final == nil {
		final = io.EOF
	}
	if len(r.chunks) == 0 {
		return 0, final
	}
	n := copy(p, r.chunks[0])
	r.chunks[0] = r.chunks[0][n:]
	if len(r.chunks[0]) > 0 {
		return n, nil
	}
	r.chunks = r.chunks[1:]
	if len(r.chunks) == 0 {
		return n, final
	}
	return n, nil
}

func (r *chunkReader) Close() error {
	r.closed = true
	return nil
}

func silentLogger() *logging.Logger {
	logger := logging.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logging.LevelError)
	return logger
}

func newTestStream(body io.ReadCloser, bufSize int) *Stream {
	s := NewStream(NewAnalysisRequest("/photos", ModeBatch), body, silentLogger())
	s.buf = make([]byte, bufSize)
	return s
}

func TestStreamDecodesBytesReturnedWithReadError(t *testing.T) {
	t.Parallel()

	body := &chunkReader{
		chunks: [][]byte{[]byte(testutil.ProgressFrame(1, 1, "a.png") + testutil.CompleteFrame(testutil.SampleImages()[:1]))},
		final:  errConnReset,
	}
	s := newTestStream(body, defaultReadBufferSize)

	events, err := drain(t, s)
	require.NoError(t, err, "a completion read together with an error still completes")
	require.Len(t, events, 2)
	assert.Equal(t, EventTypeProgress, events[0].Type)
	assert.Equal(t, EventTypeComplete, events[1].Type)
	assert.True(t, body.closed)
}

func TestStreamReadErrorAfterPendingFrames(t *testing.T) {
	t.Parallel()

	body := &chunkReader{
		chunks: [][]byte{[]byte(testutil.ProgressFrame(1, 2, "a.png") + testutil.ProgressFrame(2, 2, "b.png"))},
		final:  errConnReset,
	}
	s := newTestStream(body, defaultReadBufferSize)

	for _, want := range []string{"a.png", "b.png"} {
		ev, err := s.Next()
		require.NoError(t, err)
		require.Equal(t, EventTypeProgress, ev.Type)
		assert.Equal(t, want, ev.Progress.CurrentItem)
	}

	_, err := s.Next()
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "read", te.Op)
	assert.ErrorIs(t, err, errConnReset)
	assert.True(t, body.closed)

	_, again := s.Next()
	assert.Equal(t, err, again, "the terminal error is sticky")
}

func TestStreamEverySplitOffset(t *testing.T) {
	t.Parallel()

	input := testutil.ProgressFrame(1, 2, "café 🌅.png") +
		": keepalive\r\n" +
		"data: {\"type\":\"progress\",\"current\":\n" +
		testutil.ProgressFrame(2, 2, "日本.png") +
		testutil.CompleteFrame([]testutil.Image{{Filename: "été.png", Score: 0.5, Payload: []byte("x")}})

	whole := newTestStream(io.NopCloser(bytes.NewReader([]byte(input))), defaultReadBufferSize)
	want, err := drain(t, whole)
	require.NoError(t, err)
	require.Len(t, want, 3, "the malformed frame is dropped")
	assert.Equal(t, "café 🌅.png", want[0].Progress.CurrentItem)
	assert.Equal(t, "日本.png", want[1].Progress.CurrentItem)
	assert.Equal(t, "été.png", want[2].Completion.Items[0].Filename)

	raw := []byte(input)
	for i := 0; i <= len(raw); i++ {
		for j := i; j <= len(raw); j++ {
			body := &chunkReader{chunks: [][]byte{
				append([]byte(nil), raw[:i]...),
				append([]byte(nil), raw[i:j]...),
				append([]byte(nil), raw[j:]...),
			}}
			got, err := drain(t, newTestStream(body, 64))
			require.NoError(t, err, "split at %d,%d", i, j)
			require.Equal(t, want, got, "split at %d,%d", i, j)
		}
	}
}
