package stream

import (
	"errors"
	"io"
	"iter"
	"sync"

	"github.com/thruflo/ranker/internal/logging"
)

// defaultReadBufferSize bounds each read from the connection. Events are decoded
// as soon as a chunk arrives, so this never delays a progress event.
const defaultReadBufferSize = 32 * 1024

// EventReader is a lazy, finite sequence of events for one request.
type EventReader interface {
	// Next blocks until the next event is decodable. It returns io.EOF after the
	// completion event has been delivered, or a *TransportError if the stream
	// ended before completion.
	Next() (Event, error)
	// Close releases the underlying connection. It is safe to call more than once.
	Close() error
}

// Stream reads one analysis response. It is not safe for concurrent use.
type Stream struct {
	req  AnalysisRequest
	body io.ReadCloser
	log  *logging.Logger

	dec     Decoder
	buf     []byte
	pending []Frame
	eof     bool
	// readErr is a read failure held back until pending frames are drained.
	readErr error

	// err is the terminal result once the stream has finished.
	err       error
	closeOnce sync.Once
}

var _ EventReader = (*Stream)(nil)

// NewStream wraps a response body. It is exported for callers that already hold
// an event-stream body; Client.Open is the usual entry point.
func NewStream(req AnalysisRequest, body io.ReadCloser, logger *logging.Logger) *Stream {
	if logger == nil {
		logger = logging.Default()
	}
	return &Stream{
		req:  req,
		body: body,
		log:  logger.With("request", req.ID),
		buf:  make([]byte, defaultReadBufferSize),
	}
}

// Request returns the request this stream answers.
func (s *Stream) Request() AnalysisRequest {
	return s.req
}

// Next returns the next event.
func (s *Stream) Next() (Event, error) {
	if s.err != nil {
		return Event{}, s.err
	}

	for {
		for len(s.pending) > 0 {
			f := s.pending[0]
			s.pending = s.pending[1:]

			ev, err := Parse(f)
			if err != nil {
				s.log.Warn("dropping malformed frame", "error", err)
				continue
			}
			if ev == nil {
				continue
			}

			switch ev.Type {
			case EventTypeComplete:
				if dropped := ev.Completion.dedupe(); len(dropped) > 0 {
					s.log.Warn("completion repeated filenames, keeping first", "filenames", dropped)
				}
				s.finish(io.EOF)
				return *ev, nil
			case EventTypeError:
				s.finish(&TransportError{Op: "backend", Err: errors.New(ev.Failure.Message)})
				return Event{}, s.err
			default:
				return *ev, nil
			}
		}

		if s.readErr != nil {
			s.finish(&TransportError{Op: "read", Err: s.readErr})
			return Event{}, s.err
		}
		if s.eof {
			s.finish(&TransportError{Op: "read", Err: io.ErrUnexpectedEOF})
			return Event{}, s.err
		}

		n, err := s.body.Read(s.buf)
		if n > 0 {
			s.pending = append(s.pending, s.dec.Feed(s.buf[:n])...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				if f, ok := s.dec.Flush(); ok {
					s.pending = append(s.pending, f)
				}
				s.eof = true
				continue
			}
			// Bytes returned alongside the error are still decoded first.
			s.readErr = err
		}
	}
}

// All adapts the stream to a range-over-func sequence. The final pair carries a
// non-nil error only when the stream failed; a completed stream just ends.
func (s *Stream) All() iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		defer s.Close()
		for {
			ev, err := s.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(Event{}, err)
				return
			}
			if !yield(ev, nil) {
				return
			}
		}
	}
}

// Close releases the connection.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.body.Close()
	})
	return err
}

func (s *Stream) finish(err error) {
	s.err = err
	s.pending = nil
	s.Close()
}
