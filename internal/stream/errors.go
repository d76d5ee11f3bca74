package stream

import (
	"errors"
	"fmt"
)

// ErrSuperseded marks events that belong to a request which is no longer current.
// It never reaches the user.
var ErrSuperseded = errors.New("superseded by a newer request")

// ValidationError reports a call rejected before any state change or network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// ProtocolError describes a single frame that could not be interpreted.
// The stream recovers by dropping the frame.
type ProtocolError struct {
	Frame Frame
	Err   error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("malformed frame %q: %v", truncateFrame(e.Frame, 80), e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// TransportError reports a failed connection, a non-success HTTP status, a stream
// that closed before completion, or a failure signaled by the backend.
type TransportError struct {
	// Op is the stage that failed: "connect", "status", "read" or "backend".
	Op string
	// StatusCode is set when Op is "status".
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport %s: server returned status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError checks if an error is a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func truncateFrame(f Frame, n int) string {
	if len(f) <= n {
		return string(f)
	}
	return string(f[:n]) + "..."
}
