package testutil

import (
	"context"
	"testing"
	"time"
)

// Default timeouts for tests that talk to a fake backend.
const (
	// DefaultStreamTimeout bounds a whole analysis exchange.
	DefaultStreamTimeout = 10 * time.Second

	// DefaultTestBuffer is the buffer time subtracted from test deadline
	// to allow for cleanup operations before the test times out.
	DefaultTestBuffer = 2 * time.Second
)

// ContextWithTestDeadline creates a context that respects the test's deadline.
// It subtracts a buffer from the test deadline to allow time for cleanup.
// If the test has no deadline, it falls back to the provided fallback duration.
func ContextWithTestDeadline(t *testing.T, fallback time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()
	return ContextWithTestDeadlineBuffer(t, fallback, DefaultTestBuffer)
}

// ContextWithTestDeadlineBuffer is ContextWithTestDeadline with a custom buffer.
// If the adjusted deadline is already past or further out than fallback, the
// fallback is used instead.
func ContextWithTestDeadlineBuffer(t *testing.T, fallback, buffer time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()

	if deadline, ok := t.Deadline(); ok {
		adjusted := deadline.Add(-buffer)
		if remaining := time.Until(adjusted); remaining > 0 && remaining < fallback {
			return context.WithDeadline(context.Background(), adjusted)
		}
	}
	return context.WithTimeout(context.Background(), fallback)
}

// StreamContext creates a context for one analysis exchange.
func StreamContext(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return ContextWithTestDeadline(t, DefaultStreamTimeout)
}

// ShortOperationContext creates a context with a short timeout (2 seconds)
// for quick operations like health probes.
func ShortOperationContext(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return ContextWithTestDeadline(t, 2*time.Second)
}
