package testutil

import (
	"testing"
	"time"
)

// Receive waits for one value from ch, failing the test on timeout or close.
func Receive[T any](t testing.TB, ch <-chan T, timeout time.Duration) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed while waiting for value")
		}
		return v
	case <-time.After(timeout):
		t.Fatalf("timed out after %v waiting for value", timeout)
	}
	var zero T
	return zero
}

// ReceiveUntil discards values until one satisfies match.
func ReceiveUntil[T any](t testing.TB, ch <-chan T, timeout time.Duration, match func(T) bool) T {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case v, ok := <-ch:
			if !ok {
				t.Fatalf("channel closed before a matching value arrived")
			}
			if match(v) {
				return v
			}
		case <-deadline:
			t.Fatalf("timed out after %v waiting for matching value", timeout)
			var zero T
			return zero
		}
	}
}

// AssertNoReceive fails the test if a value arrives on ch within wait.
func AssertNoReceive[T any](t testing.TB, ch <-chan T, wait time.Duration) {
	t.Helper()
	select {
	case v, ok := <-ch:
		if ok {
			t.Errorf("unexpected value received: %+v", v)
		}
	case <-time.After(wait):
	}
}
