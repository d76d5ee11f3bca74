// Package session drives one analysis request at a time from submission to a
// terminal outcome.
//
// The Orchestrator is the only writer of session state. Each Start opens a new
// generation; events from an older generation are discarded, so a superseded
// request can never overwrite the state of a newer one. This package handles:
//   - Opening a stream for the current request and consuming it in a goroutine
//   - Folding progress and completion events into State
//   - Publishing every transition to subscribers
//   - Publishing a one-shot Notice when a request completes or fails
package session
