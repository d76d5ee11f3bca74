package session

import (
	"errors"
	"fmt"

	"github.com/thruflo/ranker/internal/stream"
)

// Status is the discriminant of State.
type Status int

const (
	StatusIdle Status = iota
	StatusRequesting
	StatusStreaming
	StatusCompleted
	StatusFailed
)

// String returns the lower-case status name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRequesting:
		return "requesting"
	case StatusStreaming:
		return "streaming"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Active reports whether a request is in flight.
func (s Status) Active() bool {
	return s == StatusRequesting || s == StatusStreaming
}

// Terminal reports whether the request has finished.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ErrorKind classifies the failure of a Failed state.
type ErrorKind string

const (
	ErrorKindNone      ErrorKind = ""
	ErrorKindTransport ErrorKind = "transport"
	ErrorKindBackend   ErrorKind = "backend"
)

// State is a snapshot of the session. Which fields are set depends on Status:
//
//	Idle        nothing
//	Requesting  Request
//	Streaming   Request, Progress
//	Completed   Request, Items
//	Failed      Request, Err
//
// Items is shared between snapshots and must not be modified.
type State struct {
	Status     Status
	Generation uint64
	Request    *stream.AnalysisRequest
	Progress   *stream.ProgressEvent
	Items      []stream.RankedItem
	Err        error
}

// Kind returns the failure classification of a Failed state.
func (s State) Kind() ErrorKind {
	if s.Status != StatusFailed || s.Err == nil {
		return ErrorKindNone
	}
	var te *stream.TransportError
	if errors.As(s.Err, &te) && te.Op == "backend" {
		return ErrorKindBackend
	}
	return ErrorKindTransport
}

// Item looks up a completed item by filename.
func (s State) Item(filename string) (stream.RankedItem, bool) {
	if s.Status != StatusCompleted {
		return stream.RankedItem{}, false
	}
	for _, it := range s.Items {
		if it.Filename == filename {
			return it, true
		}
	}
	return stream.RankedItem{}, false
}

// Ranked returns the completed items ordered by descending score.
func (s State) Ranked() []stream.RankedItem {
	return stream.RankItems(s.Items)
}

// Notice is a one-shot notification emitted when a request completes or fails.
// It is separate from the continuous state stream.
type Notice struct {
	Generation uint64
	Status     Status
	Request    stream.AnalysisRequest
	Count      int
	Err        error
}

// Message returns a short human-readable summary.
func (n Notice) Message() string {
	switch n.Status {
	case StatusCompleted:
		if n.Count == 1 {
			return fmt.Sprintf("Analysis of %s complete: 1 image ranked", n.Request.FolderPath)
		}
		return fmt.Sprintf("Analysis of %s complete: %d images ranked", n.Request.FolderPath, n.Count)
	case StatusFailed:
		return fmt.Sprintf("Analysis of %s failed: %v", n.Request.FolderPath, n.Err)
	default:
		return n.Status.String()
	}
}
