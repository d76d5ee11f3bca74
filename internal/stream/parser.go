package stream

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// Parse maps one frame to a typed event.
//
// Frames without the data marker (comments, keepalives, other SSE fields) return
// (nil, nil). Frames whose payload cannot be interpreted return a *ProtocolError.
func Parse(f Frame) (*Event, error) {
	payload, ok := cutMarker(f)
	if !ok {
		return nil, nil
	}
	payload = bytes.TrimSpace(payload)

	if !gjson.ValidBytes(payload) {
		return nil, &ProtocolError{Frame: f, Err: errors.New("invalid JSON")}
	}
	typ := gjson.GetBytes(payload, "type")
	if !typ.Exists() {
		return nil, &ProtocolError{Frame: f, Err: errors.New("missing type field")}
	}

	switch EventType(typ.String()) {
	case EventTypeProgress:
		var p ProgressEvent
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, &ProtocolError{Frame: f, Err: fmt.Errorf("failed to decode progress: %w", err)}
		}
		p.clamp()
		return &Event{Type: EventTypeProgress, Progress: &p}, nil

	case EventTypeComplete:
		if !gjson.GetBytes(payload, "top_images").IsArray() {
			return nil, &ProtocolError{Frame: f, Err: errors.New("complete event without top_images array")}
		}
		var c CompletionEvent
		if err := json.Unmarshal(payload, &c); err != nil {
			return nil, &ProtocolError{Frame: f, Err: fmt.Errorf("failed to decode completion: %w", err)}
		}
		return &Event{Type: EventTypeComplete, Completion: &c}, nil

	case EventTypeError:
		e := ErrorEvent{Message: gjson.GetBytes(payload, "message").String()}
		if e.Message == "" {
			e.Message = "backend reported an error"
		}
		return &Event{Type: EventTypeError, Failure: &e}, nil

	default:
		return nil, &ProtocolError{Frame: f, Err: fmt.Errorf("unknown event type %q", typ.String())}
	}
}
