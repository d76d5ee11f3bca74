package devbackend

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/thruflo/ranker/internal/stream"
)

type progressFrame struct {
	Type stream.EventType `json:"type"`
	stream.ProgressEvent
}

type completeFrame struct {
	Type stream.EventType `json:"type"`
	stream.CompletionEvent
}

type errorFrame struct {
	Type stream.EventType `json:"type"`
	stream.ErrorEvent
}

// eventWriter writes data frames and flushes after each one.
type eventWriter struct {
	mu sync.Mutex
	w  http.ResponseWriter
	f  http.Flusher
}

func (e *eventWriter) send(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	_, _ = e.w.Write([]byte("data: " + string(data) + "\n\n"))
	e.f.Flush()
}
