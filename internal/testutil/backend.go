package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

// Recorded is one analysis request received by a Backend.
type Recorded struct {
	Path string
	Body map[string]any
}

// Script drives one analysis response.
type Script func(w *SSEWriter, r *http.Request)

// Backend is a fake analysis backend.
type Backend struct {
	*httptest.Server

	mu       sync.Mutex
	requests []Recorded
	healthy  atomic.Bool
	done     chan struct{}
}

// NewBackend starts a backend that is healthy and runs script for every POST.
// The server is closed when the test completes.
func NewBackend(t *testing.T, script Script) *Backend {
	t.Helper()

	b := &Backend{done: make(chan struct{})}
	b.healthy.Store(true)

	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			b.serveHealth(w)
			return
		}

		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.mu.Lock()
		b.requests = append(b.requests, Recorded{Path: r.URL.Path, Body: body})
		b.mu.Unlock()

		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		script(&SSEWriter{w: w, f: flusher, ctx: r.Context(), done: b.done}, r)
	}))

	t.Cleanup(func() {
		close(b.done)
		b.CloseClientConnections()
		b.Close()
	})
	return b
}

func (b *Backend) serveHealth(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	if !b.healthy.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"starting"}`))
		return
	}
	_, _ = w.Write([]byte(`{"status":"ok","message":"Image analysis backend is running"}`))
}

// SetHealthy controls the health probe response.
func (b *Backend) SetHealthy(ok bool) {
	b.healthy.Store(ok)
}

// Requests returns a copy of the analysis requests received so far.
func (b *Backend) Requests() []Recorded {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Recorded, len(b.requests))
	copy(out, b.requests)
	return out
}

// SSEWriter writes a streamed response, flushing after every write.
type SSEWriter struct {
	w    http.ResponseWriter
	f    http.Flusher
	ctx  context.Context
	done chan struct{}
}

// Send writes a raw chunk. Chunks need not align with frame boundaries.
func (s *SSEWriter) Send(chunk string) {
	_, _ = s.w.Write([]byte(chunk))
	s.f.Flush()
}

func (s *SSEWriter) Progress(current, total int, item string) {
	s.Send(ProgressFrame(current, total, item))
}

func (s *SSEWriter) Complete(images []Image) {
	s.Send(CompleteFrame(images))
}

func (s *SSEWriter) Error(message string) {
	s.Send(ErrorFrame(message))
}

// Block holds the connection open until the client goes away or the test ends.
func (s *SSEWriter) Block() {
	select {
	case <-s.ctx.Done():
	case <-s.done:
	}
}

// Wait blocks until gate is closed, the client goes away, or the test ends.
// It reports whether the gate opened.
func (s *SSEWriter) Wait(gate <-chan struct{}) bool {
	select {
	case <-gate:
		return true
	case <-s.ctx.Done():
		return false
	case <-s.done:
		return false
	}
}
