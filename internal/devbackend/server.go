// Package devbackend is a local stand-in for the analysis backend. It speaks
// the same event protocol and scores images by brightness, optionally boosted
// by prompt words found in the filename. It exists for manual testing.
package devbackend

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"github.com/thruflo/ranker/internal/logging"
	"github.com/thruflo/ranker/internal/stream"

	_ "golang.org/x/image/webp"
)

// Defaults for Options.
const (
	DefaultTopN          = 10
	DefaultThumbnailSize = 256
	DefaultBatchSize     = 4
)

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

// Options tunes the fake analysis.
type Options struct {
	// Delay is slept after each scored image in single mode and after each
	// batch in batch mode.
	Delay         time.Duration
	TopN          int
	ThumbnailSize int
	BatchSize     int
}

// Server serves the health probe and both analysis endpoints.
type Server struct {
	opts Options
	log  *logging.Logger
	mux  *http.ServeMux
}

// New creates a Server. Zero option values take the defaults.
func New(opts Options, logger *logging.Logger) *Server {
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	if opts.ThumbnailSize <= 0 {
		opts.ThumbnailSize = DefaultThumbnailSize
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = logging.Default()
	}

	s := &Server{opts: opts, log: logger, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /{$}", s.handleHealth)
	s.mux.HandleFunc("POST "+stream.DefaultAnalyzePath, s.handleAnalyze)
	s.mux.HandleFunc("POST "+stream.DefaultPromptPath, s.handleAnalyze)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stream.HealthStatus{Status: "ok", Message: "Image analysis backend is running"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req stream.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "invalid request body"})
		return
	}
	if strings.HasSuffix(r.URL.Path, "/prompt") && !req.Prompted() {
		empty := ""
		req.Prompt = &empty
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	out := &eventWriter{w: w, f: flusher}
	log := s.log.With("folder", req.FolderPath)
	log.Info("analysis started", "mode", req.Mode, "prompted", req.Prompted())

	items, err := s.analyze(r.Context(), req, out)
	if err != nil {
		log.Warn("analysis failed", "error", err)
		out.send(errorFrame{Type: stream.EventTypeError, ErrorEvent: stream.ErrorEvent{Message: err.Error()}})
		return
	}
	out.send(completeFrame{Type: stream.EventTypeComplete, CompletionEvent: stream.CompletionEvent{Items: items}})
	log.Info("analysis complete", "ranked", len(items))
}

// analyze scores every image in the folder, reporting progress as it goes,
// and returns the top results.
func (s *Server) analyze(ctx context.Context, req stream.AnalysisRequest, out *eventWriter) ([]stream.RankedItem, error) {
	files, err := listImages(req.FolderPath)
	if err != nil {
		return nil, err
	}

	batch := s.opts.BatchSize
	if req.Mode == stream.ModeSingle {
		batch = 1
	}
	words := promptWords(req.PromptText())

	var (
		mu     sync.Mutex
		done   int
		scored = make([]scoredImage, 0, len(files))
	)
	for start := 0; start < len(files); start += batch {
		g, gctx := errgroup.WithContext(ctx)
		for _, name := range files[start:min(start+batch, len(files))] {
			g.Go(func() error {
				img, err := imaging.Open(filepath.Join(req.FolderPath, name), imaging.AutoOrientation(true))
				if err != nil {
					s.log.Warn("skipping unreadable image", "file", name, "error", err)
					img = nil
				}

				mu.Lock()
				defer mu.Unlock()
				if img != nil {
					scored = append(scored, scoredImage{name: name, img: img, score: score(img, name, words)})
				}
				done++
				out.send(progressFrame{Type: stream.EventTypeProgress, ProgressEvent: stream.ProgressEvent{
					Current:     done,
					Total:       len(files),
					Percentage:  float64(done) / float64(len(files)) * 100,
					CurrentItem: name,
				}})
				return gctx.Err()
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := sleep(ctx, s.opts.Delay); err != nil {
			return nil, err
		}
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	if len(scored) > s.opts.TopN {
		scored = scored[:s.opts.TopN]
	}

	items := make([]stream.RankedItem, 0, len(scored))
	for _, sc := range scored {
		payload, err := thumbnail(sc.img, s.opts.ThumbnailSize)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", sc.name, err)
		}
		items = append(items, stream.RankedItem{Filename: sc.name, Score: sc.score, ImagePayload: payload})
	}
	return items, nil
}

type scoredImage struct {
	name  string
	img   image.Image
	score float64
}

func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("folder not found: %s", dir)
		}
		return nil, fmt.Errorf("failed to read folder: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, e.Name())
	}
	return files, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
