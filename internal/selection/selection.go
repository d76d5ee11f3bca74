// Package selection tracks which completed results the user has chosen and
// exports them.
package selection

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/thruflo/ranker/internal/export"
	"github.com/thruflo/ranker/internal/logging"
	"github.com/thruflo/ranker/internal/session"
	"github.com/thruflo/ranker/internal/stream"
	"golang.org/x/sync/semaphore"
)

// ErrExportInProgress rejects an export while another is still running.
var ErrExportInProgress = errors.New("an export is already in progress")

// StateReader gives read-only access to session state.
type StateReader interface {
	State() session.State
}

// Exporter writes items somewhere and reports where.
type Exporter interface {
	ExportImages(ctx context.Context, items []stream.RankedItem) (export.Result, error)
}

// Selection is a set of filenames drawn from the current completed result.
// It follows the session: whenever the session is not Completed, or has moved
// on to another generation, the set is empty.
type Selection struct {
	source   StateReader
	exporter Exporter
	log      *logging.Logger

	mu         sync.Mutex
	generation uint64
	selected   map[string]struct{}

	// inflight admits one export at a time.
	inflight *semaphore.Weighted
}

// New creates an empty selection over source.
func New(source StateReader, exporter Exporter) *Selection {
	return &Selection{
		source:   source,
		exporter: exporter,
		log:      logging.With("component", "selection"),
		selected: make(map[string]struct{}),
		inflight: semaphore.NewWeighted(1),
	}
}

// syncLocked drops the selection if the session left the generation it was
// built against.
func (s *Selection) syncLocked() session.State {
	st := s.source.State()
	if st.Status != session.StatusCompleted || st.Generation != s.generation {
		if len(s.selected) > 0 {
			s.log.Debug("clearing selection", "status", st.Status, "generation", st.Generation)
			clear(s.selected)
		}
		s.generation = st.Generation
	}
	return st
}

// Toggle flips membership of filename. It is a no-op, returning ok=false,
// unless the session is Completed and filename is one of its items.
func (s *Selection) Toggle(filename string) (selected, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.syncLocked()
	if _, found := st.Item(filename); !found {
		return false, false
	}
	if _, in := s.selected[filename]; in {
		delete(s.selected, filename)
		return false, true
	}
	s.selected[filename] = struct{}{}
	return true, true
}

// SelectAll selects every item of the completed result and returns the count.
func (s *Selection) SelectAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.syncLocked()
	if st.Status != session.StatusCompleted {
		return 0
	}
	for _, it := range st.Items {
		s.selected[it.Filename] = struct{}{}
	}
	return len(s.selected)
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.syncLocked()
	clear(s.selected)
}

// Selected returns the selected filenames in rank order.
func (s *Selection) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.syncLocked()
	out := make([]string, 0, len(s.selected))
	for _, it := range st.Ranked() {
		if _, in := s.selected[it.Filename]; in {
			out = append(out, it.Filename)
		}
	}
	return out
}

// IsSelected reports whether filename is selected.
func (s *Selection) IsSelected(filename string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.syncLocked()
	_, in := s.selected[filename]
	return in
}

// Len returns the number of selected items.
func (s *Selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.syncLocked()
	return len(s.selected)
}

// Export hands the full records for filenames to the exporter and returns its
// result. Only one export runs at a time; a concurrent call fails with
// ErrExportInProgress and leaves the running one alone.
func (s *Selection) Export(ctx context.Context, filenames []string) (export.Result, error) {
	if len(filenames) == 0 {
		return export.Result{}, stream.ValidationError{Field: "filenames", Message: "no images provided"}
	}

	if !s.inflight.TryAcquire(1) {
		return export.Result{}, ErrExportInProgress
	}
	defer s.inflight.Release(1)

	items, err := s.resolve(filenames)
	if err != nil {
		return export.Result{}, err
	}

	res, err := s.exporter.ExportImages(ctx, items)
	if err != nil {
		return export.Result{Success: false, Error: err.Error()}, fmt.Errorf("failed to export images: %w", err)
	}
	if !res.Success {
		s.log.Warn("export failed", "error", res.Error)
	}
	return res, nil
}

// ExportSelected exports the current selection.
func (s *Selection) ExportSelected(ctx context.Context) (export.Result, error) {
	return s.Export(ctx, s.Selected())
}

// resolve maps filenames to the current completed items, dropping repeats.
func (s *Selection) resolve(filenames []string) ([]stream.RankedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.syncLocked()
	if st.Status != session.StatusCompleted {
		return nil, stream.ValidationError{Field: "filenames", Message: "no completed results to export"}
	}

	seen := make(map[string]struct{}, len(filenames))
	items := make([]stream.RankedItem, 0, len(filenames))
	for _, name := range filenames {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		it, ok := st.Item(name)
		if !ok {
			return nil, stream.ValidationError{Field: "filenames", Message: fmt.Sprintf("%q is not in the current results", name)}
		}
		items = append(items, it)
	}
	return items, nil
}
