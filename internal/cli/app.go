package cli

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/thruflo/ranker/internal/config"
	"github.com/thruflo/ranker/internal/export"
	"github.com/thruflo/ranker/internal/logging"
	"github.com/thruflo/ranker/internal/selection"
	"github.com/thruflo/ranker/internal/session"
	"github.com/thruflo/ranker/internal/stream"
	"github.com/thruflo/ranker/internal/tui"
)

// app wires one session, its selection, and the terminal it renders to.
type app struct {
	cfg      *config.Config
	client   *stream.Client
	orch     *session.Orchestrator
	sel      *selection.Selection
	term     *tui.Terminal
	renderer *tui.Renderer
}

func newApp(cfg *config.Config, exportDir string, out io.Writer) *app {
	if exportDir == "" {
		exportDir = cfg.Export.Dir
	}
	client := newClient(cfg)
	orch := session.New(session.ClientOpener(client), session.WithLogger(logging.With("component", "session")))
	term := tui.NewTerminal(out)

	return &app{
		cfg:      cfg,
		client:   client,
		orch:     orch,
		sel:      selection.New(orch, export.NewDirExporter(exportDir)),
		term:     term,
		renderer: &tui.Renderer{Width: term.Width(), Color: term.IsTTY()},
	}
}

func (a *app) Close() {
	a.orch.Close()
}

// follow starts req and renders its transitions until it settles. It returns
// the terminal state and the notice published for it.
func (a *app) follow(ctx context.Context, req stream.AnalysisRequest) (session.State, session.Notice, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	states := a.orch.Subscribe(ctx)
	notices := a.orch.Notices(ctx)

	gen, err := a.orch.Start(ctx, req)
	if err != nil {
		return session.State{}, session.Notice{}, err
	}

	var (
		final  session.State
		notice session.Notice
	)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer a.term.EndLive()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case ev, ok := <-states:
				if !ok {
					return session.ErrClosed
				}
				st := ev.Payload
				if st.Generation > gen {
					return stream.ErrSuperseded
				}
				if st.Generation != gen {
					continue
				}
				if st.Status.Terminal() {
					final = st
					return nil
				}
				a.term.Live(a.renderer.StateLine(st))
			}
		}
	})

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case ev, ok := <-notices:
				if !ok {
					return session.ErrClosed
				}
				if ev.Payload.Generation == gen {
					notice = ev.Payload
					return nil
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		return session.State{}, session.Notice{}, err
	}
	return final, notice, nil
}

// printResults writes the ranked list with selection marks.
func (a *app) printResults(st session.State) {
	if st.Status != session.StatusCompleted {
		a.term.WriteLine("No results.")
		return
	}
	for _, line := range a.renderer.Results(st.Items, a.sel.IsSelected) {
		a.term.WriteLine(line)
	}
}

// printPreviews renders each ranked image width columns wide.
func (a *app) printPreviews(st session.State, width int) {
	for i, it := range st.Ranked() {
		a.term.Writef("%d. %s\n", i+1, it.Filename)
		preview, err := tui.Preview(width, it.ImagePayload)
		if err != nil {
			a.term.Writef("   (no preview: %v)\n", err)
			continue
		}
		a.term.Writef("%s", preview)
	}
}

// exportSelected exports the current selection and reports the result.
func (a *app) exportSelected(ctx context.Context, names []string, copyPath bool) error {
	var (
		res export.Result
		err error
	)
	if len(names) > 0 {
		res, err = a.sel.Export(ctx, names)
	} else {
		res, err = a.sel.ExportSelected(ctx)
	}
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("export failed: %s", res.Error)
	}

	a.term.WriteLine("Exported to " + res.DestinationPath)
	if copyPath {
		if err := copyToClipboard(res.DestinationPath); err != nil {
			logging.Warn("failed to copy export path", "error", err)
		} else {
			a.term.WriteLine("Copied path to clipboard.")
		}
	}
	return nil
}
