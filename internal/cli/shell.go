package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/thruflo/ranker/internal/folder"
	"github.com/thruflo/ranker/internal/stream"
	"github.com/thruflo/ranker/internal/tui"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive session for analyzing, selecting, and exporting",
	Long: `Starts a line-oriented session. Choose a folder, run analyses, and
select and export images. Starting a new analysis while one is running
replaces it; results of the old one are discarded.

Type "help" for the list of commands.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

const shellHelp = `Commands:
  folder [path]        choose the folder to analyze (asks when no path is given);
                       a different folder clears results and selection
  analyze [prompt]     analyze the folder, ranking against prompt when given
  mode [batch|single]  show or set the processing mode
  status               show the session state
  wait                 block until the current analysis settles
  results              list ranked images with selection marks
  toggle <name>...     toggle selection of images
  all                  select every ranked image
  clear                clear the selection
  selected             list selected images in rank order
  export [name]...     export the named images, or the selection
  preview [width]      render previews of the ranked images
  reset                abandon the current analysis and return to idle
  help                 show this help
  quit                 leave the shell`

// syncWriter serializes writes from the command loop and the notice printer.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

type shell struct {
	a           *app
	in          *bufio.Reader
	out         io.Writer
	interactive bool

	folder string
	mode   stream.Mode
}

func runShell(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := &syncWriter{w: cmd.OutOrStdout()}
	a := newApp(cfg, "", out)
	defer a.Close()

	in := cmd.InOrStdin()
	f, isFile := in.(*os.File)

	s := &shell{
		a:           a,
		in:          bufio.NewReader(in),
		out:         out,
		interactive: isFile && tui.IsTerminal(f),
		mode:        cfg.Mode(),
	}
	return s.run(ctx)
}

func (s *shell) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	notices := s.a.orch.Notices(ctx)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return s.loop(gctx)
	})

	g.Go(func() error {
		notifier := tui.NewNotifier(s.out)
		for {
			select {
			case <-gctx.Done():
				return nil
			case ev, ok := <-notices:
				if !ok {
					return nil
				}
				if s.interactive {
					notifier.Bell()
				}
				fmt.Fprintln(s.out, ev.Payload.Message())
			}
		}
	})

	return g.Wait()
}

func (s *shell) loop(ctx context.Context) error {
	if s.interactive {
		fmt.Fprintln(s.out, `ranker shell. Type "help" for commands.`)
	}
	for {
		if s.interactive {
			fmt.Fprint(s.out, "ranker> ")
		}
		line, err := s.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read command: %w", err)
		}
		eof := err != nil

		if quit := s.exec(ctx, line); quit {
			return nil
		}
		if eof || ctx.Err() != nil {
			return nil
		}
	}
}

// exec runs one command line and reports whether the shell should exit.
// Command errors are printed, never returned.
func (s *shell) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	var err error
	switch name {
	case "quit", "exit":
		return true
	case "help", "?":
		fmt.Fprintln(s.out, shellHelp)
	case "folder":
		err = s.cmdFolder(ctx, args)
	case "analyze":
		err = s.cmdAnalyze(ctx, strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0])))
	case "mode":
		err = s.cmdMode(args)
	case "status":
		fmt.Fprintln(s.out, s.a.renderer.StateLine(s.a.orch.State()))
	case "wait":
		err = s.cmdWait(ctx)
	case "results":
		s.a.printResults(s.a.orch.State())
	case "toggle":
		err = s.cmdToggle(args)
	case "all":
		fmt.Fprintf(s.out, "Selected %d images.\n", s.a.sel.SelectAll())
	case "clear":
		s.a.sel.Clear()
		fmt.Fprintln(s.out, "Selection cleared.")
	case "selected":
		s.cmdSelected()
	case "export":
		err = s.a.exportSelected(ctx, args, false)
	case "preview":
		err = s.cmdPreview(args)
	case "reset":
		s.a.orch.Reset()
		fmt.Fprintln(s.out, "Session reset.")
	default:
		err = fmt.Errorf("unknown command %q (try \"help\")", name)
	}

	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
	}
	return false
}

func (s *shell) cmdFolder(ctx context.Context, args []string) error {
	var picker folder.Picker
	if len(args) > 0 {
		picker = folder.ArgPicker{Path: strings.Join(args, " ")}
	} else {
		picker = folder.NewPromptPicker(s.in, s.out)
	}

	res, err := picker.PickFolder(ctx)
	if err != nil {
		return err
	}
	if res.Cancelled {
		fmt.Fprintln(s.out, "Folder unchanged.")
		return nil
	}
	if res.Path != s.folder {
		// Results and selections belong to the previous folder.
		s.a.orch.Reset()
	}
	s.folder = res.Path
	fmt.Fprintf(s.out, "Folder: %s\n", s.folder)
	return nil
}

func (s *shell) cmdAnalyze(ctx context.Context, prompt string) error {
	if s.folder == "" {
		return errors.New("no folder chosen (use \"folder <path>\")")
	}

	req := stream.NewAnalysisRequest(s.folder, s.mode)
	if prompt != "" {
		req = stream.NewPromptRequest(s.folder, s.mode, prompt)
	}

	gen, err := s.a.orch.Start(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Analysis %d started for %s.\n", gen, s.folder)
	return nil
}

func (s *shell) cmdMode(args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(s.out, "Mode: %s\n", s.mode)
		return nil
	}
	mode, err := stream.ParseMode(args[0])
	if err != nil {
		return err
	}
	s.mode = mode
	fmt.Fprintf(s.out, "Mode: %s\n", s.mode)
	return nil
}

func (s *shell) cmdWait(ctx context.Context) error {
	st := s.a.orch.State()
	if st.Status.Active() {
		var err error
		st, err = s.a.orch.Await(ctx, st.Generation)
		if err != nil {
			return err
		}
	}
	fmt.Fprintln(s.out, s.a.renderer.StateLine(st))
	return nil
}

func (s *shell) cmdToggle(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: toggle <name>...")
	}
	for _, name := range args {
		selected, ok := s.a.sel.Toggle(name)
		switch {
		case !ok:
			fmt.Fprintf(s.out, "No ranked image named %q.\n", name)
		case selected:
			fmt.Fprintf(s.out, "Selected %s.\n", name)
		default:
			fmt.Fprintf(s.out, "Deselected %s.\n", name)
		}
	}
	return nil
}

func (s *shell) cmdSelected() {
	names := s.a.sel.Selected()
	if len(names) == 0 {
		fmt.Fprintln(s.out, "Nothing selected.")
		return
	}
	for _, name := range names {
		fmt.Fprintln(s.out, name)
	}
}

func (s *shell) cmdPreview(args []string) error {
	width := 32
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid width %q", args[0])
		}
		width = n
	}
	st := s.a.orch.State()
	if len(st.Items) == 0 {
		fmt.Fprintln(s.out, "No results.")
		return nil
	}
	s.a.printPreviews(st, width)
	return nil
}
