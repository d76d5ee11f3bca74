package cli

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/thruflo/ranker/internal/folder"
	"github.com/thruflo/ranker/internal/logging"
	"github.com/thruflo/ranker/internal/session"
	"github.com/thruflo/ranker/internal/stream"
	"github.com/thruflo/ranker/internal/tui"
)

var (
	analyzePrompt    string
	analyzeMode      string
	analyzeSelectAll bool
	analyzeSelect    []string
	analyzeExport    bool
	analyzeExportDir string
	analyzeCopyPath  bool
	analyzePreview   int
	analyzeWaitReady bool
	analyzeNotify    bool
)

// copyToClipboard can be overridden in tests.
var copyToClipboard = clipboard.WriteAll

var analyzeCmd = &cobra.Command{
	Use:   "analyze [folder]",
	Short: "Analyze a folder of images and show the ranking",
	Long: `Submits the folder to the analysis backend and follows the streamed
progress until the ranking arrives. Without a folder argument, asks for one.

With --prompt the images are ranked against a text prompt instead of the
backend's unconditional score.

Example:
  ranker analyze ~/Pictures/holiday
  ranker analyze ~/Pictures/holiday --prompt "sunsets over water" --mode single
  ranker analyze ~/Pictures/holiday --select-all --export --copy-path`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzePrompt, "prompt", "p", "", "rank against a text prompt")
	analyzeCmd.Flags().StringVarP(&analyzeMode, "mode", "m", "", "processing mode: batch or single (default from config)")
	analyzeCmd.Flags().BoolVar(&analyzeSelectAll, "select-all", false, "select every ranked image")
	analyzeCmd.Flags().StringSliceVar(&analyzeSelect, "select", nil, "select ranked images by filename")
	analyzeCmd.Flags().BoolVar(&analyzeExport, "export", false, "export the selected images")
	analyzeCmd.Flags().StringVar(&analyzeExportDir, "export-dir", "", "export base directory (default from config)")
	analyzeCmd.Flags().BoolVar(&analyzeCopyPath, "copy-path", false, "copy the export folder path to the clipboard")
	analyzeCmd.Flags().IntVar(&analyzePreview, "preview", 0, "render previews this many columns wide")
	analyzeCmd.Flags().BoolVar(&analyzeWaitReady, "wait-ready", false, "wait for the backend before submitting")
	analyzeCmd.Flags().BoolVar(&analyzeNotify, "notify", false, "ring the bell or send an OS notification when done")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var picker folder.Picker
	if len(args) == 1 {
		picker = folder.ArgPicker{Path: args[0]}
	} else {
		picker = folder.NewPromptPicker(cmd.InOrStdin(), out)
	}
	picked, err := picker.PickFolder(ctx)
	if err != nil {
		return err
	}
	if picked.Cancelled {
		fmt.Fprintln(out, "No folder selected.")
		return nil
	}

	mode := cfg.Mode()
	if analyzeMode != "" {
		if mode, err = stream.ParseMode(analyzeMode); err != nil {
			return err
		}
	}

	req := stream.NewAnalysisRequest(picked.Path, mode)
	if cmd.Flags().Changed("prompt") {
		req = stream.NewPromptRequest(picked.Path, mode, analyzePrompt)
	}
	if err := req.Validate(); err != nil {
		return err
	}

	a := newApp(cfg, analyzeExportDir, out)
	defer a.Close()

	if analyzeWaitReady {
		if _, err := a.client.WaitReady(ctx, cfg.Backend.ReadyTimeout); err != nil {
			return err
		}
	}

	final, notice, err := a.follow(ctx, req)
	if err != nil {
		return err
	}

	a.term.WriteLine(notice.Message())
	if analyzeNotify {
		if err := tui.NewNotifier(out).NotifyNotice(notice, a.term.IsTTY()); err != nil {
			logging.Warn("failed to send notification", "error", err)
		}
	}

	if final.Status == session.StatusFailed {
		return fmt.Errorf("analysis failed: %w", final.Err)
	}

	if analyzeSelectAll {
		a.sel.SelectAll()
	}
	for _, name := range analyzeSelect {
		if a.sel.IsSelected(name) {
			continue
		}
		if _, ok := a.sel.Toggle(name); !ok {
			return fmt.Errorf("no ranked image named %q", name)
		}
	}

	a.printResults(final)
	if analyzePreview > 0 {
		a.printPreviews(final, analyzePreview)
	}

	if analyzeExport {
		return a.exportSelected(ctx, nil, analyzeCopyPath)
	}
	return nil
}
