// Standalone stand-in for the analysis backend, for trying ranker without the
// real service.
// Run with: go run ./cmd/debug-backend [-addr 127.0.0.1:8000] [-delay 300ms]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thruflo/ranker/internal/devbackend"
	"github.com/thruflo/ranker/internal/logging"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8000", "listen address")
	delay := flag.Duration("delay", 300*time.Millisecond, "pause between scored batches")
	topN := flag.Int("top", devbackend.DefaultTopN, "number of images returned")
	flag.Parse()

	logging.SetLevel(logging.LevelInfo)
	log := logging.With("component", "debug-backend")

	srv := &http.Server{
		Addr:    *addr,
		Handler: devbackend.New(devbackend.Options{Delay: *delay, TopN: *topN}, log),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		cancel()
	}()

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "Failed to serve: %v\n", err)
			os.Exit(1)
		}
	}()

	fmt.Printf("Debug backend running on http://%s\n", *addr)
	fmt.Println("\nTry with:")
	fmt.Printf("  ranker analyze ~/Pictures --backend-url http://%s\n", *addr)

	<-ctx.Done()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
