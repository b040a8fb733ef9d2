// ABOUTME: The serve command: runs the JSON API with webhook delivery, dead letters and the event journal.
// ABOUTME: Shuts down on SIGINT/SIGTERM and waits for in-flight webhook deliveries before exiting.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/2389-research/kanbanfs/board/server"
	"github.com/2389-research/kanbanfs/board/store"
)

func runServe(g globals, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	bind := fs.String("bind", "", "Listen address (default: $KANBANFS_BIND or "+server.DefaultBind+")")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := server.ConfigFromEnv()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	if g.dir != "" {
		cfg.Dir = g.dir
	}
	if *bind != "" {
		cfg.Bind = *bind
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
	}

	ws, err := store.OpenWorkspace(cfg.Dir)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	events, err := openPipeline(ws, cfg, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	defer events.Close()

	repo := store.New(ws, events.Emitter())
	srv := server.New(repo, cfg.AuthToken)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:              cfg.Bind,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		fmt.Fprintln(stderr, "\nInterrupted, shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(stderr, "kanbanfs %s serving %s on http://%s\n", version, ws.Root(), cfg.Bind)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
