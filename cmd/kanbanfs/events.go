// ABOUTME: Event wiring shared by serve and the mutating commands: webhook dispatcher, dead letters and journal.
// ABOUTME: Also the events command, which replays the JSONL journal.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/2389-research/kanbanfs/board/journal"
	"github.com/2389-research/kanbanfs/board/server"
	"github.com/2389-research/kanbanfs/board/store"
	"github.com/2389-research/kanbanfs/board/webhook"
)

// pipeline routes repository events to webhooks and the optional journal.
type pipeline struct {
	dispatcher  *webhook.Dispatcher
	deadLetters *webhook.DeadLetters
	journal     *journal.Journal
}

// openPipeline builds the emitters for ws from cfg. A journal with a torn
// tail is repaired before it is appended to.
func openPipeline(ws *store.Workspace, cfg *server.Config, stderr io.Writer) (*pipeline, error) {
	dlPath, err := deadLetterPath(cfg.DeadLetterDB)
	if err != nil {
		return nil, err
	}
	deadLetters, err := webhook.OpenDeadLetters(dlPath)
	if err != nil {
		return nil, err
	}
	p := &pipeline{
		deadLetters: deadLetters,
		dispatcher: webhook.NewDispatcher(ws.Registry(),
			webhook.WithTimeout(cfg.WebhookTimeout),
			webhook.WithFailureSink(deadLetters),
		),
	}

	if cfg.Journal != "" {
		if _, err := os.Stat(cfg.Journal); err == nil {
			if _, err := journal.Repair(cfg.Journal); err != nil {
				fmt.Fprintf(stderr, "warning: repair journal: %v\n", err)
			}
		}
		j, err := journal.Open(cfg.Journal)
		if err != nil {
			_ = deadLetters.Close()
			return nil, err
		}
		p.journal = j
	}
	return p, nil
}

// Emitter returns the fan-out emitter to hand to the repository.
func (p *pipeline) Emitter() store.Emitter {
	emitters := []store.Emitter{p.dispatcher}
	if p.journal != nil {
		emitters = append(emitters, p.journal)
	}
	return store.Emitters(emitters...)
}

// Close waits for in-flight deliveries, then closes the journal and the
// dead-letter store.
func (p *pipeline) Close() {
	p.dispatcher.Wait()
	if p.journal != nil {
		_ = p.journal.Close()
	}
	_ = p.deadLetters.Close()
}

// openEmittingRepository opens the workspace for commands that mutate cards.
// Callers must Close the returned pipeline before exiting.
func openEmittingRepository(g globals, stderr io.Writer) (*store.Repository, *pipeline, error) {
	cfg, err := server.LoadEnv()
	if err != nil {
		return nil, nil, err
	}
	dir, err := workspaceDir(g)
	if err != nil {
		return nil, nil, err
	}
	ws, err := store.OpenWorkspace(dir)
	if err != nil {
		return nil, nil, err
	}
	p, err := openPipeline(ws, cfg, stderr)
	if err != nil {
		return nil, nil, err
	}
	return store.New(ws, p.Emitter()), p, nil
}

func runEvents(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("journal", "", "Event journal (default: $KANBANFS_JOURNAL)")
	limit := fs.Int("limit", 20, "Show only the most recent n events (0 for all)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *path == "" {
		*path = os.Getenv("KANBANFS_JOURNAL")
	}
	if *path == "" {
		fmt.Fprintln(stderr, "error: no journal configured (set -journal or KANBANFS_JOURNAL)")
		return 2
	}

	events, err := journal.Replay(*path)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	if *limit > 0 && len(events) > *limit {
		events = events[len(events)-*limit:]
	}
	fmt.Fprint(stdout, renderEvents(events))
	return 0
}
