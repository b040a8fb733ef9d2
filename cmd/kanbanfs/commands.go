// ABOUTME: Shell commands over a workspace: list, show, add, move, reconcile and dead-letters.
// ABOUTME: add and move emit events to webhooks and the journal like the server does.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/2389-research/kanbanfs/board/core"
	"github.com/2389-research/kanbanfs/board/store"
	"github.com/2389-research/kanbanfs/board/webhook"
)

func runList(g globals, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(stderr)
	status := fs.String("status", "", "Comma-separated statuses to include")
	sortBy := fs.String("sort", "", "Sort by created or modified (default: column order)")
	all := fs.Bool("all", false, "Include deleted cards")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	repo, err := openRepository(g)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	f := store.Filter{Sort: store.SortOrder(*sortBy), IncludeDeleted: *all}
	if *status != "" {
		f.Statuses = strings.Split(*status, ",")
	}
	cards, err := repo.ListCards(g.board, f)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	board, err := repo.Workspace().Registry().Board(g.board)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprint(stdout, renderBoard(board, cards))
	return 0
}

func runShow(g globals, args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "usage: kanbanfs show <id>")
		return 2
	}
	repo, err := openRepository(g)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	card, err := repo.GetCard(g.board, args[0])
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprint(stdout, renderCard(card))
	return 0
}

func runAdd(g globals, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(stderr)
	status := fs.String("status", "", "Column to create the card in (default: board default)")
	priority := fs.String("priority", "", "critical, high, medium or low (default: board default)")
	labels := fs.String("labels", "", "Comma-separated labels")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	title := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if title == "" {
		fmt.Fprintln(stderr, "usage: kanbanfs add [-status s] [-priority p] [-labels a,b] <title>")
		return 2
	}

	repo, events, err := openEmittingRepository(g, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	defer events.Close()
	in := store.CardInput{
		Content:  "# " + title,
		Status:   *status,
		Priority: core.Priority(*priority),
	}
	if *labels != "" {
		in.Labels = strings.Split(*labels, ",")
	}
	card, err := repo.CreateCard(g.board, in)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "created #%s in %s\n", card.ID, card.Status)
	return 0
}

func runMove(g globals, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("move", flag.ContinueOnError)
	fs.SetOutput(stderr)
	position := fs.Int("position", -1, "Zero-based position in the target column (default: end)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(stderr, "usage: kanbanfs move [-position n] <id> <status>")
		return 2
	}

	repo, events, err := openEmittingRepository(g, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	defer events.Close()
	card, err := repo.MoveCard(g.board, fs.Arg(0), fs.Arg(1), *position)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "moved #%s to %s\n", card.ID, card.Status)
	return 0
}

func runReconcile(g globals, args []string, stdout, stderr io.Writer) int {
	if len(args) != 0 {
		fmt.Fprintln(stderr, "usage: kanbanfs reconcile")
		return 2
	}
	dir, err := workspaceDir(g)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	ws, err := store.OpenWorkspace(dir)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	reg := ws.Registry()
	ids := []string{g.board}
	if g.board == "" {
		if ids, err = reg.BoardIDs(); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
	}
	rec := store.NewReconciler(ws)
	for _, id := range ids {
		cards, err := rec.Reconcile(id)
		if err != nil {
			fmt.Fprintf(stderr, "error: board %s: %v\n", id, err)
			return 1
		}
		fmt.Fprintf(stdout, "%s: %d cards\n", id, len(cards))
	}
	return 0
}

func runDeadLetters(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("dead-letters", flag.ContinueOnError)
	fs.SetOutput(stderr)
	db := fs.String("db", "", "Dead-letter database (default: $KANBANFS_DEADLETTER_DB or the data dir)")
	limit := fs.Int("limit", 20, "Maximum entries to show (0 for all)")
	purge := fs.Bool("purge", false, "Delete every stored failure")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	configured := *db
	if configured == "" {
		configured = os.Getenv("KANBANFS_DEADLETTER_DB")
	}
	path, err := deadLetterPath(configured)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	dl, err := webhook.OpenDeadLetters(path)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	defer func() { _ = dl.Close() }()

	if *purge {
		n, err := dl.Purge()
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "purged %d dead letters\n", n)
		return 0
	}
	failures, err := dl.List(*limit)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprint(stdout, renderFailures(failures))
	return 0
}
