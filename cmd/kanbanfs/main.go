// ABOUTME: CLI entrypoint for kanbanfs: serve the JSON API or inspect and edit boards from the shell.
// ABOUTME: Wires the workspace, repository, webhook dispatcher, dead-letter store and event journal.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/2389-research/kanbanfs/board/server"
	"github.com/2389-research/kanbanfs/board/store"
)

var version = "dev"

// globals holds flags shared by every command.
type globals struct {
	dir         string
	board       string
	showVersion bool
}

func main() {
	_ = server.LoadDotEnv(".env")
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run parses global flags and dispatches to a command. It returns the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	var g globals
	fs := flag.NewFlagSet("kanbanfs", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&g.dir, "dir", "", "Workspace root (default: $KANBANFS_DIR or current directory)")
	fs.StringVar(&g.board, "board", "", "Board id (default: the workspace's default board)")
	fs.BoolVar(&g.showVersion, "version", false, "Print version and exit")
	fs.Usage = func() { printHelp(stderr, version) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if g.showVersion {
		fmt.Fprintf(stdout, "kanbanfs %s\n", version)
		return 0
	}
	if fs.NArg() == 0 {
		printHelp(stderr, version)
		return 0
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "serve":
		return runServe(g, rest, stderr)
	case "list":
		return runList(g, rest, stdout, stderr)
	case "show":
		return runShow(g, rest, stdout, stderr)
	case "add":
		return runAdd(g, rest, stdout, stderr)
	case "move":
		return runMove(g, rest, stdout, stderr)
	case "reconcile":
		return runReconcile(g, rest, stdout, stderr)
	case "dead-letters":
		return runDeadLetters(rest, stdout, stderr)
	case "events":
		return runEvents(rest, stdout, stderr)
	case "help":
		printHelp(stdout, version)
		return 0
	}
	fmt.Fprintf(stderr, "error: unknown command %q\n", cmd)
	printHelp(stderr, version)
	return 2
}

// workspaceDir resolves the workspace root from the flag, env, or cwd.
func workspaceDir(g globals) (string, error) {
	if g.dir != "" {
		return g.dir, nil
	}
	if v := os.Getenv("KANBANFS_DIR"); v != "" {
		return v, nil
	}
	return os.Getwd()
}

// openRepository opens the workspace for commands that don't deliver webhooks.
func openRepository(g globals) (*store.Repository, error) {
	dir, err := workspaceDir(g)
	if err != nil {
		return nil, err
	}
	ws, err := store.OpenWorkspace(dir)
	if err != nil {
		return nil, err
	}
	return store.New(ws, nil), nil
}
