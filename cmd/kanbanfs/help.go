// ABOUTME: Help display for the kanbanfs CLI with commands, flags, environment and examples.
// ABOUTME: printHelp is shared by -h, the help command and unknown-command errors.
package main

import (
	"fmt"
	"io"
)

func printHelp(w io.Writer, ver string) {
	fmt.Fprintf(w, "kanbanfs %s - kanban boards stored as markdown files\n", ver)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  kanbanfs [global flags] <command> [flags] [args]")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve [-bind addr]                      Serve the JSON API")
	fmt.Fprintln(w, "  list [-status a,b] [-sort s] [-all]     List cards grouped by column")
	fmt.Fprintln(w, "  show <id>                               Show one card")
	fmt.Fprintln(w, "  add [-status s] [-priority p] <title>   Create a card")
	fmt.Fprintln(w, "  move [-position n] <id> <status>        Move a card")
	fmt.Fprintln(w, "  reconcile                               Heal folder layout, orders and ID counters")
	fmt.Fprintln(w, "  dead-letters [-limit n] [-purge]        Inspect failed webhook deliveries")
	fmt.Fprintln(w, "  events [-journal path] [-limit n]       Replay the event journal")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Global Flags:")
	fmt.Fprintln(w, "  -dir <path>      Workspace root (default: $KANBANFS_DIR or current directory)")
	fmt.Fprintln(w, "  -board <id>      Board id (default: the workspace's default board)")
	fmt.Fprintln(w, "  -version         Print version and exit")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  KANBANFS_DIR, KANBANFS_BIND, KANBANFS_ALLOW_REMOTE, KANBANFS_AUTH_TOKEN,")
	fmt.Fprintln(w, "  KANBANFS_WEBHOOK_TIMEOUT, KANBANFS_DEADLETTER_DB, KANBANFS_JOURNAL")
	fmt.Fprintln(w, "  A .env file in the current directory is loaded without overriding the environment.")
	fmt.Fprintln(w, "  add and move deliver webhooks and append to the journal, like serve.")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  kanbanfs add -status todo \"Fix login redirect\"")
	fmt.Fprintln(w, "  kanbanfs move 12 done")
	fmt.Fprintln(w, "  kanbanfs -board ops list -status todo,in-progress")
}
