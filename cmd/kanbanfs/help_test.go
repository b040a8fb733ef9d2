// ABOUTME: Tests for the kanbanfs CLI help display.
package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrintHelpContainsNameAndVersion(t *testing.T) {
	var buf bytes.Buffer
	printHelp(&buf, "1.2.3")
	out := buf.String()
	if !strings.Contains(out, "kanbanfs") || !strings.Contains(out, "1.2.3") {
		t.Errorf("help missing name or version:\n%s", out)
	}
	if !strings.Contains(out, "Usage:") {
		t.Error("help missing usage section")
	}
}

func TestPrintHelpListsCommands(t *testing.T) {
	var buf bytes.Buffer
	printHelp(&buf, "dev")
	out := buf.String()
	for _, cmd := range []string{"serve", "list", "show", "add", "move", "reconcile", "dead-letters", "events"} {
		if !strings.Contains(out, "  "+cmd) {
			t.Errorf("help missing command %q", cmd)
		}
	}
	for _, flag := range []string{"-dir", "-board", "-version"} {
		if !strings.Contains(out, flag) {
			t.Errorf("help missing flag %q", flag)
		}
	}
	if !strings.Contains(out, "KANBANFS_AUTH_TOKEN") {
		t.Error("help missing environment variables")
	}
}
