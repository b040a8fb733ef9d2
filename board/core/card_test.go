// ABOUTME: Tests for card helpers: comment id allocation, snapshots, label handling and model defaults.
package core_test

import (
	"testing"
	"time"

	"github.com/2389-research/kanbanfs/board/core"
)

func TestNextCommentID(t *testing.T) {
	c := &core.Card{}
	if got := c.NextCommentID(); got != "c1" {
		t.Errorf("empty card: NextCommentID = %q, want c1", got)
	}
	c.Comments = []core.Comment{{ID: "c1"}, {ID: "c3"}}
	if got := c.NextCommentID(); got != "c4" {
		t.Errorf("NextCommentID = %q, want c4", got)
	}
	c.Comments = []core.Comment{{ID: "legacy"}, {ID: "c2"}}
	if got := c.NextCommentID(); got != "c3" {
		t.Errorf("with legacy id: NextCommentID = %q, want c3", got)
	}
}

func TestCommentIndex(t *testing.T) {
	c := &core.Card{Comments: []core.Comment{{ID: "c1"}, {ID: "c2"}}}
	if i := c.CommentIndex("c2"); i != 1 {
		t.Errorf("CommentIndex(c2) = %d", i)
	}
	if i := c.CommentIndex("c9"); i != -1 {
		t.Errorf("CommentIndex(c9) = %d", i)
	}
}

func TestSnapshotIsDeep(t *testing.T) {
	c := &core.Card{
		ID:       "1",
		Labels:   []string{"a"},
		Comments: []core.Comment{{ID: "c1", Content: "x"}},
		Metadata: map[string]any{"team": map[string]any{"name": "core"}},
		FilePath: "/secret/path.md",
	}
	s := c.Snapshot()
	if s.FilePath != "" {
		t.Errorf("snapshot FilePath = %q, want empty", s.FilePath)
	}
	s.Labels[0] = "changed"
	s.Comments[0].Content = "changed"
	s.Metadata["team"].(map[string]any)["name"] = "changed"
	if c.Labels[0] != "a" || c.Comments[0].Content != "x" {
		t.Error("snapshot shares slices with the card")
	}
	if c.Metadata["team"].(map[string]any)["name"] != "core" {
		t.Error("snapshot shares nested metadata with the card")
	}
}

func TestNumericID(t *testing.T) {
	if n, ok := (&core.Card{ID: "42"}).NumericID(); !ok || n != 42 {
		t.Errorf("NumericID(42) = %d, %v", n, ok)
	}
	if _, ok := (&core.Card{ID: "old-card"}).NumericID(); ok {
		t.Error("legacy id should not be numeric")
	}
}

func TestDedupeLabels(t *testing.T) {
	got := core.DedupeLabels([]string{"bug", " ui ", "bug", "", "ui"})
	if len(got) != 2 || got[0] != "bug" || got[1] != "ui" {
		t.Errorf("DedupeLabels = %v", got)
	}
}

func TestTimestampFormat(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 6_000_000, time.FixedZone("x", 3600))
	if got := core.Timestamp(ts); got != "2025-01-02T02:04:05.006Z" {
		t.Errorf("Timestamp = %q", got)
	}
}

func TestBoardFinal(t *testing.T) {
	b := core.DefaultConfig().Boards["default"]
	if got := b.Final(); got != "done" {
		t.Errorf("Final = %q, want done", got)
	}
	b.FinalStatus = "gone"
	if got := b.Final(); got != "done" {
		t.Errorf("stale final status: Final = %q, want last column", got)
	}
	b.FinalStatus = "review"
	if got := b.Final(); got != "review" {
		t.Errorf("Final = %q, want review", got)
	}
	empty := &core.BoardConfig{}
	if got := empty.Final(); got != "" {
		t.Errorf("no columns: Final = %q", got)
	}
}

func TestWebhookSubscribes(t *testing.T) {
	all := core.Webhook{Events: []string{"*"}}
	if !all.Subscribes(core.EventTaskMoved) {
		t.Error("wildcard should match every event")
	}
	one := core.Webhook{Events: []string{core.EventTaskDeleted}}
	if one.Subscribes(core.EventTaskCreated) || !one.Subscribes(core.EventTaskDeleted) {
		t.Error("single subscription matched the wrong events")
	}
}

func TestKnownEvent(t *testing.T) {
	for _, name := range append([]string{"*"}, core.EventNames...) {
		if !core.KnownEvent(name) {
			t.Errorf("KnownEvent(%q) = false", name)
		}
	}
	if core.KnownEvent("task.exploded") {
		t.Error("unknown event accepted")
	}
}

func TestNewEvent(t *testing.T) {
	a := core.NewEvent(core.EventTaskCreated, "default", nil)
	b := core.NewEvent(core.EventTaskCreated, "default", nil)
	if a.ID == b.ID {
		t.Error("events share an id")
	}
	if a.Type != core.EventTaskCreated || a.BoardID != "default" {
		t.Errorf("event = %+v", a)
	}
}
