// ABOUTME: Tests for column operations through the repository, including occupancy checks.
package store_test

import (
	"errors"
	"testing"

	"github.com/2389-research/kanbanfs/board/core"
	"github.com/2389-research/kanbanfs/board/registry"
	"github.com/2389-research/kanbanfs/board/store"
)

func TestRemoveColumnRequiresEmpty(t *testing.T) {
	repo, rec := newRepo(t)
	c := mustCreate(t, repo, "", store.CardInput{Content: "# Blocker", Status: "review"})

	if _, err := repo.RemoveColumn("", "review"); !errors.Is(err, core.ErrColumnNotEmpty) {
		t.Fatalf("occupied column: err = %v", err)
	}
	if _, err := repo.MoveCard("", c.ID, "todo", -1); err != nil {
		t.Fatal(err)
	}
	rec.reset()
	b, err := repo.RemoveColumn("", "review")
	if err != nil {
		t.Fatalf("RemoveColumn: %v", err)
	}
	if b.HasColumn("review") {
		t.Error("column still defined")
	}
	if exists(statusDir(t, repo, "default", "review")) {
		t.Error("empty status folder left behind")
	}
	if got := rec.types(); len(got) != 1 || got[0] != core.EventColumnDeleted {
		t.Errorf("events = %v", got)
	}

	if _, err := repo.RemoveColumn("", "backlog"); !errors.Is(err, core.ErrDefaultColumn) {
		t.Errorf("default column: err = %v", err)
	}
	if _, err := repo.RemoveColumn("", core.DeletedStatus); !errors.Is(err, core.ErrReservedColumn) {
		t.Errorf("deleted column: err = %v", err)
	}
}

func TestColumnEvents(t *testing.T) {
	repo, rec := newRepo(t)
	if _, err := repo.AddColumn("", core.Column{ID: "qa", Name: "QA"}); err != nil {
		t.Fatal(err)
	}
	color := "#111"
	if _, err := repo.UpdateColumn("", "qa", registry.ColumnUpdate{Color: &color}); err != nil {
		t.Fatal(err)
	}
	order := []string{"qa", "backlog", "todo", "in-progress", "review", "done"}
	b, err := repo.ReorderColumns("", order)
	if err != nil {
		t.Fatal(err)
	}
	if b.Columns[0].ID != "qa" || b.Columns[0].Color != "#111" {
		t.Errorf("first column = %+v", b.Columns[0])
	}

	want := []string{core.EventColumnCreated, core.EventColumnUpdated, core.EventColumnUpdated}
	got := rec.types()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, got[i], want[i])
		}
	}
	reorder := rec.events[2].Data.(core.ColumnEventData)
	if reorder.Column != nil || len(reorder.Columns) != 6 {
		t.Errorf("reorder event data = %+v", reorder)
	}
}
