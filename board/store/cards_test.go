// ABOUTME: Tests for card creation, updates, moves, deletion and the events each mutation emits.
package store_test

import (
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/2389-research/kanbanfs/board/core"
	"github.com/2389-research/kanbanfs/board/store"
)

func TestCreateCardAssignsIncreasingIDs(t *testing.T) {
	repo, _ := newRepo(t)
	var created []core.Card
	for _, title := range []string{"First", "Second", "Third"} {
		created = append(created, mustCreate(t, repo, "", store.CardInput{Content: "# " + title}))
	}
	wantIDs := []string{"1", "2", "3"}
	wantOrders := []string{"a0", "a1", "a2"}
	for i, c := range created {
		if c.ID != wantIDs[i] || c.Order != wantOrders[i] {
			t.Errorf("card %d: id=%q order=%q", i, c.ID, c.Order)
		}
		if c.Status != "backlog" || c.Priority != core.PriorityMedium {
			t.Errorf("card %d defaults: status=%q priority=%q", i, c.Status, c.Priority)
		}
	}
	want := filepath.Join(statusDir(t, repo, "default", "backlog"), "1-first.md")
	if !exists(want) {
		t.Errorf("expected card file at %s", want)
	}
	if created[0].CompletedAt != nil {
		t.Error("backlog card should not be completed")
	}
}

func TestCreateCardValidation(t *testing.T) {
	repo, _ := newRepo(t)
	if _, err := repo.CreateCard("", store.CardInput{Content: "x", Status: "nowhere"}); !errors.Is(err, core.ErrUnknownColumn) {
		t.Errorf("unknown status: err = %v", err)
	}
	if _, err := repo.CreateCard("", store.CardInput{Content: "x", Status: "deleted"}); !errors.Is(err, core.ErrUnknownColumn) {
		t.Errorf("deleted status: err = %v", err)
	}
	if _, err := repo.CreateCard("", store.CardInput{Content: "x", Priority: "urgent"}); !errors.Is(err, core.ErrInvalidPriority) {
		t.Errorf("bad priority: err = %v", err)
	}
	if _, err := repo.CreateCard("missing", store.CardInput{Content: "x"}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown board: err = %v", err)
	}
}

func TestExternalHigherIDAdvancesCounter(t *testing.T) {
	repo, _ := newRepo(t)
	mustCreate(t, repo, "", store.CardInput{Content: "# One"})
	path := filepath.Join(statusDir(t, repo, "default", "todo"), "10-external.md")
	writeFile(t, path, "---\nid: \"10\"\nstatus: \"todo\"\norder: \"a0\"\n---\n\n# External\n")

	c := mustCreate(t, repo, "", store.CardInput{Content: "# Next"})
	if c.ID != "11" {
		t.Errorf("id = %q, want 11", c.ID)
	}
}

func TestCreateInFinalColumnIsCompleted(t *testing.T) {
	repo, _ := newRepo(t)
	c := mustCreate(t, repo, "", store.CardInput{Content: "# Done already", Status: "done"})
	if c.CompletedAt == nil || *c.CompletedAt != c.Created {
		t.Errorf("completedAt = %v, created = %q", c.CompletedAt, c.Created)
	}
}

func TestMoveToFinalColumn(t *testing.T) {
	repo, _ := newRepo(t)
	d1 := mustCreate(t, repo, "", store.CardInput{Content: "# D1", Status: "done"})
	d2 := mustCreate(t, repo, "", store.CardInput{Content: "# D2", Status: "done"})
	c := mustCreate(t, repo, "", store.CardInput{Content: "# Work", Status: "todo"})

	moved, err := repo.MoveCard("", c.ID, "done", -1)
	if err != nil {
		t.Fatalf("MoveCard: %v", err)
	}
	if moved.Status != "done" || moved.CompletedAt == nil {
		t.Errorf("moved = status %q completedAt %v", moved.Status, moved.CompletedAt)
	}
	if moved.Order <= d1.Order || moved.Order <= d2.Order {
		t.Errorf("order %q should sort after %q and %q", moved.Order, d1.Order, d2.Order)
	}
	if filepath.Dir(moved.FilePath) != statusDir(t, repo, "default", "done") {
		t.Errorf("file at %s, want under done/", moved.FilePath)
	}
	if exists(c.FilePath) {
		t.Error("old file still present")
	}
	if !strings.Contains(readFile(t, moved.FilePath), "status: \"done\"") {
		t.Error("header not rewritten with the new status")
	}

	back, err := repo.MoveCard("", c.ID, "todo", 0)
	if err != nil {
		t.Fatalf("MoveCard back: %v", err)
	}
	if back.CompletedAt != nil {
		t.Error("leaving the final column should clear completedAt")
	}
}

func TestMoveCardPosition(t *testing.T) {
	repo, _ := newRepo(t)
	a := mustCreate(t, repo, "", store.CardInput{Content: "# A", Status: "todo"})
	b := mustCreate(t, repo, "", store.CardInput{Content: "# B", Status: "todo"})
	c := mustCreate(t, repo, "", store.CardInput{Content: "# C", Status: "todo"})

	if _, err := repo.MoveCard("", c.ID, "", 0); err != nil {
		t.Fatalf("MoveCard to top: %v", err)
	}
	if _, err := repo.MoveCard("", a.ID, "todo", 1); err != nil {
		t.Fatalf("MoveCard to middle: %v", err)
	}
	cards, err := repo.ListCards("", store.Filter{Statuses: []string{"todo"}})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{c.ID, a.ID, b.ID}
	if got := ids(cards); !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
	if _, err := repo.MoveCard("", a.ID, "nowhere", 0); !errors.Is(err, core.ErrUnknownColumn) {
		t.Errorf("unknown column: err = %v", err)
	}
}

func TestMoveCardRepairsDuplicateKeys(t *testing.T) {
	repo, _ := newRepo(t)
	dir := statusDir(t, repo, "default", "todo")
	writeFile(t, filepath.Join(dir, "1-a.md"), "---\nid: \"1\"\nstatus: \"todo\"\norder: \"a0\"\n---\n\n# A\n")
	writeFile(t, filepath.Join(dir, "2-b.md"), "---\nid: \"2\"\nstatus: \"todo\"\norder: \"a0\"\n---\n\n# B\n")
	c := mustCreate(t, repo, "", store.CardInput{Content: "# C", Status: "backlog"})

	moved, err := repo.MoveCard("", c.ID, "todo", 1)
	if err != nil {
		t.Fatalf("MoveCard: %v", err)
	}
	cards, _ := repo.ListCards("", store.Filter{Statuses: []string{"todo"}})
	if got := ids(cards); !reflect.DeepEqual(got, []string{"1", moved.ID, "2"}) {
		t.Errorf("order = %v", got)
	}
	seen := map[string]bool{}
	for _, card := range cards {
		if seen[card.Order] {
			t.Errorf("duplicate key %q after move", card.Order)
		}
		seen[card.Order] = true
	}
}

func TestUpdateCardMergesFields(t *testing.T) {
	repo, _ := newRepo(t)
	c := mustCreate(t, repo, "", store.CardInput{
		Content:  "# Task",
		Assignee: strPtr("alice"),
		Labels:   []string{"bug"},
	})

	high := core.PriorityHigh
	labels := []string{"ui", "ui", "bug"}
	updated, err := repo.UpdateCard("", c.ID, store.CardUpdate{
		Priority: &high,
		Assignee: core.Null[string](),
		DueDate:  core.Present("2025-06-01"),
		Labels:   &labels,
		Metadata: core.Present(map[string]any{"sprint": 2}),
	})
	if err != nil {
		t.Fatalf("UpdateCard: %v", err)
	}
	if updated.Priority != core.PriorityHigh || updated.Assignee != nil {
		t.Errorf("priority=%q assignee=%v", updated.Priority, updated.Assignee)
	}
	if updated.DueDate == nil || *updated.DueDate != "2025-06-01" {
		t.Errorf("dueDate = %v", updated.DueDate)
	}
	if !reflect.DeepEqual(updated.Labels, []string{"ui", "bug"}) {
		t.Errorf("labels = %v", updated.Labels)
	}
	if updated.Modified == c.Modified {
		t.Error("modified should change")
	}
	if updated.Content != "# Task" {
		t.Errorf("content changed to %q", updated.Content)
	}

	got, err := repo.GetCard("", c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Metadata["sprint"] != 2 {
		t.Errorf("metadata not persisted: %v", got.Metadata)
	}
}

func TestUpdateCardStatusAppends(t *testing.T) {
	repo, _ := newRepo(t)
	existing := mustCreate(t, repo, "", store.CardInput{Content: "# Existing", Status: "review"})
	c := mustCreate(t, repo, "", store.CardInput{Content: "# Mover"})

	status := "review"
	updated, err := repo.UpdateCard("", c.ID, store.CardUpdate{Status: &status})
	if err != nil {
		t.Fatalf("UpdateCard: %v", err)
	}
	if updated.Order <= existing.Order {
		t.Errorf("order %q should follow %q", updated.Order, existing.Order)
	}
	if filepath.Base(filepath.Dir(updated.FilePath)) != "review" {
		t.Errorf("file at %s", updated.FilePath)
	}
	deleted := core.DeletedStatus
	if _, err := repo.UpdateCard("", c.ID, store.CardUpdate{Status: &deleted}); !errors.Is(err, core.ErrUnknownColumn) {
		t.Errorf("status deleted via update: err = %v", err)
	}
}

func TestTitleChangeRenamesFile(t *testing.T) {
	repo, _ := newRepo(t)
	c := mustCreate(t, repo, "", store.CardInput{Content: "# Old name"})
	content := "# New name\n\nbody"
	updated, err := repo.UpdateCard("", c.ID, store.CardUpdate{Content: &content})
	if err != nil {
		t.Fatalf("UpdateCard: %v", err)
	}
	if filepath.Base(updated.FilePath) != "1-new-name.md" {
		t.Errorf("file = %s", updated.FilePath)
	}
	if exists(c.FilePath) {
		t.Error("old file still present")
	}
}

func TestGetCardSubstringFallback(t *testing.T) {
	repo, _ := newRepo(t)
	for i := 0; i < 12; i++ {
		mustCreate(t, repo, "", store.CardInput{Content: "# Card"})
	}
	exact, err := repo.GetCard("", "1")
	if err != nil || exact.ID != "1" {
		t.Errorf("exact match = %q, %v", exact.ID, err)
	}
	partial, err := repo.GetCard("", "2")
	if err != nil || partial.ID != "2" {
		t.Errorf("exact beats substring: got %q, %v", partial.ID, err)
	}
	if _, err := repo.GetCard("", "99"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing card: err = %v", err)
	}
}

func TestSoftDeleteAndPurge(t *testing.T) {
	repo, _ := newRepo(t)
	c := mustCreate(t, repo, "", store.CardInput{Content: "# Doomed"})
	deleted, err := repo.DeleteCard("", c.ID)
	if err != nil {
		t.Fatalf("DeleteCard: %v", err)
	}
	if deleted.Status != core.DeletedStatus || filepath.Base(filepath.Dir(deleted.FilePath)) != "deleted" {
		t.Errorf("deleted card = %q at %s", deleted.Status, deleted.FilePath)
	}

	live, _ := repo.ListCards("", store.Filter{})
	if len(live) != 0 {
		t.Errorf("deleted card listed: %v", ids(live))
	}
	all, _ := repo.ListCards("", store.Filter{IncludeDeleted: true})
	if len(all) != 1 {
		t.Errorf("IncludeDeleted listed %d cards", len(all))
	}
	only, _ := repo.ListCards("", store.Filter{Statuses: []string{core.DeletedStatus}})
	if len(only) != 1 {
		t.Errorf("status filter deleted listed %d cards", len(only))
	}

	if _, err := repo.PurgeCard("", c.ID); err != nil {
		t.Fatalf("PurgeCard: %v", err)
	}
	if exists(deleted.FilePath) {
		t.Error("purged file still present")
	}
	if _, err := repo.GetCard("", c.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("purged card lookup: err = %v", err)
	}
}

func TestSoftDeleteClearsCompletion(t *testing.T) {
	repo, rec := newRepo(t)
	c := mustCreate(t, repo, "", store.CardInput{Content: "# Shipped", Status: "done"})
	if c.CompletedAt == nil {
		t.Fatal("card in done has no completedAt")
	}
	deleted, err := repo.DeleteCard("", c.ID)
	if err != nil {
		t.Fatalf("DeleteCard: %v", err)
	}
	if deleted.CompletedAt != nil {
		t.Errorf("deleted card completedAt = %q", *deleted.CompletedAt)
	}
	if strings.Contains(readFile(t, deleted.FilePath), "completedAt: \"") {
		t.Error("file still carries completedAt")
	}
	ev := rec.events[len(rec.events)-1]
	data := ev.Data.(core.CardEventData)
	if ev.Type != core.EventTaskDeleted || data.PreviousStatus != "done" || data.Card.CompletedAt != nil {
		t.Errorf("event = %s prev=%q completedAt=%v", ev.Type, data.PreviousStatus, data.Card.CompletedAt)
	}
}

func TestEventsOncePerMutation(t *testing.T) {
	repo, rec := newRepo(t)
	c := mustCreate(t, repo, "", store.CardInput{Content: "# Evented"})
	content := "# Evented\n\nmore"
	if _, err := repo.UpdateCard("", c.ID, store.CardUpdate{Content: &content}); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.MoveCard("", c.ID, "todo", -1); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.DeleteCard("", c.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.ListCards("", store.Filter{}); err != nil {
		t.Fatal(err)
	}

	want := []string{core.EventTaskCreated, core.EventTaskUpdated, core.EventTaskMoved, core.EventTaskDeleted}
	if got := rec.types(); !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for _, ev := range rec.events {
		data, ok := ev.Data.(core.CardEventData)
		if !ok {
			t.Fatalf("%s data is %T", ev.Type, ev.Data)
		}
		if data.Card.FilePath != "" {
			t.Errorf("%s leaks file path %q", ev.Type, data.Card.FilePath)
		}
		if ev.BoardID != "default" {
			t.Errorf("%s board = %q", ev.Type, ev.BoardID)
		}
	}
	if prev := rec.events[2].Data.(core.CardEventData).PreviousStatus; prev != "backlog" {
		t.Errorf("previous status = %q, want backlog", prev)
	}
}

func TestFailedMutationEmitsNothing(t *testing.T) {
	repo, rec := newRepo(t)
	if _, err := repo.MoveCard("", "404", "todo", 0); err == nil {
		t.Fatal("expected an error")
	}
	if len(rec.events) != 0 {
		t.Errorf("events = %v", rec.types())
	}
}

func TestListFiltersAndSorts(t *testing.T) {
	repo, _ := newRepo(t)
	a := mustCreate(t, repo, "", store.CardInput{Content: "# A", Status: "todo", Metadata: map[string]any{
		"team": map[string]any{"name": "Core Platform"},
	}})
	b := mustCreate(t, repo, "", store.CardInput{Content: "# B", Status: "backlog", Metadata: map[string]any{
		"team": map[string]any{"name": "Growth"},
	}})
	mustCreate(t, repo, "", store.CardInput{Content: "# C", Status: "review"})

	got, err := repo.ListCards("", store.Filter{Metadata: map[string]string{"team.name": "core"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != a.ID {
		t.Errorf("metadata filter = %v", ids(got))
	}

	byColumn, _ := repo.ListCards("", store.Filter{})
	if ids(byColumn)[0] != b.ID {
		t.Errorf("column order = %v, backlog should lead", ids(byColumn))
	}

	newest, _ := repo.ListCards("", store.Filter{Sort: store.SortCreated, Descending: true})
	if !reflect.DeepEqual(ids(newest), []string{"3", "2", "1"}) {
		t.Errorf("created desc = %v", ids(newest))
	}
}
