// ABOUTME: Tests for attachments: copying next to the card, name collisions, moves and detaching.
package store_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/2389-research/kanbanfs/board/core"
	"github.com/2389-research/kanbanfs/board/store"
)

func TestAttachmentLifecycle(t *testing.T) {
	repo, rec := newRepo(t)
	c := mustCreate(t, repo, "", store.CardInput{Content: "# With files"})
	src := filepath.Join(t.TempDir(), "shot.png")
	writeFile(t, src, "image bytes")

	_, first, err := repo.AddAttachment("", c.ID, src)
	if err != nil {
		t.Fatalf("AddAttachment: %v", err)
	}
	card, second, err := repo.AddAttachment("", c.ID, src)
	if err != nil {
		t.Fatalf("AddAttachment again: %v", err)
	}
	if first != "shot.png" || second != "shot-1.png" {
		t.Errorf("names = %q, %q", first, second)
	}
	if len(card.Attachments) != 2 {
		t.Errorf("attachments = %v", card.Attachments)
	}

	moved, err := repo.MoveCard("", c.ID, "done", -1)
	if err != nil {
		t.Fatal(err)
	}
	doneDir := filepath.Dir(moved.FilePath)
	for _, name := range moved.Attachments {
		if !exists(filepath.Join(doneDir, name)) {
			t.Errorf("attachment %s did not follow the card", name)
		}
	}

	path, err := repo.AttachmentPath("", c.ID, "shot.png")
	if err != nil || path != filepath.Join(doneDir, "shot.png") {
		t.Errorf("AttachmentPath = %q, %v", path, err)
	}

	detached, err := repo.RemoveAttachment("", c.ID, "shot.png")
	if err != nil {
		t.Fatalf("RemoveAttachment: %v", err)
	}
	if len(detached.Attachments) != 1 || detached.Attachments[0] != "shot-1.png" {
		t.Errorf("attachments = %v", detached.Attachments)
	}
	if !exists(filepath.Join(doneDir, "shot.png")) {
		t.Error("detaching should keep the file")
	}

	var added, removed int
	for _, ev := range rec.events {
		switch ev.Type {
		case core.EventAttachmentAdded:
			added++
		case core.EventAttachmentRemoved:
			removed++
		}
	}
	if added != 2 || removed != 1 {
		t.Errorf("attachment events: added=%d removed=%d", added, removed)
	}
}

func TestAttachmentErrors(t *testing.T) {
	repo, _ := newRepo(t)
	c := mustCreate(t, repo, "", store.CardInput{Content: "# Files"})
	if _, _, err := repo.AddAttachment("", c.ID, filepath.Join(t.TempDir(), "missing.txt")); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing source: err = %v", err)
	}
	if _, _, err := repo.AddAttachment("", c.ID, t.TempDir()); !errors.Is(err, core.ErrValidation) {
		t.Errorf("directory source: err = %v", err)
	}
	if _, err := repo.RemoveAttachment("", c.ID, "nope.png"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown attachment: err = %v", err)
	}
}

func TestPurgeRemovesAttachments(t *testing.T) {
	repo, _ := newRepo(t)
	c := mustCreate(t, repo, "", store.CardInput{Content: "# Purge me"})
	src := filepath.Join(t.TempDir(), "log.txt")
	writeFile(t, src, "log")
	if _, _, err := repo.AddAttachment("", c.ID, src); err != nil {
		t.Fatal(err)
	}
	path, _ := repo.AttachmentPath("", c.ID, "log.txt")
	if _, err := repo.PurgeCard("", c.ID); err != nil {
		t.Fatal(err)
	}
	if exists(path) {
		t.Error("attachment survived purge")
	}
}
