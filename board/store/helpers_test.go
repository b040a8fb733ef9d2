// ABOUTME: Shared fixtures for store tests: a temp workspace, a recording emitter and a stepping clock.
package store_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/2389-research/kanbanfs/board/core"
	"github.com/2389-research/kanbanfs/board/store"
)

type recorder struct {
	events []core.Event
}

func (r *recorder) Emit(ev core.Event) { r.events = append(r.events, ev) }

func (r *recorder) types() []string {
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

func (r *recorder) reset() { r.events = nil }

// steppingClock advances one second per call so timestamps never collide.
func steppingClock() func() time.Time {
	t := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newRepo(t *testing.T) (*store.Repository, *recorder) {
	t.Helper()
	ws, err := store.OpenWorkspace(t.TempDir())
	if err != nil {
		t.Fatalf("OpenWorkspace: %v", err)
	}
	rec := &recorder{}
	return store.New(ws, rec, store.WithClock(steppingClock())), rec
}

func statusDir(t *testing.T, repo *store.Repository, boardID, status string) string {
	t.Helper()
	dir, err := repo.Workspace().StatusDir(boardID, status)
	if err != nil {
		t.Fatalf("StatusDir: %v", err)
	}
	return dir
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func mustCreate(t *testing.T, repo *store.Repository, boardID string, in store.CardInput) core.Card {
	t.Helper()
	c, err := repo.CreateCard(boardID, in)
	if err != nil {
		t.Fatalf("CreateCard(%q): %v", in.Content, err)
	}
	return c
}

func ids(cards []core.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.ID
	}
	return out
}

func strPtr(s string) *string { return &s }
