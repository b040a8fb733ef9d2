// ABOUTME: Tests for the configuration registry: defaults, boards, card ids, columns, labels and webhooks.
// ABOUTME: Each test works on a fresh workspace root under t.TempDir.
package registry_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/2389-research/kanbanfs/board/core"
	"github.com/2389-research/kanbanfs/board/registry"
)

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r, err := registry.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return r
}

func strPtr(s string) *string { return &s }

func TestDefaultsWithoutDocument(t *testing.T) {
	r := newRegistry(t)
	cfg, err := r.Config()
	if err != nil {
		t.Fatalf("Config: %v", err)
	}
	if cfg.DefaultBoard != "default" {
		t.Errorf("DefaultBoard = %q", cfg.DefaultBoard)
	}
	b := cfg.Boards["default"]
	if b == nil || len(b.Columns) != 5 || b.DefaultStatus != "backlog" || b.NextCardID != 1 {
		t.Fatalf("default board = %+v", b)
	}
	if _, err := os.Stat(r.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("reading defaults should not create %s", r.Path())
	}
	dir, err := r.FeaturesDir()
	if err != nil {
		t.Fatalf("FeaturesDir: %v", err)
	}
	if dir != filepath.Join(r.Root(), ".kanban") {
		t.Errorf("FeaturesDir = %q", dir)
	}
}

func TestNormalizeFillsPartialDocument(t *testing.T) {
	r := newRegistry(t)
	doc := `{"boards": {"work": {"name": "Work", "columns": [{"id": "open", "name": "Open"}]}}}`
	if err := os.WriteFile(r.Path(), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := r.Config()
	if err != nil {
		t.Fatalf("Config: %v", err)
	}
	if cfg.DefaultBoard != "work" {
		t.Errorf("DefaultBoard = %q, want work", cfg.DefaultBoard)
	}
	b := cfg.Boards["work"]
	if b.NextCardID != 1 || b.DefaultStatus != "open" || b.DefaultPriority != core.PriorityMedium {
		t.Errorf("board = %+v", b)
	}
	if cfg.Labels == nil || cfg.Webhooks == nil {
		t.Error("maps and slices should be non-nil")
	}
}

func TestAllocateCardIDIncreases(t *testing.T) {
	r := newRegistry(t)
	for want := 1; want <= 3; want++ {
		got, err := r.AllocateCardID("default")
		if err != nil {
			t.Fatalf("AllocateCardID: %v", err)
		}
		if got != want {
			t.Errorf("AllocateCardID = %d, want %d", got, want)
		}
	}
	if _, err := r.AllocateCardID("nope"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown board: err = %v", err)
	}
}

func TestSyncCardID(t *testing.T) {
	r := newRegistry(t)
	changed, err := r.SyncCardID("default", 9)
	if err != nil || !changed {
		t.Fatalf("SyncCardID(9) = %v, %v", changed, err)
	}
	b, _ := r.Board("default")
	if b.NextCardID != 10 {
		t.Errorf("NextCardID = %d, want 10", b.NextCardID)
	}

	info, _ := os.Stat(r.Path())
	changed, err = r.SyncCardID("default", 4)
	if err != nil || changed {
		t.Errorf("SyncCardID(4) = %v, %v; want no change", changed, err)
	}
	after, _ := os.Stat(r.Path())
	if !after.ModTime().Equal(info.ModTime()) {
		t.Error("an up-to-date counter should not rewrite the document")
	}
}

func TestCreateBoardDefaults(t *testing.T) {
	r := newRegistry(t)
	b, err := r.CreateBoard("ops", core.BoardConfig{})
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}
	if b.Name != "ops" || b.DefaultStatus != "backlog" || b.FinalStatus != "done" || b.NextCardID != 1 {
		t.Errorf("board = %+v", b)
	}
	if _, err := r.CreateBoard("ops", core.BoardConfig{}); !errors.Is(err, core.ErrDuplicateBoard) {
		t.Errorf("duplicate: err = %v", err)
	}
	if _, err := r.CreateBoard("bad id", core.BoardConfig{}); !errors.Is(err, core.ErrInvalidID) {
		t.Errorf("invalid id: err = %v", err)
	}
	ids, _ := r.BoardIDs()
	if len(ids) != 2 || ids[0] != "default" || ids[1] != "ops" {
		t.Errorf("BoardIDs = %v", ids)
	}
}

func TestCreateBoardRejectsBadColumns(t *testing.T) {
	r := newRegistry(t)
	cases := []struct {
		cols []core.Column
		want error
	}{
		{[]core.Column{{ID: "deleted"}}, core.ErrReservedColumn},
		{[]core.Column{{ID: "a"}, {ID: "a"}}, core.ErrDuplicateColumn},
		{[]core.Column{{ID: "has space"}}, core.ErrInvalidID},
	}
	for _, tc := range cases {
		_, err := r.CreateBoard("x", core.BoardConfig{Columns: tc.cols})
		if !errors.Is(err, tc.want) {
			t.Errorf("columns %v: err = %v, want %v", tc.cols, err, tc.want)
		}
	}
}

func TestUpdateAndDeleteBoard(t *testing.T) {
	r := newRegistry(t)
	if _, err := r.CreateBoard("ops", core.BoardConfig{}); err != nil {
		t.Fatal(err)
	}
	b, err := r.UpdateBoard("ops", registry.BoardUpdate{Name: strPtr("Operations"), DefaultStatus: strPtr("todo")})
	if err != nil {
		t.Fatalf("UpdateBoard: %v", err)
	}
	if b.Name != "Operations" || b.DefaultStatus != "todo" {
		t.Errorf("board = %+v", b)
	}
	if _, err := r.UpdateBoard("ops", registry.BoardUpdate{DefaultStatus: strPtr("nowhere")}); !errors.Is(err, core.ErrUnknownColumn) {
		t.Errorf("unknown default status: err = %v", err)
	}
	if _, err := r.DeleteBoard("default"); !errors.Is(err, core.ErrDefaultBoard) {
		t.Errorf("delete default: err = %v", err)
	}
	if _, err := r.DeleteBoard("ops"); err != nil {
		t.Fatalf("DeleteBoard: %v", err)
	}
	if _, err := r.Board("ops"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("deleted board still present: %v", err)
	}
}

func TestColumnRules(t *testing.T) {
	r := newRegistry(t)
	b, err := r.AddColumn("default", core.Column{ID: "qa", Color: "#fff"})
	if err != nil {
		t.Fatalf("AddColumn: %v", err)
	}
	last := b.Columns[len(b.Columns)-1]
	if last.ID != "qa" || last.Name != "qa" {
		t.Errorf("last column = %+v", last)
	}
	if _, err := r.AddColumn("default", core.Column{ID: "qa"}); !errors.Is(err, core.ErrDuplicateColumn) {
		t.Errorf("duplicate: err = %v", err)
	}
	if _, err := r.AddColumn("default", core.Column{ID: "deleted"}); !errors.Is(err, core.ErrReservedColumn) {
		t.Errorf("reserved: err = %v", err)
	}

	col, _, err := r.UpdateColumn("default", "qa", registry.ColumnUpdate{Name: strPtr("QA")})
	if err != nil || col.Name != "QA" || col.Color != "#fff" {
		t.Errorf("UpdateColumn = %+v, %v", col, err)
	}

	if _, _, err := r.RemoveColumn("default", "backlog"); !errors.Is(err, core.ErrDefaultColumn) {
		t.Errorf("remove default status: err = %v", err)
	}
	if _, _, err := r.RemoveColumn("default", "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("remove missing: err = %v", err)
	}
	if _, b, err := r.RemoveColumn("default", "done"); err != nil || b.FinalStatus != "" {
		t.Errorf("RemoveColumn(done) = %+v, %v", b, err)
	}
	final, _ := r.FinalStatus("default")
	if final != "qa" {
		t.Errorf("FinalStatus after removing done = %q, want qa", final)
	}
}

func TestReorderColumns(t *testing.T) {
	r := newRegistry(t)
	ids := []string{"done", "review", "in-progress", "todo", "backlog"}
	b, err := r.ReorderColumns("default", ids)
	if err != nil {
		t.Fatalf("ReorderColumns: %v", err)
	}
	for i, c := range b.Columns {
		if c.ID != ids[i] {
			t.Errorf("column %d = %q, want %q", i, c.ID, ids[i])
		}
	}
	bad := [][]string{
		{"done", "review"},
		{"done", "done", "review", "todo", "backlog"},
		{"done", "review", "in-progress", "todo", "nope"},
	}
	for _, ids := range bad {
		if _, err := r.ReorderColumns("default", ids); !errors.Is(err, core.ErrIncompleteReorder) {
			t.Errorf("ReorderColumns(%v): err = %v", ids, err)
		}
	}
}

func TestLabels(t *testing.T) {
	r := newRegistry(t)
	if err := r.SetLabel("bug", core.LabelDefinition{Color: "#f00", Group: "type"}); err != nil {
		t.Fatal(err)
	}
	if err := r.SetLabel("feature", core.LabelDefinition{Color: "#0f0", Group: "type"}); err != nil {
		t.Fatal(err)
	}
	if err := r.SetLabel("  ", core.LabelDefinition{}); !errors.Is(err, core.ErrInvalidID) {
		t.Errorf("blank label: err = %v", err)
	}
	names, _ := r.LabelsInGroup("type")
	if len(names) != 2 || names[0] != "bug" || names[1] != "feature" {
		t.Errorf("LabelsInGroup = %v", names)
	}
	if err := r.RenameLabel("bug", "defect"); err != nil {
		t.Fatalf("RenameLabel: %v", err)
	}
	labels, _ := r.Labels()
	if _, ok := labels["bug"]; ok {
		t.Error("old label name still defined")
	}
	if labels["defect"].Color != "#f00" {
		t.Errorf("renamed label = %+v", labels["defect"])
	}
	if err := r.DeleteLabel("bug"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("delete missing label: err = %v", err)
	}
}

func TestSettings(t *testing.T) {
	r := newRegistry(t)
	s, _ := r.Settings()
	if !s.ShowLabels {
		t.Error("default settings should show labels")
	}
	s.CompactMode = true
	if err := r.UpdateSettings(s); err != nil {
		t.Fatal(err)
	}
	got, _ := r.Settings()
	if !got.CompactMode {
		t.Error("CompactMode not persisted")
	}
}

func TestWebhooks(t *testing.T) {
	r := newRegistry(t)
	h, err := r.CreateWebhook("https://example.com/hook", nil, "k")
	if err != nil {
		t.Fatalf("CreateWebhook: %v", err)
	}
	if !h.Active || len(h.Events) != 1 || h.Events[0] != "*" || h.ID == "" {
		t.Errorf("webhook = %+v", h)
	}

	for _, raw := range []string{"ftp://example.com", "/relative", "https://"} {
		if _, err := r.CreateWebhook(raw, nil, ""); !errors.Is(err, core.ErrInvalidWebhook) {
			t.Errorf("CreateWebhook(%q): err = %v", raw, err)
		}
	}
	if _, err := r.CreateWebhook("http://localhost:9", []string{"task.exploded"}, ""); !errors.Is(err, core.ErrInvalidWebhook) {
		t.Errorf("unknown event: err = %v", err)
	}

	off := false
	events := []string{core.EventTaskDeleted}
	updated, err := r.UpdateWebhook(h.ID, registry.WebhookUpdate{Active: &off, Events: &events})
	if err != nil {
		t.Fatalf("UpdateWebhook: %v", err)
	}
	if updated.Active || updated.Events[0] != core.EventTaskDeleted || updated.Secret != "k" {
		t.Errorf("updated = %+v", updated)
	}

	if err := r.DeleteWebhook(h.ID); err != nil {
		t.Fatalf("DeleteWebhook: %v", err)
	}
	if _, err := r.Webhook(h.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("deleted webhook lookup: err = %v", err)
	}
}

func TestDocumentIsIndentedJSON(t *testing.T) {
	r := newRegistry(t)
	if _, err := r.AllocateCardID("default"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(r.Path())
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("document is not JSON: %v", err)
	}
	if doc["defaultBoard"] != "default" {
		t.Errorf("defaultBoard = %v", doc["defaultBoard"])
	}
	entries, _ := os.ReadDir(r.Root())
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}
