// ABOUTME: Workspace resolves the on-disk layout of a kanban workspace from its root directory.
// ABOUTME: Cards live under <featuresDir>/boards/<boardId>/<status>/, one subdirectory per status.
package store

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/2389-research/kanbanfs/board/core"
	"github.com/2389-research/kanbanfs/board/registry"
)

// Workspace is the explicit handle for one workspace root.
//
// Dir layout:
//
//	root/.kanban.json
//	root/<featuresDir>/boards/<boardId>/<status>/<id>-<slug>.md
//	root/<featuresDir>/boards/<boardId>/<status>/<attachment>
type Workspace struct {
	reg *registry.Registry
}

// OpenWorkspace opens the workspace rooted at root. Nothing is created until
// the first write.
func OpenWorkspace(root string) (*Workspace, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat workspace root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace root is not a directory: %s", root)
	}
	reg, err := registry.Open(root)
	if err != nil {
		return nil, err
	}
	return &Workspace{reg: reg}, nil
}

// Root returns the absolute workspace root.
func (w *Workspace) Root() string {
	return w.reg.Root()
}

// Registry returns the configuration registry of the workspace.
func (w *Workspace) Registry() *registry.Registry {
	return w.reg
}

// BoardDir returns the directory holding a board's status folders.
func (w *Workspace) BoardDir(boardID string) (string, error) {
	if !safeName(boardID) {
		return "", core.Invalid(core.ErrInvalidID, "board id %q", boardID)
	}
	features, err := w.reg.FeaturesDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(features, "boards", boardID), nil
}

// StatusDir returns the folder for one status of a board. A status that is
// not a single path segment is rejected.
func (w *Workspace) StatusDir(boardID, status string) (string, error) {
	if !safeName(status) {
		return "", core.Invalid(core.ErrInvalidID, "status %q", status)
	}
	dir, err := w.BoardDir(boardID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, status), nil
}

// StatusDirs lists the status folders present on disk for a board, sorted.
func (w *Workspace) StatusDirs(boardID string) ([]string, error) {
	dir, err := w.BoardDir(boardID)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read board dir: %w", err)
	}
	var statuses []string
	for _, e := range entries {
		if e.IsDir() && e.Name()[0] != '.' {
			statuses = append(statuses, e.Name())
		}
	}
	sort.Strings(statuses)
	return statuses, nil
}

// RemoveBoardDir removes a board's folder tree when it holds no files.
func (w *Workspace) RemoveBoardDir(boardID string) {
	dir, err := w.BoardDir(boardID)
	if err != nil {
		return
	}
	statuses, err := w.StatusDirs(boardID)
	if err != nil {
		return
	}
	for _, s := range statuses {
		_ = os.Remove(filepath.Join(dir, s))
	}
	if err := os.Remove(dir); err != nil && !os.IsNotExist(err) {
		log.Printf("component=board.store action=remove_board_dir_skipped board=%s err=%v", boardID, err)
	}
}
