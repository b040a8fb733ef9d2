// ABOUTME: Registry owns the board configuration document at the workspace root (.kanban.json).
// ABOUTME: Every mutation re-reads the document, applies the change, and atomically rewrites it whole.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/2389-research/kanbanfs/board/core"
)

// FileName is the name of the configuration document in the workspace root.
const FileName = ".kanban.json"

// Registry reads and writes the configuration document. It holds no lock:
// concurrent writers race and the last write wins.
type Registry struct {
	root string
	path string
}

// Open returns a Registry for the workspace rooted at root. The document is
// created lazily on the first mutation.
func Open(root string) (*Registry, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}
	return &Registry{root: abs, path: filepath.Join(abs, FileName)}, nil
}

// Root returns the workspace root directory.
func (r *Registry) Root() string {
	return r.root
}

// Path returns the path of the configuration document.
func (r *Registry) Path() string {
	return r.path
}

// Config loads the current document, falling back to defaults when it does
// not exist yet.
func (r *Registry) Config() (*core.Config, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return core.DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := &core.Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	normalize(cfg)
	return cfg, nil
}

// Save atomically replaces the document with cfg.
func (r *Registry) Save(cfg *core.Config) error {
	normalize(cfg)
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return writeAtomic(r.path, append(data, '\n'))
}

// FeaturesDir returns the absolute directory holding the boards tree.
func (r *Registry) FeaturesDir() (string, error) {
	cfg, err := r.Config()
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(cfg.FeaturesDirectory) {
		return cfg.FeaturesDirectory, nil
	}
	return filepath.Join(r.root, cfg.FeaturesDirectory), nil
}

// update runs a read-modify-write cycle over the document.
func (r *Registry) update(fn func(cfg *core.Config) error) error {
	cfg, err := r.Config()
	if err != nil {
		return err
	}
	if err := fn(cfg); err != nil {
		return err
	}
	return r.Save(cfg)
}

// normalize fills defaults so the rest of the code can rely on non-nil maps
// and a resolvable default board.
func normalize(cfg *core.Config) {
	if cfg.Boards == nil {
		cfg.Boards = map[string]*core.BoardConfig{}
	}
	if len(cfg.Boards) == 0 {
		cfg.Boards["default"] = core.DefaultConfig().Boards["default"]
	}
	if cfg.Labels == nil {
		cfg.Labels = map[string]core.LabelDefinition{}
	}
	if cfg.Webhooks == nil {
		cfg.Webhooks = []core.Webhook{}
	}
	if cfg.FeaturesDirectory == "" {
		cfg.FeaturesDirectory = ".kanban"
	}
	if cfg.Version == 0 {
		cfg.Version = 2
	}
	for _, b := range cfg.Boards {
		if b.NextCardID < 1 {
			b.NextCardID = 1
		}
		if !b.DefaultPriority.Valid() {
			b.DefaultPriority = core.PriorityMedium
		}
		if b.Columns == nil {
			b.Columns = []core.Column{}
		}
		if b.DefaultStatus == "" && len(b.Columns) > 0 {
			b.DefaultStatus = b.Columns[0].ID
		}
	}
	if _, ok := cfg.Boards[cfg.DefaultBoard]; !ok {
		ids := sortedBoardIDs(cfg)
		cfg.DefaultBoard = ids[0]
		if _, ok := cfg.Boards["default"]; ok {
			cfg.DefaultBoard = "default"
		}
	}
}

func sortedBoardIDs(cfg *core.Config) []string {
	ids := make([]string, 0, len(cfg.Boards))
	for id := range cfg.Boards {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// writeAtomic writes data to a temp file next to path, fsyncs, then renames
// it over path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".kanban-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("fsync config: %w", err)
	}
	_ = tmp.Close()

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}
