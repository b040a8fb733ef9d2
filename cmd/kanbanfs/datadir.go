// ABOUTME: XDG-based data directory resolution for kanbanfs process state.
// ABOUTME: Holds the default dead-letter database; card data always lives in the workspace.
package main

import (
	"fmt"
	"os"
	"path/filepath"
)

// defaultDataDir checks XDG_DATA_HOME first, then falls back to
// ~/.local/share/kanbanfs.
func defaultDataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "kanbanfs"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "kanbanfs"), nil
}

// deadLetterPath returns the configured dead-letter database path, or the
// default one inside the data directory.
func deadLetterPath(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	dir, err := defaultDataDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	return filepath.Join(dir, "deadletters.db"), nil
}
