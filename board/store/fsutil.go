// ABOUTME: File helpers for card storage: atomic writes, collision-free names, and cross-folder moves.
// ABOUTME: A card moves together with the attachments stored next to it.
package store

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/2389-research/kanbanfs/board/codec"
	"github.com/2389-research/kanbanfs/board/core"
)

// writeAtomic writes data to a temp file in the target directory, fsyncs it,
// then renames it over path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".card-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("fsync temp file: %w", err)
	}
	_ = tmp.Close()

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// writeCard persists a card at its current FilePath.
func writeCard(c *core.Card) error {
	if err := writeAtomic(c.FilePath, []byte(codec.Encode(c))); err != nil {
		return fmt.Errorf("write card %s: %w", c.ID, err)
	}
	return nil
}

// safeName reports whether s is usable as a single path segment inside a
// board folder.
func safeName(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`) && filepath.Base(s) == s
}

// unsafeField returns the first status or attachment name of c that is not a
// single path segment.
func unsafeField(c *core.Card) (string, bool) {
	if !safeName(c.Status) {
		return c.Status, true
	}
	for _, a := range c.Attachments {
		if !safeName(a) {
			return a, true
		}
	}
	return "", false
}

// uniquePath returns dir/name, or dir/base-N.ext for the first N that is free.
func uniquePath(dir, name string) string {
	candidate := filepath.Join(dir, name)
	if _, err := os.Lstat(candidate); errors.Is(err, os.ErrNotExist) {
		return candidate
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := 1; ; n++ {
		candidate = filepath.Join(dir, base+"-"+strconv.Itoa(n)+ext)
		if _, err := os.Lstat(candidate); errors.Is(err, os.ErrNotExist) {
			return candidate
		}
	}
}

// moveFile renames src to dst, falling back to copy and remove across devices.
func moveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("remove moved file: %w", err)
	}
	return nil
}

// copyFile copies src to dst, creating or truncating dst.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy file: %w", err)
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return fmt.Errorf("fsync copy: %w", err)
	}
	return out.Close()
}

// placeCard moves a card file to dir/name, picking a free name on collision.
// When the folder changes, attachments found next to the old file follow it.
// It reports whether an attachment had to be renamed, in which case the card
// header needs rewriting.
func placeCard(c *core.Card, dir, name string) (bool, error) {
	if filepath.Join(dir, name) == c.FilePath {
		return false, nil
	}
	oldDir := filepath.Dir(c.FilePath)
	dst := uniquePath(dir, name)
	if err := moveFile(c.FilePath, dst); err != nil {
		return false, fmt.Errorf("move card %s: %w", c.ID, err)
	}
	c.FilePath = dst
	if oldDir == dir {
		return false, nil
	}

	renamed := false
	for i, a := range c.Attachments {
		if !safeName(a) {
			continue
		}
		src := filepath.Join(oldDir, a)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		adst := uniquePath(dir, a)
		if err := moveFile(src, adst); err != nil {
			log.Printf("component=board.store action=move_attachment_failed card=%s attachment=%s err=%v", c.ID, a, err)
			continue
		}
		if base := filepath.Base(adst); base != a {
			c.Attachments[i] = base
			renamed = true
		}
	}
	return renamed, nil
}
