// ABOUTME: Append-only JSONL journal of every event the store emits.
// ABOUTME: Provides fsynced append, sequential replay, and repair of a truncated trailing line.
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/2389-research/kanbanfs/board/core"
)

// Journal appends events to a file, one JSON object per line.
type Journal struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// Open opens (or creates) the journal at path in append mode, creating
// parent directories as needed.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create parent dirs: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return &Journal{path: path, file: file}, nil
}

// Path returns the journal file path.
func (j *Journal) Path() string {
	return j.path
}

// Append writes one event line and fsyncs.
func (j *Journal) Append(ev core.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write event line: %w", err)
	}
	if err := j.file.Sync(); err != nil {
		return fmt.Errorf("fsync: %w", err)
	}
	return nil
}

// Emit appends ev, logging instead of returning failures so the journal can
// sit behind the store's emitter.
func (j *Journal) Emit(ev core.Event) {
	if err := j.Append(ev); err != nil {
		log.Printf("component=board.journal action=append_failed event=%s err=%v", ev.Type, err)
	}
}

// Close closes the underlying file.
func (j *Journal) Close() error {
	return j.file.Close()
}

// Replay reads every event from the journal in order. Empty lines are
// skipped; event data comes back as generic JSON values.
func Replay(path string) ([]core.Event, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journal for replay: %w", err)
	}
	defer func() { _ = file.Close() }()

	var events []core.Event
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var ev core.Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			return nil, fmt.Errorf("parse event line: %w", err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan journal: %w", err)
	}
	return events, nil
}

// Repair keeps only complete, parseable lines, replacing the file through a
// temp file and rename. It returns how many events were kept.
func Repair(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open journal for repair: %w", err)
	}

	var valid []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var ev core.Event
		if json.Unmarshal([]byte(line), &ev) == nil {
			valid = append(valid, line)
		}
	}
	if err := scanner.Err(); err != nil {
		_ = file.Close()
		return 0, fmt.Errorf("scan journal for repair: %w", err)
	}
	_ = file.Close()

	tmpPath := path + ".tmp"
	tmp, err := os.Create(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	for _, line := range valid {
		if _, err := fmt.Fprintln(tmp, line); err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
			return 0, fmt.Errorf("write valid line: %w", err)
		}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("fsync temp file: %w", err)
	}
	_ = tmp.Close()

	if err := os.Rename(tmpPath, path); err != nil {
		return 0, fmt.Errorf("rename temp to journal: %w", err)
	}
	if dir, err := os.Open(filepath.Dir(path)); err == nil {
		_ = dir.Sync()
		_ = dir.Close()
	}
	return len(valid), nil
}
