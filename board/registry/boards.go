// ABOUTME: Board and column definitions plus per-board numeric card ID allocation.
// ABOUTME: Column rules: unique ids, "deleted" is reserved, the default status must stay a column.
package registry

import (
	"regexp"

	"github.com/2389-research/kanbanfs/board/core"
)

var identifier = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// BoardUpdate lists the board fields to change; nil leaves a field alone.
type BoardUpdate struct {
	Name            *string        `json:"name,omitempty"`
	Description     *string        `json:"description,omitempty"`
	DefaultStatus   *string        `json:"defaultStatus,omitempty"`
	DefaultPriority *core.Priority `json:"defaultPriority,omitempty"`
	FinalStatus     *string        `json:"finalStatus,omitempty"`
}

// ColumnUpdate lists the column fields to change.
type ColumnUpdate struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
}

// ResolveBoardID maps "" to the default board id.
func (r *Registry) ResolveBoardID(id string) (string, error) {
	if id != "" {
		return id, nil
	}
	cfg, err := r.Config()
	if err != nil {
		return "", err
	}
	return cfg.DefaultBoard, nil
}

// Board returns a copy of one board's configuration. "" names the default board.
func (r *Registry) Board(id string) (core.BoardConfig, error) {
	cfg, err := r.Config()
	if err != nil {
		return core.BoardConfig{}, err
	}
	if id == "" {
		id = cfg.DefaultBoard
	}
	b, ok := cfg.Boards[id]
	if !ok {
		return core.BoardConfig{}, core.NotFound(core.KindBoard, id)
	}
	return copyBoard(b), nil
}

// BoardIDs returns every board id, sorted.
func (r *Registry) BoardIDs() ([]string, error) {
	cfg, err := r.Config()
	if err != nil {
		return nil, err
	}
	return sortedBoardIDs(cfg), nil
}

// Boards returns copies of every board configuration keyed by id.
func (r *Registry) Boards() (map[string]core.BoardConfig, error) {
	cfg, err := r.Config()
	if err != nil {
		return nil, err
	}
	out := make(map[string]core.BoardConfig, len(cfg.Boards))
	for id, b := range cfg.Boards {
		out[id] = copyBoard(b)
	}
	return out, nil
}

// FinalStatus returns the status that completes a card on the given board.
func (r *Registry) FinalStatus(boardID string) (string, error) {
	b, err := r.Board(boardID)
	if err != nil {
		return "", err
	}
	return b.Final(), nil
}

// CreateBoard adds a board. Missing columns default to the standard set; the
// default and final statuses default to the first and last column.
func (r *Registry) CreateBoard(id string, b core.BoardConfig) (core.BoardConfig, error) {
	if !identifier.MatchString(id) {
		return core.BoardConfig{}, core.Invalid(core.ErrInvalidID, "board id %q", id)
	}
	if len(b.Columns) == 0 {
		b.Columns = core.DefaultColumns()
	}
	if err := validateColumns(b.Columns); err != nil {
		return core.BoardConfig{}, err
	}
	if b.Name == "" {
		b.Name = id
	}
	if b.DefaultStatus == "" {
		b.DefaultStatus = b.Columns[0].ID
	}
	if !b.HasColumn(b.DefaultStatus) {
		return core.BoardConfig{}, core.Invalid(core.ErrUnknownColumn, "default status %q", b.DefaultStatus)
	}
	if b.FinalStatus == "" {
		b.FinalStatus = b.Columns[len(b.Columns)-1].ID
	}
	if !b.HasColumn(b.FinalStatus) {
		return core.BoardConfig{}, core.Invalid(core.ErrUnknownColumn, "final status %q", b.FinalStatus)
	}
	if b.DefaultPriority == "" {
		b.DefaultPriority = core.PriorityMedium
	}
	if !b.DefaultPriority.Valid() {
		return core.BoardConfig{}, core.Invalid(core.ErrInvalidPriority, "%q", b.DefaultPriority)
	}
	b.NextCardID = 1

	err := r.update(func(cfg *core.Config) error {
		if _, exists := cfg.Boards[id]; exists {
			return core.Invalid(core.ErrDuplicateBoard, "%q", id)
		}
		nb := copyBoard(&b)
		cfg.Boards[id] = &nb
		return nil
	})
	if err != nil {
		return core.BoardConfig{}, err
	}
	return copyBoard(&b), nil
}

// UpdateBoard changes board-level fields.
func (r *Registry) UpdateBoard(id string, u BoardUpdate) (core.BoardConfig, error) {
	var out core.BoardConfig
	err := r.update(func(cfg *core.Config) error {
		b, ok := cfg.Boards[id]
		if !ok {
			return core.NotFound(core.KindBoard, id)
		}
		if u.Name != nil {
			b.Name = *u.Name
		}
		if u.Description != nil {
			b.Description = *u.Description
		}
		if u.DefaultStatus != nil {
			if !b.HasColumn(*u.DefaultStatus) {
				return core.Invalid(core.ErrUnknownColumn, "default status %q", *u.DefaultStatus)
			}
			b.DefaultStatus = *u.DefaultStatus
		}
		if u.DefaultPriority != nil {
			if !u.DefaultPriority.Valid() {
				return core.Invalid(core.ErrInvalidPriority, "%q", *u.DefaultPriority)
			}
			b.DefaultPriority = *u.DefaultPriority
		}
		if u.FinalStatus != nil {
			if *u.FinalStatus != "" && !b.HasColumn(*u.FinalStatus) {
				return core.Invalid(core.ErrUnknownColumn, "final status %q", *u.FinalStatus)
			}
			b.FinalStatus = *u.FinalStatus
		}
		out = copyBoard(b)
		return nil
	})
	return out, err
}

// DeleteBoard removes a board definition. The default board cannot be deleted.
func (r *Registry) DeleteBoard(id string) (core.BoardConfig, error) {
	var out core.BoardConfig
	err := r.update(func(cfg *core.Config) error {
		b, ok := cfg.Boards[id]
		if !ok {
			return core.NotFound(core.KindBoard, id)
		}
		if id == cfg.DefaultBoard {
			return core.Invalid(core.ErrDefaultBoard, "%q", id)
		}
		out = copyBoard(b)
		delete(cfg.Boards, id)
		return nil
	})
	return out, err
}

// AllocateCardID hands out the board's next card id and advances the counter.
func (r *Registry) AllocateCardID(boardID string) (int, error) {
	var id int
	err := r.update(func(cfg *core.Config) error {
		b, ok := cfg.Boards[boardID]
		if !ok {
			return core.NotFound(core.KindBoard, boardID)
		}
		id = b.NextCardID
		b.NextCardID++
		return nil
	})
	return id, err
}

// SyncCardID advances the counter past maxSeen. It reports whether the
// document changed; an up-to-date counter is not rewritten.
func (r *Registry) SyncCardID(boardID string, maxSeen int) (bool, error) {
	b, err := r.Board(boardID)
	if err != nil {
		return false, err
	}
	if maxSeen < b.NextCardID {
		return false, nil
	}
	changed := false
	err = r.update(func(cfg *core.Config) error {
		b, ok := cfg.Boards[boardID]
		if !ok {
			return core.NotFound(core.KindBoard, boardID)
		}
		if maxSeen >= b.NextCardID {
			b.NextCardID = maxSeen + 1
			changed = true
		}
		return nil
	})
	return changed, err
}

// AddColumn appends a column to a board.
func (r *Registry) AddColumn(boardID string, col core.Column) (core.BoardConfig, error) {
	if col.ID == core.DeletedStatus {
		return core.BoardConfig{}, core.Invalid(core.ErrReservedColumn, "%q", col.ID)
	}
	if !identifier.MatchString(col.ID) {
		return core.BoardConfig{}, core.Invalid(core.ErrInvalidID, "column id %q", col.ID)
	}
	if col.Name == "" {
		col.Name = col.ID
	}
	var out core.BoardConfig
	err := r.update(func(cfg *core.Config) error {
		b, ok := cfg.Boards[boardID]
		if !ok {
			return core.NotFound(core.KindBoard, boardID)
		}
		if b.HasColumn(col.ID) {
			return core.Invalid(core.ErrDuplicateColumn, "%q", col.ID)
		}
		b.Columns = append(b.Columns, col)
		out = copyBoard(b)
		return nil
	})
	return out, err
}

// UpdateColumn changes a column's display name or color.
func (r *Registry) UpdateColumn(boardID, columnID string, u ColumnUpdate) (core.Column, core.BoardConfig, error) {
	var col core.Column
	var out core.BoardConfig
	err := r.update(func(cfg *core.Config) error {
		b, ok := cfg.Boards[boardID]
		if !ok {
			return core.NotFound(core.KindBoard, boardID)
		}
		i := b.ColumnIndex(columnID)
		if i < 0 {
			return core.NotFound(core.KindColumn, columnID)
		}
		if u.Name != nil {
			b.Columns[i].Name = *u.Name
		}
		if u.Color != nil {
			b.Columns[i].Color = *u.Color
		}
		col = b.Columns[i]
		out = copyBoard(b)
		return nil
	})
	return col, out, err
}

// RemoveColumn drops a column definition. Callers check that no card occupies
// it first; the registry only guards the config-side rules.
func (r *Registry) RemoveColumn(boardID, columnID string) (core.Column, core.BoardConfig, error) {
	if columnID == core.DeletedStatus {
		return core.Column{}, core.BoardConfig{}, core.Invalid(core.ErrReservedColumn, "%q", columnID)
	}
	var col core.Column
	var out core.BoardConfig
	err := r.update(func(cfg *core.Config) error {
		b, ok := cfg.Boards[boardID]
		if !ok {
			return core.NotFound(core.KindBoard, boardID)
		}
		i := b.ColumnIndex(columnID)
		if i < 0 {
			return core.NotFound(core.KindColumn, columnID)
		}
		if b.DefaultStatus == columnID {
			return core.Invalid(core.ErrDefaultColumn, "%q", columnID)
		}
		col = b.Columns[i]
		b.Columns = append(b.Columns[:i], b.Columns[i+1:]...)
		if b.FinalStatus == columnID {
			b.FinalStatus = ""
		}
		out = copyBoard(b)
		return nil
	})
	return col, out, err
}

// ReorderColumns rearranges a board's columns. ids must be a permutation of
// the existing column ids.
func (r *Registry) ReorderColumns(boardID string, ids []string) (core.BoardConfig, error) {
	var out core.BoardConfig
	err := r.update(func(cfg *core.Config) error {
		b, ok := cfg.Boards[boardID]
		if !ok {
			return core.NotFound(core.KindBoard, boardID)
		}
		if len(ids) != len(b.Columns) {
			return core.Invalid(core.ErrIncompleteReorder, "got %d ids for %d columns", len(ids), len(b.Columns))
		}
		seen := make(map[string]bool, len(ids))
		reordered := make([]core.Column, 0, len(ids))
		for _, id := range ids {
			i := b.ColumnIndex(id)
			if i < 0 {
				return core.Invalid(core.ErrIncompleteReorder, "unknown column %q", id)
			}
			if seen[id] {
				return core.Invalid(core.ErrIncompleteReorder, "column %q listed twice", id)
			}
			seen[id] = true
			reordered = append(reordered, b.Columns[i])
		}
		b.Columns = reordered
		out = copyBoard(b)
		return nil
	})
	return out, err
}

func validateColumns(cols []core.Column) error {
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		if c.ID == core.DeletedStatus {
			return core.Invalid(core.ErrReservedColumn, "%q", c.ID)
		}
		if !identifier.MatchString(c.ID) {
			return core.Invalid(core.ErrInvalidID, "column id %q", c.ID)
		}
		if seen[c.ID] {
			return core.Invalid(core.ErrDuplicateColumn, "%q", c.ID)
		}
		seen[c.ID] = true
	}
	return nil
}

func copyBoard(b *core.BoardConfig) core.BoardConfig {
	out := *b
	out.Columns = append([]core.Column{}, b.Columns...)
	return out
}
