// ABOUTME: Column operations on a board, delegated to the registry with occupancy checks against the files.
// ABOUTME: Every change emits a column.* event carrying the board's resulting column list.
package store

import (
	"os"

	"github.com/2389-research/kanbanfs/board/core"
	"github.com/2389-research/kanbanfs/board/registry"
)

// AddColumn appends a column to the board.
func (r *Repository) AddColumn(boardID string, col core.Column) (core.BoardConfig, error) {
	boardID, err := r.reg.ResolveBoardID(boardID)
	if err != nil {
		return core.BoardConfig{}, err
	}
	b, err := r.reg.AddColumn(boardID, col)
	if err != nil {
		return core.BoardConfig{}, err
	}
	added := b.Columns[len(b.Columns)-1]
	r.publish(core.EventColumnCreated, boardID, core.ColumnEventData{Column: &added, Columns: b.Columns})
	return b, nil
}

// UpdateColumn changes a column's name or color.
func (r *Repository) UpdateColumn(boardID, columnID string, u registry.ColumnUpdate) (core.BoardConfig, error) {
	boardID, err := r.reg.ResolveBoardID(boardID)
	if err != nil {
		return core.BoardConfig{}, err
	}
	col, b, err := r.reg.UpdateColumn(boardID, columnID, u)
	if err != nil {
		return core.BoardConfig{}, err
	}
	r.publish(core.EventColumnUpdated, boardID, core.ColumnEventData{Column: &col, Columns: b.Columns})
	return b, nil
}

// RemoveColumn deletes an empty column. Cards must be moved out first.
func (r *Repository) RemoveColumn(boardID, columnID string) (core.BoardConfig, error) {
	boardID, board, cards, err := r.load(boardID)
	if err != nil {
		return core.BoardConfig{}, err
	}
	if columnID == core.DeletedStatus {
		return core.BoardConfig{}, core.Invalid(core.ErrReservedColumn, "%q", columnID)
	}
	if !board.HasColumn(columnID) {
		return core.BoardConfig{}, core.NotFound(core.KindColumn, columnID)
	}
	if n := len(columnCards(cards, columnID, "")); n > 0 {
		return core.BoardConfig{}, core.Invalid(core.ErrColumnNotEmpty, "%q holds %d cards", columnID, n)
	}
	col, b, err := r.reg.RemoveColumn(boardID, columnID)
	if err != nil {
		return core.BoardConfig{}, err
	}
	if dir, err := r.ws.StatusDir(boardID, columnID); err == nil {
		_ = os.Remove(dir)
	}
	r.publish(core.EventColumnDeleted, boardID, core.ColumnEventData{Column: &col, Columns: b.Columns})
	return b, nil
}

// ReorderColumns rearranges the board's columns. ids must list every column
// exactly once.
func (r *Repository) ReorderColumns(boardID string, ids []string) (core.BoardConfig, error) {
	boardID, err := r.reg.ResolveBoardID(boardID)
	if err != nil {
		return core.BoardConfig{}, err
	}
	b, err := r.reg.ReorderColumns(boardID, ids)
	if err != nil {
		return core.BoardConfig{}, err
	}
	r.publish(core.EventColumnUpdated, boardID, core.ColumnEventData{Columns: b.Columns})
	return b, nil
}
