// ABOUTME: Board, label and display-settings operations that span the registry and the card files.
// ABOUTME: Renaming a label rewrites every card on every board that carries it.
package store

import (
	"log"

	"github.com/2389-research/kanbanfs/board/core"
	"github.com/2389-research/kanbanfs/board/registry"
)

// CreateBoard adds a board definition.
func (r *Repository) CreateBoard(id string, b core.BoardConfig) (core.BoardConfig, error) {
	created, err := r.reg.CreateBoard(id, b)
	if err != nil {
		return core.BoardConfig{}, err
	}
	r.publish(core.EventBoardCreated, id, core.BoardEventData{ID: id, Board: created})
	return created, nil
}

// UpdateBoard changes board-level fields.
func (r *Repository) UpdateBoard(id string, u registry.BoardUpdate) (core.BoardConfig, error) {
	updated, err := r.reg.UpdateBoard(id, u)
	if err != nil {
		return core.BoardConfig{}, err
	}
	r.publish(core.EventBoardUpdated, id, core.BoardEventData{ID: id, Board: updated})
	return updated, nil
}

// DeleteBoard removes a board that holds no cards, deleted ones included.
// The default board cannot be deleted.
func (r *Repository) DeleteBoard(id string) (core.BoardConfig, error) {
	cfg, err := r.reg.Config()
	if err != nil {
		return core.BoardConfig{}, err
	}
	if _, ok := cfg.Boards[id]; !ok {
		return core.BoardConfig{}, core.NotFound(core.KindBoard, id)
	}
	if id == cfg.DefaultBoard {
		return core.BoardConfig{}, core.Invalid(core.ErrDefaultBoard, "%q", id)
	}
	cards, err := r.rec.Reconcile(id)
	if err != nil {
		return core.BoardConfig{}, err
	}
	if len(cards) > 0 {
		return core.BoardConfig{}, core.Invalid(core.ErrBoardNotEmpty, "%q holds %d cards", id, len(cards))
	}
	deleted, err := r.reg.DeleteBoard(id)
	if err != nil {
		return core.BoardConfig{}, err
	}
	r.ws.RemoveBoardDir(id)
	r.publish(core.EventBoardDeleted, id, core.BoardEventData{ID: id, Board: deleted})
	return deleted, nil
}

// SetLabel creates or replaces a label definition.
func (r *Repository) SetLabel(name string, def core.LabelDefinition) error {
	if err := r.reg.SetLabel(name, def); err != nil {
		return err
	}
	return r.publishSettings()
}

// DeleteLabel removes a label definition. Cards keep the label.
func (r *Repository) DeleteLabel(name string) error {
	if err := r.reg.DeleteLabel(name); err != nil {
		return err
	}
	return r.publishSettings()
}

// RenameLabel renames a label definition and the label on every card that
// carries it. It returns how many cards were rewritten.
func (r *Repository) RenameLabel(oldName, newName string) (int, error) {
	if err := r.reg.RenameLabel(oldName, newName); err != nil {
		return 0, err
	}
	ids, err := r.reg.BoardIDs()
	if err != nil {
		return 0, err
	}
	now := r.timestamp()
	rewritten := 0
	for _, boardID := range ids {
		cards, err := r.rec.Reconcile(boardID)
		if err != nil {
			return rewritten, err
		}
		for _, c := range cards {
			if !c.HasLabel(oldName) {
				continue
			}
			for i, l := range c.Labels {
				if l == oldName {
					c.Labels[i] = newName
				}
			}
			c.Labels = core.DedupeLabels(c.Labels)
			c.Modified = now
			if err := writeCard(c); err != nil {
				log.Printf("component=board.store action=rename_label_write_failed board=%s card=%s err=%v", boardID, c.ID, err)
				continue
			}
			rewritten++
		}
	}
	return rewritten, r.publishSettings()
}

// UpdateSettings replaces the display settings.
func (r *Repository) UpdateSettings(s core.DisplaySettings) error {
	if err := r.reg.UpdateSettings(s); err != nil {
		return err
	}
	return r.publishSettings()
}

func (r *Repository) publishSettings() error {
	cfg, err := r.reg.Config()
	if err != nil {
		return err
	}
	r.publish(core.EventSettingsUpdated, "", core.SettingsEventData{
		DisplaySettings: cfg.DisplaySettings,
		Labels:          cfg.Labels,
	})
	return nil
}
