// ABOUTME: Card mutations: create, update, move, soft delete and permanent delete.
// ABOUTME: Status changes keep completedAt, the file's folder and the order key consistent.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/2389-research/kanbanfs/board/codec"
	"github.com/2389-research/kanbanfs/board/core"
	"github.com/2389-research/kanbanfs/board/order"
)

// CardInput holds the fields of a new card. Empty Status and Priority take
// the board defaults.
type CardInput struct {
	Content  string         `json:"content"`
	Status   string         `json:"status,omitempty"`
	Priority core.Priority  `json:"priority,omitempty"`
	Assignee *string        `json:"assignee,omitempty"`
	DueDate  *string        `json:"dueDate,omitempty"`
	Labels   []string       `json:"labels,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Actions  []string       `json:"actions,omitempty"`
}

// CardUpdate merges into an existing card. Absent fields are left alone;
// an explicit null clears an optional field.
type CardUpdate struct {
	Content  *string                            `json:"content,omitempty"`
	Status   *string                            `json:"status,omitempty"`
	Priority *core.Priority                     `json:"priority,omitempty"`
	Assignee core.OptionalField[string]         `json:"assignee"`
	DueDate  core.OptionalField[string]         `json:"dueDate"`
	Labels   *[]string                          `json:"labels,omitempty"`
	Metadata core.OptionalField[map[string]any] `json:"metadata"`
	Actions  *[]string                          `json:"actions,omitempty"`
}

// CreateCard adds a card at the end of its column.
func (r *Repository) CreateCard(boardID string, in CardInput) (core.Card, error) {
	boardID, board, cards, err := r.load(boardID)
	if err != nil {
		return core.Card{}, err
	}
	status := in.Status
	if status == "" {
		status = board.DefaultStatus
	}
	if !board.HasColumn(status) {
		return core.Card{}, core.Invalid(core.ErrUnknownColumn, "%q", status)
	}
	priority := in.Priority
	if priority == "" {
		priority = board.DefaultPriority
	}
	if !priority.Valid() {
		return core.Card{}, core.Invalid(core.ErrInvalidPriority, "%q", priority)
	}

	key, err := r.appendKey(cards, status, "")
	if err != nil {
		return core.Card{}, err
	}
	n, err := r.reg.AllocateCardID(boardID)
	if err != nil {
		return core.Card{}, fmt.Errorf("allocate card id: %w", err)
	}
	id := fmt.Sprintf("%d", n)
	now := r.timestamp()
	card := &core.Card{
		Version:     core.CardFormatVersion,
		ID:          id,
		BoardID:     boardID,
		Status:      status,
		Priority:    priority,
		Assignee:    in.Assignee,
		DueDate:     in.DueDate,
		Created:     now,
		Modified:    now,
		Labels:      core.DedupeLabels(in.Labels),
		Attachments: []string{},
		Comments:    []core.Comment{},
		Order:       key,
		Content:     in.Content,
		Metadata:    in.Metadata,
		Actions:     in.Actions,
	}
	if status == board.Final() {
		card.CompletedAt = &now
	}

	dir, err := r.ws.StatusDir(boardID, status)
	if err != nil {
		return core.Card{}, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return core.Card{}, fmt.Errorf("create status dir: %w", err)
	}
	card.FilePath = uniquePath(dir, codec.FileName(id, card.Title()))
	if err := writeCard(card); err != nil {
		return core.Card{}, err
	}

	r.publish(core.EventTaskCreated, boardID, core.CardEventData{Card: card.Snapshot()})
	return *card, nil
}

// UpdateCard merges u into the card. A status change appends the card to its
// new column; a title change renames the file.
func (r *Repository) UpdateCard(boardID, id string, u CardUpdate) (core.Card, error) {
	boardID, board, cards, err := r.load(boardID)
	if err != nil {
		return core.Card{}, err
	}
	card, err := findCard(cards, id)
	if err != nil {
		return core.Card{}, err
	}
	oldStatus := card.Status
	oldTitle := card.Title()

	if u.Status != nil && *u.Status != card.Status {
		if !board.HasColumn(*u.Status) {
			return core.Card{}, core.Invalid(core.ErrUnknownColumn, "%q", *u.Status)
		}
		key, err := r.appendKey(cards, *u.Status, card.ID)
		if err != nil {
			return core.Card{}, err
		}
		card.Status = *u.Status
		card.Order = key
	}
	if u.Priority != nil {
		if !u.Priority.Valid() {
			return core.Card{}, core.Invalid(core.ErrInvalidPriority, "%q", *u.Priority)
		}
		card.Priority = *u.Priority
	}
	if u.Content != nil {
		card.Content = *u.Content
	}
	if u.Assignee.Set {
		card.Assignee = u.Assignee.Ptr()
	}
	if u.DueDate.Set {
		card.DueDate = u.DueDate.Ptr()
	}
	if u.Labels != nil {
		card.Labels = core.DedupeLabels(*u.Labels)
	}
	if u.Metadata.Set {
		card.Metadata = nil
		if u.Metadata.Valid && len(u.Metadata.Value) > 0 {
			card.Metadata = u.Metadata.Value
		}
	}
	if u.Actions != nil {
		card.Actions = nil
		if len(*u.Actions) > 0 {
			card.Actions = append([]string{}, (*u.Actions)...)
		}
	}

	now := r.timestamp()
	card.Modified = now
	r.applyCompletion(card, &board, oldStatus, now)

	name := filepath.Base(card.FilePath)
	if title := card.Title(); title != oldTitle {
		name = codec.FileName(card.ID, title)
	}
	if err := r.persist(boardID, card, name); err != nil {
		return core.Card{}, err
	}

	r.publish(core.EventTaskUpdated, boardID, core.CardEventData{Card: card.Snapshot()})
	return *card, nil
}

// MoveCard puts a card into status at a zero-based position among the other
// cards of that column. A negative position or one past the end appends.
func (r *Repository) MoveCard(boardID, id, status string, position int) (core.Card, error) {
	boardID, board, cards, err := r.load(boardID)
	if err != nil {
		return core.Card{}, err
	}
	card, err := findCard(cards, id)
	if err != nil {
		return core.Card{}, err
	}
	if status == "" {
		status = card.Status
	}
	if !board.HasColumn(status) {
		return core.Card{}, core.Invalid(core.ErrUnknownColumn, "%q", status)
	}

	key, err := r.insertKey(cards, status, card.ID, position)
	if err != nil {
		return core.Card{}, err
	}
	oldStatus := card.Status
	card.Status = status
	card.Order = key
	now := r.timestamp()
	card.Modified = now
	r.applyCompletion(card, &board, oldStatus, now)

	if err := r.persist(boardID, card, filepath.Base(card.FilePath)); err != nil {
		return core.Card{}, err
	}

	r.publish(core.EventTaskMoved, boardID, core.CardEventData{Card: card.Snapshot(), PreviousStatus: oldStatus})
	return *card, nil
}

// DeleteCard soft-deletes a card: its status becomes "deleted" and the file
// moves to the deleted folder.
func (r *Repository) DeleteCard(boardID, id string) (core.Card, error) {
	boardID, board, cards, err := r.load(boardID)
	if err != nil {
		return core.Card{}, err
	}
	card, err := findCard(cards, id)
	if err != nil {
		return core.Card{}, err
	}
	oldStatus := card.Status
	if card.Status != core.DeletedStatus {
		key, err := r.appendKey(cards, core.DeletedStatus, card.ID)
		if err != nil {
			return core.Card{}, err
		}
		card.Status = core.DeletedStatus
		card.Order = key
	}
	now := r.timestamp()
	card.Modified = now
	r.applyCompletion(card, &board, oldStatus, now)
	if err := r.persist(boardID, card, filepath.Base(card.FilePath)); err != nil {
		return core.Card{}, err
	}

	r.publish(core.EventTaskDeleted, boardID, core.CardEventData{Card: card.Snapshot(), PreviousStatus: oldStatus})
	return *card, nil
}

// PurgeCard permanently removes a card file and the attachments stored next
// to it.
func (r *Repository) PurgeCard(boardID, id string) (core.Card, error) {
	boardID, _, cards, err := r.load(boardID)
	if err != nil {
		return core.Card{}, err
	}
	card, err := findCard(cards, id)
	if err != nil {
		return core.Card{}, err
	}
	if err := os.Remove(card.FilePath); err != nil {
		return core.Card{}, fmt.Errorf("remove card %s: %w", card.ID, err)
	}
	dir := filepath.Dir(card.FilePath)
	for _, a := range card.Attachments {
		_ = os.Remove(filepath.Join(dir, a))
	}

	r.publish(core.EventTaskDeleted, boardID, core.CardEventData{Card: card.Snapshot()})
	return *card, nil
}

// applyCompletion sets completedAt when a card enters the final column and
// clears it when it leaves.
func (r *Repository) applyCompletion(card *core.Card, board *core.BoardConfig, oldStatus, now string) {
	final := board.Final()
	switch {
	case card.Status == final && (oldStatus != final || card.CompletedAt == nil):
		card.CompletedAt = &now
	case card.Status != final:
		card.CompletedAt = nil
	}
}

// persist writes the card at its current path, then moves it into its status
// folder under name. A crash between the two steps is repaired by the next
// reconcile.
func (r *Repository) persist(boardID string, card *core.Card, name string) error {
	if err := writeCard(card); err != nil {
		return err
	}
	dir, err := r.ws.StatusDir(boardID, card.Status)
	if err != nil {
		return err
	}
	rewrite, err := placeCard(card, dir, name)
	if err != nil {
		return err
	}
	if rewrite {
		return writeCard(card)
	}
	return nil
}

// appendKey returns a key after every card in status, skipping card skip.
func (r *Repository) appendKey(cards []*core.Card, status, skip string) (string, error) {
	return r.insertKey(cards, status, skip, -1)
}

// insertKey returns a key for position among the cards in status, skipping
// card skip. Duplicate keys left by external edits get the column rekeyed
// before retrying.
func (r *Repository) insertKey(cards []*core.Card, status, skip string, position int) (string, error) {
	col := columnCards(cards, status, skip)
	key, err := keyAt(col, position)
	if err == nil {
		return key, nil
	}
	keys, kerr := order.KeysBetween("", "", len(col))
	if kerr != nil {
		return "", fmt.Errorf("rekey column %s: %w", status, kerr)
	}
	for i, c := range col {
		c.Order = keys[i]
		if werr := writeCard(c); werr != nil {
			return "", werr
		}
	}
	return keyAt(col, position)
}

func keyAt(col []*core.Card, position int) (string, error) {
	if position < 0 || position > len(col) {
		position = len(col)
	}
	before, after := "", ""
	if position > 0 {
		before = col[position-1].Order
	}
	if position < len(col) {
		after = col[position].Order
	}
	return order.KeyBetween(before, after)
}
