// ABOUTME: Event is the envelope emitted after every successful store mutation.
// ABOUTME: Data carries a sanitized snapshot of the affected entity; file paths never appear in it.
package core

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Event names emitted by the store.
const (
	EventTaskCreated       = "task.created"
	EventTaskUpdated       = "task.updated"
	EventTaskMoved         = "task.moved"
	EventTaskDeleted       = "task.deleted"
	EventCommentCreated    = "comment.created"
	EventCommentUpdated    = "comment.updated"
	EventCommentDeleted    = "comment.deleted"
	EventColumnCreated     = "column.created"
	EventColumnUpdated     = "column.updated"
	EventColumnDeleted     = "column.deleted"
	EventAttachmentAdded   = "attachment.added"
	EventAttachmentRemoved = "attachment.removed"
	EventBoardCreated      = "board.created"
	EventBoardUpdated      = "board.updated"
	EventBoardDeleted      = "board.deleted"
	EventSettingsUpdated   = "settings.updated"
)

// EventNames lists the full taxonomy, used to validate webhook subscriptions.
var EventNames = []string{
	EventTaskCreated, EventTaskUpdated, EventTaskMoved, EventTaskDeleted,
	EventCommentCreated, EventCommentUpdated, EventCommentDeleted,
	EventColumnCreated, EventColumnUpdated, EventColumnDeleted,
	EventAttachmentAdded, EventAttachmentRemoved,
	EventBoardCreated, EventBoardUpdated, EventBoardDeleted,
	EventSettingsUpdated,
}

// KnownEvent reports whether name is part of the taxonomy or the wildcard.
func KnownEvent(name string) bool {
	if name == WildcardEvent {
		return true
	}
	for _, n := range EventNames {
		if n == name {
			return true
		}
	}
	return false
}

// Event is the immutable envelope for a store mutation.
type Event struct {
	ID        ulid.ULID `json:"id"`
	Type      string    `json:"event"`
	BoardID   string    `json:"boardId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// NewEvent stamps a new event with a fresh ULID and the current time.
func NewEvent(eventType, boardID string, data any) Event {
	return Event{
		ID:        NewULID(),
		Type:      eventType,
		BoardID:   boardID,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// CardEventData is the payload of task.* events.
type CardEventData struct {
	Card Card `json:"card"`
	// PreviousStatus is set on task.moved and task.deleted.
	PreviousStatus string `json:"previousStatus,omitempty"`
}

// CommentEventData is the payload of comment.* events.
type CommentEventData struct {
	CardID  string  `json:"cardId"`
	Comment Comment `json:"comment"`
}

// AttachmentEventData is the payload of attachment.* events.
type AttachmentEventData struct {
	CardID     string `json:"cardId"`
	Attachment string `json:"attachment"`
}

// ColumnEventData is the payload of column.* events.
// Column is nil for a reorder, which touches every column.
type ColumnEventData struct {
	Column  *Column  `json:"column,omitempty"`
	Columns []Column `json:"columns"`
}

// BoardEventData is the payload of board.* events.
type BoardEventData struct {
	ID    string      `json:"id"`
	Board BoardConfig `json:"board"`
}

// SettingsEventData is the payload of settings.updated.
type SettingsEventData struct {
	DisplaySettings DisplaySettings            `json:"displaySettings"`
	Labels          map[string]LabelDefinition `json:"labels"`
}
