// ABOUTME: Typed errors returned by the store: not-found lookups and constraint violations.
// ABOUTME: Callers match them with errors.Is against ErrNotFound, ErrValidation or a specific sentinel.
package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound matches every *NotFoundError.
	ErrNotFound = errors.New("not found")

	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("validation failed")

	ErrDuplicateColumn   = errors.New("column id already exists")
	ErrReservedColumn    = errors.New("column id is reserved")
	ErrColumnNotEmpty    = errors.New("column still contains cards")
	ErrDefaultColumn     = errors.New("column is the board's default status")
	ErrDefaultBoard      = errors.New("cannot delete the default board")
	ErrBoardNotEmpty     = errors.New("board still contains cards")
	ErrDuplicateBoard    = errors.New("board id already exists")
	ErrIncompleteReorder = errors.New("reorder must list every column exactly once")
	ErrEmptyComment      = errors.New("comment body is empty")
	ErrInvalidPriority   = errors.New("invalid priority")
	ErrUnknownColumn     = errors.New("status does not name a column")
	ErrInvalidWebhook    = errors.New("invalid webhook")
	ErrInvalidID         = errors.New("invalid id")
)

// Kinds of entity reported by NotFoundError.
const (
	KindCard       = "card"
	KindColumn     = "column"
	KindComment    = "comment"
	KindBoard      = "board"
	KindWebhook    = "webhook"
	KindAttachment = "attachment"
	KindLabel      = "label"
)

// NotFoundError indicates the referenced entity doesn't exist.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// Is makes errors.Is(err, ErrNotFound) succeed.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NotFound builds a *NotFoundError.
func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// ValidationError reports a violated constraint. Err is one of the specific
// sentinels above.
type ValidationError struct {
	Err    error
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Err, e.Detail)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrValidation) succeed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a *ValidationError around a sentinel.
func Invalid(sentinel error, format string, args ...any) error {
	return &ValidationError{Err: sentinel, Detail: fmt.Sprintf(format, args...)}
}
