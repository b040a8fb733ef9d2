// ABOUTME: Card and Comment are the records persisted one-file-per-card under a board's status folders.
// ABOUTME: Timestamps stay ISO-8601 strings so a round trip through the file never reformats them.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CardFormatVersion is written as the first header field of every card file.
const CardFormatVersion = 1

// DeletedStatus is the reserved status of soft-deleted cards. It is never a column.
const DeletedStatus = "deleted"

// Priority is the urgency of a card.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Valid reports whether p is one of the four known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Card is a single work item. FilePath is where the card was loaded from and
// never leaves the store boundary.
type Card struct {
	Version     int            `json:"version"`
	ID          string         `json:"id"`
	BoardID     string         `json:"boardId"`
	Status      string         `json:"status"`
	Priority    Priority       `json:"priority"`
	Assignee    *string        `json:"assignee"`
	DueDate     *string        `json:"dueDate"`
	Created     string         `json:"created"`
	Modified    string         `json:"modified"`
	CompletedAt *string        `json:"completedAt"`
	Labels      []string       `json:"labels"`
	Attachments []string       `json:"attachments"`
	Comments    []Comment      `json:"comments"`
	Order       string         `json:"order"`
	Content     string         `json:"content"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Actions     []string       `json:"actions,omitempty"`
	FilePath    string         `json:"-"`
}

// Comment is one entry of a card's discussion thread.
type Comment struct {
	ID      string `json:"id"`
	Author  string `json:"author"`
	Created string `json:"created"`
	Content string `json:"content"`
}

// NumericID returns the card id as an integer, or false for legacy
// non-numeric ids.
func (c *Card) NumericID() (int, bool) {
	n, err := strconv.Atoi(c.ID)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Title returns the display title derived from the card body.
func (c *Card) Title() string {
	return Title(c.Content)
}

// Snapshot returns a deep copy of the card that is safe to hand to event
// consumers: the file path is cleared and slices are not shared.
func (c *Card) Snapshot() Card {
	out := *c
	out.FilePath = ""
	out.Labels = append([]string{}, c.Labels...)
	out.Attachments = append([]string{}, c.Attachments...)
	out.Comments = append([]Comment{}, c.Comments...)
	if c.Actions != nil {
		out.Actions = append([]string{}, c.Actions...)
	}
	if c.Metadata != nil {
		out.Metadata = cloneMap(c.Metadata)
	}
	return out
}

// HasLabel reports whether the card carries the given label.
func (c *Card) HasLabel(label string) bool {
	for _, l := range c.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// NextCommentID returns the id for a new comment: one past the highest
// numeric suffix in use. Gaps left by deleted comments are not refilled.
func (c *Card) NextCommentID() string {
	highest := 0
	for _, cm := range c.Comments {
		n, err := strconv.Atoi(strings.TrimPrefix(cm.ID, "c"))
		if err == nil && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("c%d", highest+1)
}

// CommentIndex returns the position of the comment with the given id, or -1.
func (c *Card) CommentIndex(id string) int {
	for i, cm := range c.Comments {
		if cm.ID == id {
			return i
		}
	}
	return -1
}

// Timestamp formats t the way card headers store it.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// DedupeLabels removes duplicates while keeping first-seen order.
func DedupeLabels(labels []string) []string {
	seen := make(map[string]bool, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
