// ABOUTME: Comment operations on a card's discussion thread.
// ABOUTME: Comment ids are c<N> with N one past the highest in use, so deleted ids are never reused.
package store

import (
	"strings"

	"github.com/2389-research/kanbanfs/board/core"
)

// AddComment appends a comment to a card.
func (r *Repository) AddComment(boardID, cardID, author, content string) (core.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return core.Comment{}, core.Invalid(core.ErrEmptyComment, "card %s", cardID)
	}
	boardID, _, cards, err := r.load(boardID)
	if err != nil {
		return core.Comment{}, err
	}
	card, err := findCard(cards, cardID)
	if err != nil {
		return core.Comment{}, err
	}
	now := r.timestamp()
	c := core.Comment{
		ID:      card.NextCommentID(),
		Author:  author,
		Created: now,
		Content: content,
	}
	card.Comments = append(card.Comments, c)
	card.Modified = now
	if err := writeCard(card); err != nil {
		return core.Comment{}, err
	}

	r.publish(core.EventCommentCreated, boardID, core.CommentEventData{CardID: card.ID, Comment: c})
	return c, nil
}

// UpdateComment replaces a comment's text.
func (r *Repository) UpdateComment(boardID, cardID, commentID, content string) (core.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return core.Comment{}, core.Invalid(core.ErrEmptyComment, "comment %s", commentID)
	}
	boardID, _, cards, err := r.load(boardID)
	if err != nil {
		return core.Comment{}, err
	}
	card, err := findCard(cards, cardID)
	if err != nil {
		return core.Comment{}, err
	}
	i := card.CommentIndex(commentID)
	if i < 0 {
		return core.Comment{}, core.NotFound(core.KindComment, commentID)
	}
	card.Comments[i].Content = content
	card.Modified = r.timestamp()
	if err := writeCard(card); err != nil {
		return core.Comment{}, err
	}

	c := card.Comments[i]
	r.publish(core.EventCommentUpdated, boardID, core.CommentEventData{CardID: card.ID, Comment: c})
	return c, nil
}

// DeleteComment removes a comment from a card.
func (r *Repository) DeleteComment(boardID, cardID, commentID string) (core.Comment, error) {
	boardID, _, cards, err := r.load(boardID)
	if err != nil {
		return core.Comment{}, err
	}
	card, err := findCard(cards, cardID)
	if err != nil {
		return core.Comment{}, err
	}
	i := card.CommentIndex(commentID)
	if i < 0 {
		return core.Comment{}, core.NotFound(core.KindComment, commentID)
	}
	c := card.Comments[i]
	card.Comments = append(card.Comments[:i], card.Comments[i+1:]...)
	card.Modified = r.timestamp()
	if err := writeCard(card); err != nil {
		return core.Comment{}, err
	}

	r.publish(core.EventCommentDeleted, boardID, core.CommentEventData{CardID: card.ID, Comment: c})
	return c, nil
}
