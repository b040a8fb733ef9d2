// ABOUTME: Attachment operations: copy a file next to its card, or detach it from the card.
// ABOUTME: Detaching never deletes the file; attachments follow the card between status folders.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/2389-research/kanbanfs/board/core"
)

// AddAttachment copies src into the card's folder and records it on the card.
// A name already taken in that folder gets a numeric suffix.
func (r *Repository) AddAttachment(boardID, cardID, src string) (core.Card, string, error) {
	boardID, _, cards, err := r.load(boardID)
	if err != nil {
		return core.Card{}, "", err
	}
	card, err := findCard(cards, cardID)
	if err != nil {
		return core.Card{}, "", err
	}
	info, err := os.Stat(src)
	if err != nil {
		return core.Card{}, "", core.NotFound(core.KindAttachment, src)
	}
	if info.IsDir() {
		return core.Card{}, "", core.Invalid(core.ErrValidation, "attachment %s is a directory", src)
	}

	dst := uniquePath(filepath.Dir(card.FilePath), filepath.Base(src))
	if err := copyFile(src, dst); err != nil {
		return core.Card{}, "", fmt.Errorf("copy attachment: %w", err)
	}
	name := filepath.Base(dst)
	card.Attachments = append(card.Attachments, name)
	card.Modified = r.timestamp()
	if err := writeCard(card); err != nil {
		return core.Card{}, "", err
	}

	r.publish(core.EventAttachmentAdded, boardID, core.AttachmentEventData{CardID: card.ID, Attachment: name})
	return *card, name, nil
}

// RemoveAttachment detaches name from the card. The file stays on disk.
func (r *Repository) RemoveAttachment(boardID, cardID, name string) (core.Card, error) {
	boardID, _, cards, err := r.load(boardID)
	if err != nil {
		return core.Card{}, err
	}
	card, err := findCard(cards, cardID)
	if err != nil {
		return core.Card{}, err
	}
	i := -1
	for j, a := range card.Attachments {
		if a == name {
			i = j
			break
		}
	}
	if i < 0 {
		return core.Card{}, core.NotFound(core.KindAttachment, name)
	}
	card.Attachments = append(card.Attachments[:i], card.Attachments[i+1:]...)
	card.Modified = r.timestamp()
	if err := writeCard(card); err != nil {
		return core.Card{}, err
	}

	r.publish(core.EventAttachmentRemoved, boardID, core.AttachmentEventData{CardID: card.ID, Attachment: name})
	return *card, nil
}

// AttachmentPath returns where an attachment of the card is stored.
func (r *Repository) AttachmentPath(boardID, cardID, name string) (string, error) {
	card, err := r.GetCard(boardID, cardID)
	if err != nil {
		return "", err
	}
	for _, a := range card.Attachments {
		if a == name {
			return filepath.Join(filepath.Dir(card.FilePath), a), nil
		}
	}
	return "", core.NotFound(core.KindAttachment, name)
}
