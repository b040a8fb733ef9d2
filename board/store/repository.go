// ABOUTME: Repository is the card store facade: queries and mutations over one workspace's boards.
// ABOUTME: Reads reconcile the board first; each successful mutation emits exactly one event.
package store

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/2389-research/kanbanfs/board/core"
	"github.com/2389-research/kanbanfs/board/registry"
)

// Repository stores cards as files. Calls are expected to be sequential; the
// repository holds no locks.
type Repository struct {
	ws   *Workspace
	reg  *registry.Registry
	rec  *Reconciler
	emit Emitter
	now  func() time.Time
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// New returns a Repository over ws. A nil emitter discards events.
func New(ws *Workspace, emitter Emitter, opts ...Option) *Repository {
	if emitter == nil {
		emitter = Discard
	}
	r := &Repository{
		ws:   ws,
		reg:  ws.Registry(),
		rec:  NewReconciler(ws),
		emit: emitter,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Workspace returns the workspace the repository writes to.
func (r *Repository) Workspace() *Workspace {
	return r.ws
}

// SortOrder selects how ListCards orders its result.
type SortOrder string

const (
	// SortColumn orders by column position, then order key.
	SortColumn   SortOrder = ""
	SortCreated  SortOrder = "created"
	SortModified SortOrder = "modified"
)

// Filter narrows ListCards. Zero value lists every live card.
type Filter struct {
	// Statuses keeps only cards in these statuses. Naming "deleted" here
	// includes deleted cards.
	Statuses []string
	// Metadata keeps cards whose metadata value at each dotted path contains
	// the given text, case-insensitively.
	Metadata map[string]string
	// IncludeDeleted also lists soft-deleted cards.
	IncludeDeleted bool
	Sort           SortOrder
	Descending     bool
}

// ListCards reconciles the board and returns its cards.
func (r *Repository) ListCards(boardID string, f Filter) ([]core.Card, error) {
	_, board, cards, err := r.load(boardID)
	if err != nil {
		return nil, err
	}

	statuses := map[string]bool{}
	for _, s := range f.Statuses {
		statuses[s] = true
	}
	var out []*core.Card
	for _, c := range cards {
		if len(statuses) > 0 && !statuses[c.Status] {
			continue
		}
		if c.Status == core.DeletedStatus && !f.IncludeDeleted && !statuses[core.DeletedStatus] {
			continue
		}
		if !matchMetadata(c.Metadata, f.Metadata) {
			continue
		}
		out = append(out, c)
	}

	sortCards(out, &board, f.Sort, f.Descending)
	result := make([]core.Card, len(out))
	for i, c := range out {
		result[i] = *c
	}
	return result, nil
}

// GetCard returns the card with the given id, or failing that the first card
// whose id contains it.
func (r *Repository) GetCard(boardID, id string) (core.Card, error) {
	_, _, cards, err := r.load(boardID)
	if err != nil {
		return core.Card{}, err
	}
	c, err := findCard(cards, id)
	if err != nil {
		return core.Card{}, err
	}
	return *c, nil
}

// load resolves the board id and reconciles the board.
func (r *Repository) load(boardID string) (string, core.BoardConfig, []*core.Card, error) {
	boardID, err := r.reg.ResolveBoardID(boardID)
	if err != nil {
		return "", core.BoardConfig{}, nil, err
	}
	board, err := r.reg.Board(boardID)
	if err != nil {
		return "", core.BoardConfig{}, nil, err
	}
	cards, err := r.rec.Reconcile(boardID)
	if err != nil {
		return "", core.BoardConfig{}, nil, fmt.Errorf("reconcile board %s: %w", boardID, err)
	}
	sortCards(cards, &board, SortColumn, false)
	return boardID, board, cards, nil
}

func findCard(cards []*core.Card, id string) (*core.Card, error) {
	if id == "" {
		return nil, core.NotFound(core.KindCard, id)
	}
	for _, c := range cards {
		if c.ID == id {
			return c, nil
		}
	}
	for _, c := range cards {
		if strings.Contains(c.ID, id) {
			return c, nil
		}
	}
	return nil, core.NotFound(core.KindCard, id)
}

// columnCards returns the cards in status sorted by order key, skipping
// the card with id skip.
func columnCards(cards []*core.Card, status, skip string) []*core.Card {
	var out []*core.Card
	for _, c := range cards {
		if c.Status == status && c.ID != skip {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return idLess(out[i], out[j])
	})
	return out
}

func sortCards(cards []*core.Card, board *core.BoardConfig, by SortOrder, desc bool) {
	rank := func(status string) int {
		if status == core.DeletedStatus {
			return len(board.Columns) + 1
		}
		if i := board.ColumnIndex(status); i >= 0 {
			return i
		}
		return len(board.Columns)
	}
	less := func(a, b *core.Card) bool {
		switch by {
		case SortCreated:
			if a.Created != b.Created {
				return a.Created < b.Created
			}
		case SortModified:
			if a.Modified != b.Modified {
				return a.Modified < b.Modified
			}
		default:
			if ra, rb := rank(a.Status), rank(b.Status); ra != rb {
				return ra < rb
			}
			if a.Status != b.Status {
				return a.Status < b.Status
			}
			if a.Order != b.Order {
				return a.Order < b.Order
			}
		}
		return idLess(a, b)
	}
	sort.SliceStable(cards, func(i, j int) bool {
		if desc {
			return less(cards[j], cards[i])
		}
		return less(cards[i], cards[j])
	})
}

// matchMetadata reports whether every filter path resolves to a value whose
// text contains the wanted substring, ignoring case.
func matchMetadata(md map[string]any, filter map[string]string) bool {
	for path, want := range filter {
		v, ok := lookupPath(md, path)
		if !ok {
			return false
		}
		if !strings.Contains(strings.ToLower(fmt.Sprint(v)), strings.ToLower(want)) {
			return false
		}
	}
	return true
}

func lookupPath(md map[string]any, path string) (any, bool) {
	if md == nil {
		return nil, false
	}
	if v, ok := md[path]; ok {
		return v, true
	}
	head, rest, found := strings.Cut(path, ".")
	if !found {
		return nil, false
	}
	child, ok := md[head].(map[string]any)
	if !ok {
		return nil, false
	}
	return lookupPath(child, rest)
}

func (r *Repository) timestamp() string {
	return core.Timestamp(r.now())
}

func (r *Repository) publish(eventType, boardID string, data any) {
	r.emit.Emit(core.NewEvent(eventType, boardID, data))
}
