// ABOUTME: Reconciler heals a board's folder tree before every read: layout, folder/status drift, orders and IDs.
// ABOUTME: Each phase is idempotent; per-file failures are logged and retried on the next pass.
package store

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/2389-research/kanbanfs/board/codec"
	"github.com/2389-research/kanbanfs/board/core"
	"github.com/2389-research/kanbanfs/board/order"
)

// Reconciler runs the migration phases for boards in one workspace.
type Reconciler struct {
	ws *Workspace
}

// NewReconciler returns a Reconciler for ws.
func NewReconciler(ws *Workspace) *Reconciler {
	return &Reconciler{ws: ws}
}

// Reconcile brings a board's files in line with their headers and returns
// every card on the board, deleted ones included.
//
// Sequence:
//  1. Flatten card files sitting directly in the board folder into <status>/
//  2. Load every status folder
//  3. Move cards whose folder disagrees with their status
//  4. Rekey every column if any card still has a legacy integer order
//  5. Advance the board's ID counter past the highest ID on disk
func (r *Reconciler) Reconcile(boardID string) ([]*core.Card, error) {
	// Step 1: Flatten loose files
	if _, err := r.Flatten(boardID); err != nil {
		return nil, err
	}

	// Step 2: Load
	cards, err := r.Load(boardID)
	if err != nil {
		return nil, err
	}

	// Step 3: Folder/status drift
	r.ReconcileFolders(boardID, cards)

	// Step 4: Legacy orders
	r.MigrateOrder(cards)

	// Step 5: ID counter
	if _, err := r.SyncIDs(boardID, cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// Flatten moves card files found directly in the board folder into the
// folder of their status, or of the board's default status when the header
// names none. It returns how many files moved.
func (r *Reconciler) Flatten(boardID string) (int, error) {
	dir, err := r.ws.BoardDir(boardID)
	if err != nil {
		return 0, err
	}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read board dir: %w", err)
	}

	var defaultStatus string
	moved := 0
	for _, e := range entries {
		if e.IsDir() || !codec.IsCardFile(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		card, err := readCard(path)
		if err != nil {
			log.Printf("component=board.reconcile action=flatten_read_failed board=%s file=%s err=%v", boardID, e.Name(), err)
			continue
		}
		if card == nil {
			continue
		}
		status := card.Status
		filled := false
		if status == "" {
			if defaultStatus == "" {
				b, err := r.ws.reg.Board(boardID)
				if err != nil {
					return moved, err
				}
				defaultStatus = b.DefaultStatus
			}
			status = defaultStatus
			card.Status = status
			filled = true
		}
		if bad, ok := unsafeField(card); ok {
			log.Printf("component=board.reconcile action=flatten_unsafe_path board=%s file=%s value=%q", boardID, e.Name(), bad)
			continue
		}
		rewrite, err := placeCard(card, filepath.Join(dir, status), e.Name())
		if err != nil {
			log.Printf("component=board.reconcile action=flatten_move_failed board=%s file=%s err=%v", boardID, e.Name(), err)
			continue
		}
		if rewrite || filled {
			if err := writeCard(card); err != nil {
				log.Printf("component=board.reconcile action=flatten_write_failed board=%s card=%s err=%v", boardID, card.ID, err)
			}
		}
		moved++
	}
	if moved > 0 {
		log.Printf("component=board.reconcile action=flattened board=%s files=%d", boardID, moved)
	}
	return moved, nil
}

// Load decodes every card file in the board's status folders. Files without
// a header block are skipped, as are cards whose status or attachment names
// would leave their board folder. A card without a status takes its folder name.
func (r *Reconciler) Load(boardID string) ([]*core.Card, error) {
	dir, err := r.ws.BoardDir(boardID)
	if err != nil {
		return nil, err
	}
	statuses, err := r.ws.StatusDirs(boardID)
	if err != nil {
		return nil, err
	}

	var cards []*core.Card
	for _, status := range statuses {
		statusDir := filepath.Join(dir, status)
		entries, err := os.ReadDir(statusDir)
		if err != nil {
			log.Printf("component=board.reconcile action=load_dir_failed board=%s status=%s err=%v", boardID, status, err)
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !codec.IsCardFile(e.Name()) {
				continue
			}
			card, err := readCard(filepath.Join(statusDir, e.Name()))
			if err != nil {
				log.Printf("component=board.reconcile action=load_file_failed board=%s file=%s err=%v", boardID, e.Name(), err)
				continue
			}
			if card == nil {
				continue
			}
			card.BoardID = boardID
			if card.Status == "" {
				card.Status = status
			}
			if bad, ok := unsafeField(card); ok {
				log.Printf("component=board.reconcile action=load_unsafe_path board=%s file=%s value=%q", boardID, e.Name(), bad)
				continue
			}
			cards = append(cards, card)
		}
	}
	return cards, nil
}

// ReconcileFolders moves each card, and the attachments next to it, into the
// folder named by its status. It returns how many cards moved.
func (r *Reconciler) ReconcileFolders(boardID string, cards []*core.Card) int {
	moved := 0
	for _, c := range cards {
		folder := filepath.Base(filepath.Dir(c.FilePath))
		if folder == c.Status {
			continue
		}
		dir, err := r.ws.StatusDir(boardID, c.Status)
		if err != nil {
			log.Printf("component=board.reconcile action=resolve_dir_failed board=%s card=%s err=%v", boardID, c.ID, err)
			continue
		}
		rewrite, err := placeCard(c, dir, filepath.Base(c.FilePath))
		if err != nil {
			log.Printf("component=board.reconcile action=folder_move_failed board=%s card=%s err=%v", boardID, c.ID, err)
			continue
		}
		if rewrite {
			if err := writeCard(c); err != nil {
				log.Printf("component=board.reconcile action=folder_write_failed board=%s card=%s err=%v", boardID, c.ID, err)
			}
		}
		log.Printf("component=board.reconcile action=folder_moved board=%s card=%s from=%s to=%s", boardID, c.ID, folder, c.Status)
		moved++
	}
	return moved
}

// MigrateOrder rekeys every column when any card carries a legacy integer
// order or a malformed key. Legacy cards keep their relative order and sort
// ahead of cards that already have keys. Only cards whose key changes are
// rewritten. It returns how many files were written.
func (r *Reconciler) MigrateOrder(cards []*core.Card) int {
	needed := false
	for _, c := range cards {
		if order.IsLegacy(c.Order) || order.Validate(c.Order) != nil {
			needed = true
			break
		}
	}
	if !needed {
		return 0
	}

	columns := map[string][]*core.Card{}
	for _, c := range cards {
		columns[c.Status] = append(columns[c.Status], c)
	}

	written := 0
	for status, col := range columns {
		sort.SliceStable(col, func(i, j int) bool { return legacyLess(col[i], col[j]) })
		keys, err := order.KeysBetween("", "", len(col))
		if err != nil {
			log.Printf("component=board.reconcile action=rekey_failed status=%s err=%v", status, err)
			continue
		}
		for i, c := range col {
			if c.Order == keys[i] {
				continue
			}
			c.Order = keys[i]
			if err := writeCard(c); err != nil {
				log.Printf("component=board.reconcile action=rekey_write_failed card=%s err=%v", c.ID, err)
				continue
			}
			written++
		}
	}
	log.Printf("component=board.reconcile action=orders_migrated files=%d", written)
	return written
}

// SyncIDs advances the board's next-ID counter past the highest numeric card
// id on disk. It reports whether the counter moved.
func (r *Reconciler) SyncIDs(boardID string, cards []*core.Card) (bool, error) {
	highest := 0
	for _, c := range cards {
		if n, ok := c.NumericID(); ok && n > highest {
			highest = n
		}
	}
	if highest == 0 {
		return false, nil
	}
	changed, err := r.ws.reg.SyncCardID(boardID, highest)
	if err != nil {
		return false, fmt.Errorf("sync card id: %w", err)
	}
	if changed {
		log.Printf("component=board.reconcile action=id_counter_advanced board=%s next=%d", boardID, highest+1)
	}
	return changed, nil
}

// legacyLess orders cards for rekeying: integer orders by value, then valid
// keys, then missing or malformed ones, ties broken by id.
func legacyLess(a, b *core.Card) bool {
	ra, va := orderRank(a.Order)
	rb, vb := orderRank(b.Order)
	if ra != rb {
		return ra < rb
	}
	switch ra {
	case 0:
		if va != vb {
			return va < vb
		}
	case 1:
		if a.Order != b.Order {
			return a.Order < b.Order
		}
	}
	return idLess(a, b)
}

func orderRank(o string) (int, int64) {
	if o != "" && order.IsLegacy(o) {
		n, err := strconv.ParseInt(o, 10, 64)
		if err == nil {
			return 0, n
		}
	}
	if order.Validate(o) == nil {
		return 1, 0
	}
	return 2, 0
}

// idLess compares card ids numerically when both are numeric.
func idLess(a, b *core.Card) bool {
	na, oka := a.NumericID()
	nb, okb := b.NumericID()
	if oka && okb {
		return na < nb
	}
	if oka != okb {
		return oka
	}
	return a.ID < b.ID
}

// readCard decodes a single card file. It returns nil, nil for files that
// are not cards.
func readCard(path string) (*core.Card, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return codec.Decode(string(data), path), nil
}
