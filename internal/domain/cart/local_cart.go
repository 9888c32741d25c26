// internal/domain/cart/local_cart.go
package cart

import (
	"encoding/json"
	"errors"
	"log"
	"strings"
)

var (
	ErrInvalidCart = errors.New("cart: invalid")
)

// LocalCart holds cart contents for a guest (unauthenticated) session.
//
// - Lines are kept in insertion order, unique by productId.
// - Every mutation updates memory first, then persists a full snapshot
//   through the Persistence port; persist failures are logged, never
//   returned to the caller (the in-memory state is already consistent).
// - On construction the previous snapshot is loaded; a missing or malformed
//   snapshot is treated as an empty cart.
type LocalCart struct {
	key   string
	store Persistence
	lines []Line

	// loaded flips to true once the initial snapshot load has completed
	// (successfully or not). The reconciliation engine gates the merge on it.
	loaded bool
}

// localSnapshot is the persisted shape. Kept separate from the domain slice
// so the snapshot format can evolve without touching Line.
type localSnapshot struct {
	Lines []Line `json:"lines"`
}

// NewLocalCart creates a local cart bound to store/key and loads the
// previously persisted snapshot. key must be non-empty; store may be nil,
// in which case the cart is memory-only (used by tests).
func NewLocalCart(store Persistence, key string) (*LocalCart, error) {
	k := strings.TrimSpace(key)
	if k == "" {
		return nil, ErrInvalidCart
	}

	c := &LocalCart{
		key:   k,
		store: store,
		lines: []Line{},
	}
	c.load()
	return c, nil
}

// load restores the snapshot. Parse failures only log; the cart starts empty.
func (c *LocalCart) load() {
	defer func() { c.loaded = true }()

	if c.store == nil {
		return
	}

	raw, ok, err := c.store.Get(c.key)
	if err != nil {
		log.Printf("[local_cart] WARN: snapshot load failed key=%s err=%v (starting empty)", c.key, err)
		return
	}
	if !ok {
		return
	}

	var snap localSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		log.Printf("[local_cart] WARN: malformed snapshot key=%s err=%v (starting empty)", c.key, err)
		return
	}

	c.lines = normalizeLines(snap.Lines)
}

// persist writes the full snapshot. Failures are logged only.
func (c *LocalCart) persist() {
	if c.store == nil {
		return
	}

	data, err := json.Marshal(localSnapshot{Lines: c.lines})
	if err != nil {
		log.Printf("[local_cart] WARN: snapshot encode failed key=%s err=%v", c.key, err)
		return
	}
	if err := c.store.Set(c.key, string(data)); err != nil {
		log.Printf("[local_cart] WARN: snapshot persist failed key=%s err=%v", c.key, err)
	}
}

// AddLine increments quantity for productID, appending a new line when the
// product is not in the cart yet. qty must be >= 1.
func (c *LocalCart) AddLine(productID string, qty int) error {
	if c == nil {
		return ErrInvalidCart
	}

	pid := strings.TrimSpace(productID)
	if pid == "" || qty <= 0 {
		return ErrInvalidLine
	}

	if idx := findLineIndex(c.lines, pid); idx >= 0 {
		c.lines[idx].Quantity += qty
	} else {
		c.lines = append(c.lines, Line{ProductID: pid, Quantity: qty})
	}

	c.persist()
	return nil
}

// SetQuantity sets the exact quantity for productID.
// qty <= 0 removes the line entirely.
func (c *LocalCart) SetQuantity(productID string, qty int) error {
	if c == nil {
		return ErrInvalidCart
	}

	pid := strings.TrimSpace(productID)
	if pid == "" {
		return ErrInvalidLine
	}

	idx := findLineIndex(c.lines, pid)

	if qty <= 0 {
		if idx >= 0 {
			c.lines = removeIndex(c.lines, idx)
			c.persist()
		}
		return nil
	}

	if idx >= 0 {
		c.lines[idx].Quantity = qty
	} else {
		c.lines = append(c.lines, Line{ProductID: pid, Quantity: qty})
	}

	c.persist()
	return nil
}

// RemoveLine deletes the line for productID. Absent lines are a no-op.
func (c *LocalCart) RemoveLine(productID string) {
	if c == nil {
		return
	}

	pid := strings.TrimSpace(productID)
	if pid == "" {
		return
	}

	idx := findLineIndex(c.lines, pid)
	if idx < 0 {
		return
	}
	c.lines = removeIndex(c.lines, idx)
	c.persist()
}

// Clear empties the cart and persists the empty snapshot.
func (c *LocalCart) Clear() {
	if c == nil {
		return
	}
	c.lines = []Line{}
	c.persist()
}

// Lines returns a copy of the current line items in insertion order.
func (c *LocalCart) Lines() []Line {
	if c == nil {
		return []Line{}
	}
	return cloneLines(c.lines)
}

// Len returns the number of distinct lines.
func (c *LocalCart) Len() int {
	if c == nil {
		return 0
	}
	return len(c.lines)
}

// Loaded reports whether the initial snapshot load has completed.
func (c *LocalCart) Loaded() bool {
	return c != nil && c.loaded
}
