// internal/domain/cart/line.go
package cart

import (
	"errors"
	"strings"
)

var (
	ErrInvalidLine = errors.New("cart: invalid line")
)

// Line represents "one line item" in a cart: a product reference plus a
// quantity. Quantity is always >= 1; a line that would reach zero is removed
// from its cart, never stored at zero.
type Line struct {
	ProductID string `json:"productId" firestore:"productId"`
	Quantity  int    `json:"quantity" firestore:"quantity"`
}

// Valid reports whether the line satisfies the cart invariants.
func (l Line) Valid() bool {
	return strings.TrimSpace(l.ProductID) != "" && l.Quantity > 0
}

// findLineIndex returns the index of productID in lines, or -1.
func findLineIndex(lines []Line, productID string) int {
	for i := range lines {
		if lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// removeIndex deletes lines[idx] preserving insertion order.
func removeIndex(lines []Line, idx int) []Line {
	if idx < 0 || idx >= len(lines) {
		return lines
	}
	return append(lines[:idx], lines[idx+1:]...)
}

// normalizeLines drops invalid entries and merges duplicate productIDs by
// summing quantities. The first occurrence keeps its position, so insertion
// order survives a snapshot round trip.
func normalizeLines(src []Line) []Line {
	out := make([]Line, 0, len(src))
	for _, l := range src {
		pid := strings.TrimSpace(l.ProductID)
		if pid == "" || l.Quantity <= 0 {
			continue
		}
		if idx := findLineIndex(out, pid); idx >= 0 {
			out[idx].Quantity += l.Quantity
			continue
		}
		out = append(out, Line{ProductID: pid, Quantity: l.Quantity})
	}
	return out
}

// cloneLines returns a normalized copy that shares no backing array with src.
func cloneLines(src []Line) []Line {
	if len(src) == 0 {
		return []Line{}
	}
	return normalizeLines(src)
}
