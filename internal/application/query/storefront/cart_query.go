// internal/application/query/storefront/cart_query.go
package storefront

import (
	"context"
	"errors"
	"log"

	"heartwood/internal/application/query/storefront/dto"
	cartdom "heartwood/internal/domain/cart"
	catalogdom "heartwood/internal/domain/catalog"
)

var (
	ErrCartQueryNotConfigured = errors.New("cart_query: catalog reader is nil")
)

// CartQuery builds the ReconciledCart read model: the authoritative line set
// joined against catalog data.
type CartQuery struct {
	Catalog catalogdom.Reader
}

func NewCartQuery(catalog catalogdom.Reader) *CartQuery {
	return &CartQuery{Catalog: catalog}
}

// Reconcile joins lines with the catalog and derives count/total.
//
// A line whose productId no longer resolves in the catalog is silently
// excluded from the view; the line itself is not deleted, so it reappears if
// the catalog entry does. Catalog read errors are returned (the caller
// surfaces them), not swallowed.
func (q *CartQuery) Reconcile(ctx context.Context, lines []cartdom.Line, authenticated, loading bool) (dto.ReconciledCart, error) {
	out := dto.ReconciledCart{
		Items:         []dto.ReconciledItem{},
		Authenticated: authenticated,
		Loading:       loading,
	}

	if q == nil || q.Catalog == nil {
		return out, ErrCartQueryNotConfigured
	}

	for _, l := range lines {
		if !l.Valid() {
			continue
		}

		p, err := q.Catalog.GetByID(ctx, l.ProductID)
		if err != nil {
			return dto.ReconciledCart{}, err
		}
		if p == nil {
			// hidden, not removed: the catalog entry may reappear
			log.Printf("[cart_query] productId=%s not in catalog, hiding line", l.ProductID)
			continue
		}

		out.Items = append(out.Items, dto.ReconciledItem{Product: *p, Quantity: l.Quantity})
		out.Count += l.Quantity
		out.Total += p.Price * float64(l.Quantity)
	}

	return out, nil
}
