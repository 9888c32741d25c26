// internal/application/query/storefront/dto/cart_dto.go
package dto

import (
	catalogdom "heartwood/internal/domain/catalog"
)

// ReconciledCart is the display-ready cart view: line items joined against
// the catalog, plus the derived count and total. Count and Total are never
// stored anywhere; they exist only in this response shape.
type ReconciledCart struct {
	Items []ReconciledItem `json:"items"`
	Count int              `json:"count"`
	Total float64          `json:"total"`

	// Authenticated reports which cart produced the view (mirror vs local).
	Authenticated bool `json:"authenticated"`

	// Loading is true while the authoritative source has not delivered its
	// initial snapshot yet. Distinct from an empty cart.
	Loading bool `json:"loading"`
}

type ReconciledItem struct {
	Product  catalogdom.Product `json:"product"`
	Quantity int                `json:"quantity"`
}
