// internal/domain/catalog/product.go
package catalog

import "context"

// Product is the catalog view of a sellable item. Price is in major currency
// units (e.g. dollars); minor-unit conversion happens at the payment
// boundary only.
type Product struct {
	ID          string  `json:"id" firestore:"id"`
	Name        string  `json:"name" firestore:"name"`
	Description string  `json:"description" firestore:"description"`
	Price       float64 `json:"price" firestore:"price"`
	ImageURL    string  `json:"imageUrl" firestore:"imageUrl"`
	Category    string  `json:"category,omitempty" firestore:"category"`
}

// Reader is the read-only catalog port. The cart subsystem never writes
// catalog data.
//
// GetByID returns (nil, nil) when the product does not exist; callers treat
// an unresolved productId as "hidden", not as an error.
type Reader interface {
	GetByID(ctx context.Context, productID string) (*Product, error)
	List(ctx context.Context) ([]Product, error)
}
