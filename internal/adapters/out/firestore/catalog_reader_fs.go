// internal/adapters/out/firestore/catalog_reader_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	catalogdom "heartwood/internal/domain/catalog"
)

// CatalogReaderFS implements catalog.Reader over the products collection.
// The cart subsystem only reads catalog data; writes happen elsewhere.
type CatalogReaderFS struct {
	Client      *firestore.Client
	ProductsCol string
}

func NewCatalogReaderFS(client *firestore.Client) *CatalogReaderFS {
	return &CatalogReaderFS{
		Client:      client,
		ProductsCol: "products",
	}
}

func (r *CatalogReaderFS) col() *firestore.CollectionRef {
	name := strings.TrimSpace(r.ProductsCol)
	if name == "" {
		name = "products"
	}
	return r.Client.Collection(name)
}

type productDoc struct {
	Name        string  `firestore:"name"`
	Description string  `firestore:"description"`
	Price       float64 `firestore:"price"`
	ImageURL    string  `firestore:"imageUrl"`
	Category    string  `firestore:"category"`
}

func (d productDoc) toDomain(id string) *catalogdom.Product {
	return &catalogdom.Product{
		ID:          id,
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		ImageURL:    d.ImageURL,
		Category:    d.Category,
	}
}

// GetByID returns (nil, nil) when the product does not exist.
func (r *CatalogReaderFS) GetByID(ctx context.Context, productID string) (*catalogdom.Product, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("catalog_reader_fs: firestore client is nil")
	}

	pid := strings.TrimSpace(productID)
	if pid == "" {
		return nil, errors.New("catalog_reader_fs: productID is empty")
	}

	snap, err := r.col().Doc(pid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, err
	}

	var d productDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, err
	}
	return d.toDomain(pid), nil
}

// List returns every product in the catalog.
func (r *CatalogReaderFS) List(ctx context.Context) ([]catalogdom.Product, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("catalog_reader_fs: firestore client is nil")
	}

	iter := r.col().Documents(ctx)
	defer iter.Stop()

	out := []catalogdom.Product{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		var d productDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, err
		}
		out = append(out, *d.toDomain(snap.Ref.ID))
	}
	return out, nil
}
