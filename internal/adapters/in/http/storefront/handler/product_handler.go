// internal/adapters/in/http/storefront/handler/product_handler.go
package storefrontHandler

import (
	"net/http"
	"strings"

	catalogdom "heartwood/internal/domain/catalog"
)

// ProductHandler serves GET /storefront/products (list) and
// GET /storefront/products?id= (single). Read-only catalog access for the
// storefront screens.
type ProductHandler struct {
	catalog catalogdom.Reader
}

func NewProductHandler(catalog catalogdom.Reader) http.Handler {
	return &ProductHandler{catalog: catalog}
}

func (h *ProductHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.catalog == nil {
		writeErr(w, http.StatusInternalServerError, "catalog is not configured")
		return
	}

	if id := strings.TrimSpace(r.URL.Query().Get("id")); id != "" {
		p, err := h.catalog.GetByID(r.Context(), id)
		if err != nil {
			writeErr(w, http.StatusBadGateway, "could not load product")
			return
		}
		if p == nil {
			writeErr(w, http.StatusNotFound, "product not found")
			return
		}
		writeJSON(w, http.StatusOK, p)
		return
	}

	products, err := h.catalog.List(r.Context())
	if err != nil {
		writeErr(w, http.StatusBadGateway, "could not load products")
		return
	}
	writeJSON(w, http.StatusOK, products)
}
