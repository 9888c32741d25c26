// internal/adapters/in/http/storefront/handler/cart_handler.go
package storefrontHandler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	query "heartwood/internal/application/query/storefront"
	usecase "heartwood/internal/application/usecase"
)

// CartHandler serves the storefront cart endpoints:
//
//	GET    /storefront/cart        -> reconciled cart view
//	DELETE /storefront/cart        -> clear
//	POST   /storefront/cart/items  -> add {productId, quantity}
//	PUT    /storefront/cart/items  -> set qty {productId, quantity} (<=0 removes)
//	DELETE /storefront/cart/items  -> remove ?productId=
type CartHandler struct {
	sessions *usecase.SessionManager
	query    *query.CartQuery
}

func NewCartHandler(sessions *usecase.SessionManager, q *query.CartQuery) http.Handler {
	return &CartHandler{sessions: sessions, query: q}
}

func (h *CartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	path := strings.TrimRight(r.URL.Path, "/")

	if h.sessions == nil || h.query == nil {
		writeErr(w, http.StatusInternalServerError, "cart handler is not configured")
		return
	}

	isItems := strings.HasSuffix(path, "/cart/items")

	switch {
	case r.Method == http.MethodGet && !isItems:
		h.handleGet(w, r, start)
	case r.Method == http.MethodDelete && !isItems:
		h.handleClear(w, r, start)
	case r.Method == http.MethodPost && isItems:
		h.handleAddItem(w, r, start)
	case r.Method == http.MethodPut && isItems:
		h.handleSetQuantity(w, r, start)
	case r.Method == http.MethodDelete && isItems:
		h.handleRemoveItem(w, r, start)
	default:
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// respondView writes the current reconciled cart (optimistic: remote writes
// may still be in flight, the next snapshot catches up).
func (h *CartHandler) respondView(w http.ResponseWriter, r *http.Request, sess *usecase.CartSession, start time.Time) {
	lines, authenticated, loading := sess.View()

	view, err := h.query.Reconcile(r.Context(), lines, authenticated, loading)
	if err != nil {
		log.Printf("[cart_handler] reconcile failed sid=%s err=%v elapsed=%s", sess.ID(), err, time.Since(start))
		writeErr(w, http.StatusBadGateway, "could not load cart")
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func (h *CartHandler) handleGet(w http.ResponseWriter, r *http.Request, start time.Time) {
	sess, ok := resolveSession(w, r, h.sessions)
	if !ok {
		return
	}
	h.respondView(w, r, sess, start)
}

func (h *CartHandler) handleClear(w http.ResponseWriter, r *http.Request, start time.Time) {
	sess, ok := resolveSession(w, r, h.sessions)
	if !ok {
		return
	}
	if err := sess.ClearCart(); err != nil {
		writeErr(w, http.StatusInternalServerError, "could not clear cart")
		return
	}
	h.respondView(w, r, sess, start)
}

type itemRequest struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity"`
}

func decodeItemRequest(r *http.Request) (itemRequest, error) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return itemRequest{}, err
	}
	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.ProductID == "" {
		return itemRequest{}, errors.New("productId is required")
	}
	return req, nil
}

func (h *CartHandler) handleAddItem(w http.ResponseWriter, r *http.Request, start time.Time) {
	req, err := decodeItemRequest(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	if qty <= 0 {
		writeErr(w, http.StatusBadRequest, "quantity must be >= 1")
		return
	}

	sess, ok := resolveSession(w, r, h.sessions)
	if !ok {
		return
	}
	if err := sess.AddItem(req.ProductID, qty); err != nil {
		writeErr(w, http.StatusBadRequest, "could not add item")
		return
	}
	h.respondView(w, r, sess, start)
}

func (h *CartHandler) handleSetQuantity(w http.ResponseWriter, r *http.Request, start time.Time) {
	req, err := decodeItemRequest(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if req.Quantity == nil {
		writeErr(w, http.StatusBadRequest, "quantity is required")
		return
	}

	sess, ok := resolveSession(w, r, h.sessions)
	if !ok {
		return
	}
	// qty <= 0 removes the line; the engine enforces that
	if err := sess.SetItemQuantity(req.ProductID, *req.Quantity); err != nil {
		writeErr(w, http.StatusBadRequest, "could not update quantity")
		return
	}
	h.respondView(w, r, sess, start)
}

func (h *CartHandler) handleRemoveItem(w http.ResponseWriter, r *http.Request, start time.Time) {
	pid := strings.TrimSpace(r.URL.Query().Get("productId"))
	if pid == "" {
		writeErr(w, http.StatusBadRequest, "productId is required")
		return
	}

	sess, ok := resolveSession(w, r, h.sessions)
	if !ok {
		return
	}
	if err := sess.RemoveItem(pid); err != nil {
		writeErr(w, http.StatusBadRequest, "could not remove item")
		return
	}
	h.respondView(w, r, sess, start)
}
