// internal/adapters/in/http/storefront/handler/checkout_handler.go
package storefrontHandler

import (
	"errors"
	"log"
	"net/http"
	"time"

	query "heartwood/internal/application/query/storefront"
	usecase "heartwood/internal/application/usecase"
)

// CheckoutHandler serves POST /storefront/checkout: it reads the currently
// authoritative cart, creates a payment session and returns {sessionId} for
// the client-side redirect. Cart state is never modified here; on any
// failure the caller sees an error and the cart is exactly as before.
type CheckoutHandler struct {
	sessions *usecase.SessionManager
	query    *query.CartQuery
	checkout *usecase.CheckoutUsecase
}

func NewCheckoutHandler(sessions *usecase.SessionManager, q *query.CartQuery, checkout *usecase.CheckoutUsecase) http.Handler {
	return &CheckoutHandler{sessions: sessions, query: q, checkout: checkout}
}

func (h *CheckoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.sessions == nil || h.query == nil || h.checkout == nil {
		writeErr(w, http.StatusInternalServerError, "checkout is not configured")
		return
	}

	sess, ok := resolveSession(w, r, h.sessions)
	if !ok {
		return
	}

	lines, authenticated, loading := sess.View()
	cart, err := h.query.Reconcile(r.Context(), lines, authenticated, loading)
	if err != nil {
		log.Printf("[checkout_handler] reconcile failed sid=%s err=%v", sess.ID(), err)
		writeErr(w, http.StatusBadGateway, "could not load cart")
		return
	}

	sessionID, err := h.checkout.CreateSession(r.Context(), cart)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrCheckoutCartEmpty):
			writeErr(w, http.StatusBadRequest, "cart is empty")
		case errors.Is(err, usecase.ErrCheckoutCartLoading):
			writeErr(w, http.StatusConflict, "cart is still loading, try again")
		case errors.Is(err, usecase.ErrCheckoutGatewayMissing):
			writeErr(w, http.StatusServiceUnavailable, "payment gateway is not configured")
		default:
			// gateway-reported message, surfaced verbatim
			writeErr(w, http.StatusBadGateway, err.Error())
		}
		return
	}

	log.Printf("[checkout_handler] session created sid=%s elapsed=%s", sess.ID(), time.Since(start))
	writeJSON(w, http.StatusOK, map[string]string{"sessionId": sessionID})
}
