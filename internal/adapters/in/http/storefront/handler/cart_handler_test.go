// internal/adapters/in/http/storefront/handler/cart_handler_test.go
package storefrontHandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heartwood/internal/adapters/in/http/middleware"
	query "heartwood/internal/application/query/storefront"
	"heartwood/internal/application/query/storefront/dto"
	usecase "heartwood/internal/application/usecase"
	cartdom "heartwood/internal/domain/cart"
	catalogdom "heartwood/internal/domain/catalog"
)

// ----- fakes -----

type stubSub struct {
	ch chan cartdom.RemoteSnapshot
}

func (s *stubSub) Updates() <-chan cartdom.RemoteSnapshot { return s.ch }
func (s *stubSub) Err() error                             { return nil }
func (s *stubSub) Stop()                                  {}

// stubMirror is enough for guest-path handler tests; authenticated flows are
// covered by the usecase tests.
type stubMirror struct{}

func (stubMirror) Add(ctx context.Context, uid, productID string, qty int) error { return nil }
func (stubMirror) SetQuantity(ctx context.Context, uid, productID string, qty int) error {
	return nil
}
func (stubMirror) Remove(ctx context.Context, uid, productID string) error { return nil }
func (stubMirror) Clear(ctx context.Context, uid string) error             { return nil }
func (stubMirror) Merge(ctx context.Context, uid string, ops []cartdom.MergeOp) error {
	return nil
}
func (stubMirror) Subscribe(ctx context.Context, uid string) (cartdom.Subscription, error) {
	return &stubSub{ch: make(chan cartdom.RemoteSnapshot)}, nil
}

type stubCatalog struct {
	products map[string]catalogdom.Product
}

func (f *stubCatalog) GetByID(ctx context.Context, productID string) (*catalogdom.Product, error) {
	p, ok := f.products[productID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *stubCatalog) List(ctx context.Context) ([]catalogdom.Product, error) {
	out := make([]catalogdom.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func newTestHandlers(t *testing.T) (http.Handler, http.Handler, *countingGateway) {
	t.Helper()

	sessions, err := usecase.NewSessionManager(nil, stubMirror{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sessions.Close() })

	catalog := &stubCatalog{products: map[string]catalogdom.Product{
		"p1": {ID: "p1", Name: "Oak Table", Price: 1200, ImageURL: "https://img.example/p1.jpg"},
		"p2": {ID: "p2", Name: "Pine Bench", Price: 250},
	}}
	q := query.NewCartQuery(catalog)

	gw := &countingGateway{sessionID: "cs_test_123"}
	checkout := usecase.NewCheckoutUsecase(gw, "usd")

	return NewCartHandler(sessions, q), NewCheckoutHandler(sessions, q, checkout), gw
}

type countingGateway struct {
	calls     int
	sessionID string
}

func (g *countingGateway) CreateSession(ctx context.Context, items []usecase.LineItem) (string, error) {
	g.calls++
	return g.sessionID, nil
}

func decodeCart(t *testing.T, rec *httptest.ResponseRecorder) dto.ReconciledCart {
	t.Helper()
	var cart dto.ReconciledCart
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&cart))
	return cart
}

// ----- tests -----

func TestGuestAddAndGetCart(t *testing.T) {
	cartH, _, _ := newTestHandlers(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/storefront/cart/items",
		strings.NewReader(`{"productId":"p1","quantity":2}`))
	cartH.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	sid := rec.Header().Get("X-Session-Id")
	require.NotEmpty(t, sid)

	cart := decodeCart(t, rec)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Count)
	assert.Equal(t, 2400.0, cart.Total)
	assert.False(t, cart.Authenticated)

	// second request with the same session id sees the same cart
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/storefront/cart", nil)
	req.Header.Set("X-Session-Id", sid)
	cartH.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cart = decodeCart(t, rec)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "Oak Table", cart.Items[0].Product.Name)
}

func TestSetQuantityZeroRemovesLine(t *testing.T) {
	cartH, _, _ := newTestHandlers(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/storefront/cart/items",
		strings.NewReader(`{"productId":"p1","quantity":3}`))
	cartH.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	sid := rec.Header().Get("X-Session-Id")

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/storefront/cart/items",
		strings.NewReader(`{"productId":"p1","quantity":0}`))
	req.Header.Set("X-Session-Id", sid)
	cartH.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cart := decodeCart(t, rec)
	assert.Empty(t, cart.Items)
	assert.Equal(t, 0, cart.Count)
}

func TestRemoveItemRequiresProductID(t *testing.T) {
	cartH, _, _ := newTestHandlers(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/storefront/cart/items", nil)
	cartH.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddItemRejectsBadQuantity(t *testing.T) {
	cartH, _, _ := newTestHandlers(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/storefront/cart/items",
		strings.NewReader(`{"productId":"p1","quantity":-1}`))
	cartH.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClearCart(t *testing.T) {
	cartH, _, _ := newTestHandlers(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/storefront/cart/items",
		strings.NewReader(`{"productId":"p2"}`))
	cartH.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	sid := rec.Header().Get("X-Session-Id")

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/storefront/cart", nil)
	req.Header.Set("X-Session-Id", sid)
	cartH.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeCart(t, rec).Items)
}

func TestCheckoutEmptyCartFailsFast(t *testing.T) {
	_, checkoutH, gw := newTestHandlers(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/storefront/checkout", nil)
	checkoutH.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "cart is empty")
	assert.Equal(t, 0, gw.calls)
}

func TestCheckoutReturnsSessionID(t *testing.T) {
	cartH, checkoutH, gw := newTestHandlers(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/storefront/cart/items",
		strings.NewReader(`{"productId":"p1","quantity":1}`))
	cartH.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	sid := rec.Header().Get("X-Session-Id")

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/storefront/checkout", nil)
	req.Header.Set("X-Session-Id", sid)
	checkoutH.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var res map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, "cs_test_123", res["sessionId"])
	assert.Equal(t, 1, gw.calls)
}

func TestAuthenticatedCartReportsLoadingUntilFirstSnapshot(t *testing.T) {
	cartH, checkoutH, gw := newTestHandlers(t)

	// stubMirror's subscription never delivers, so the remote side stays
	// in its initial-load phase for the whole test.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/storefront/cart", nil)
	req = req.WithContext(middleware.ContextWithUID(req.Context(), "uid-1"))
	cartH.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	sid := rec.Header().Get("X-Session-Id")
	require.NotEmpty(t, sid)

	cart := decodeCart(t, rec)
	assert.True(t, cart.Authenticated)
	assert.True(t, cart.Loading)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/storefront/checkout", nil)
	req.Header.Set("X-Session-Id", sid)
	req = req.WithContext(middleware.ContextWithUID(req.Context(), "uid-1"))
	checkoutH.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 0, gw.calls)
}

func TestCartHandlerMethodNotAllowed(t *testing.T) {
	cartH, checkoutH, _ := newTestHandlers(t)

	rec := httptest.NewRecorder()
	cartH.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/storefront/cart", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	checkoutH.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/storefront/checkout", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
