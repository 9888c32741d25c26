// internal/application/usecase/checkout_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"

	"heartwood/internal/application/query/storefront/dto"
)

var (
	ErrCheckoutGatewayMissing = errors.New("checkout: payment gateway is not configured")
	ErrCheckoutCartEmpty      = errors.New("checkout: cart is empty")
	ErrCheckoutCartLoading    = errors.New("checkout: cart is still loading")
)

// LineItem is the gateway-facing shape of one cart line. UnitAmount is in
// integer minor units (cents); floating-point money never crosses this
// boundary.
type LineItem struct {
	Currency    string
	Name        string
	Description string
	Images      []string
	UnitAmount  int64
	Quantity    int
}

// PaymentGateway is the outbound port to the external payment-session API.
// CreateSession returns the opaque session identifier the storefront client
// redirects to.
type PaymentGateway interface {
	CreateSession(ctx context.Context, items []LineItem) (string, error)
}

// CheckoutUsecase converts the reconciled cart into a payment session and
// hands the session id back for the client-side redirect. It never mutates
// cart state: a completed payment comes back through channels outside this
// subsystem.
type CheckoutUsecase struct {
	gateway  PaymentGateway
	currency string
}

func NewCheckoutUsecase(gateway PaymentGateway, currency string) *CheckoutUsecase {
	cur := strings.ToLower(strings.TrimSpace(currency))
	if cur == "" {
		cur = "usd"
	}
	return &CheckoutUsecase{gateway: gateway, currency: cur}
}

// CreateSession validates the cart and submits one line item per cart line.
// An empty cart fails fast before any network call.
func (u *CheckoutUsecase) CreateSession(ctx context.Context, cart dto.ReconciledCart) (string, error) {
	if u == nil || u.gateway == nil {
		return "", ErrCheckoutGatewayMissing
	}
	if cart.Loading {
		return "", ErrCheckoutCartLoading
	}
	if len(cart.Items) == 0 {
		return "", ErrCheckoutCartEmpty
	}

	items := make([]LineItem, 0, len(cart.Items))
	for _, it := range cart.Items {
		if it.Quantity <= 0 {
			continue
		}

		li := LineItem{
			Currency:    u.currency,
			Name:        it.Product.Name,
			Description: it.Product.Description,
			UnitAmount:  toMinorUnits(it.Product.Price),
			Quantity:    it.Quantity,
		}
		if img := strings.TrimSpace(it.Product.ImageURL); img != "" {
			li.Images = []string{img}
		}
		items = append(items, li)
	}
	if len(items) == 0 {
		return "", ErrCheckoutCartEmpty
	}

	sessionID, err := u.gateway.CreateSession(ctx, items)
	if err != nil {
		log.Printf("[checkout_uc] WARN: session creation failed items=%d err=%v", len(items), err)
		return "", fmt.Errorf("checkout: create payment session: %w", err)
	}

	log.Printf("[checkout_uc] OK: payment session created items=%d sessionId=%s", len(items), sessionID)
	return sessionID, nil
}

// toMinorUnits converts a major-unit decimal price to integer minor units.
func toMinorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}
