// internal/infra/stripe/client.go
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	uc "heartwood/internal/application/usecase"
)

const defaultBaseURL = "https://api.stripe.com"

// Client creates Stripe Checkout Sessions via the REST API
// (POST /v1/checkout/sessions, form-encoded).
//
// It implements usecase.PaymentGateway. The session id it returns is redeemed
// by the storefront frontend with Stripe's client-side redirect.
type Client struct {
	client    *http.Client
	baseURL   string
	secretKey string

	successURL string
	cancelURL  string
}

// NewClient builds the gateway client. successURL may contain the
// {CHECKOUT_SESSION_ID} placeholder, which Stripe substitutes.
func NewClient(secretKey, successURL, cancelURL string) *Client {
	return &Client{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:    defaultBaseURL,
		secretKey:  strings.TrimSpace(secretKey),
		successURL: strings.TrimSpace(successURL),
		cancelURL:  strings.TrimSpace(cancelURL),
	}
}

// WithBaseURL overrides the API host (tests).
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return c
}

// CreateSession submits the line items and returns the opaque session id.
func (c *Client) CreateSession(ctx context.Context, items []uc.LineItem) (string, error) {
	if c == nil || c.client == nil {
		return "", fmt.Errorf("stripe: client is nil")
	}
	if c.secretKey == "" {
		return "", fmt.Errorf("stripe: secret key is not configured")
	}
	if len(items) == 0 {
		return "", fmt.Errorf("stripe: no line items")
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("payment_method_types[0]", "card")
	if c.successURL != "" {
		form.Set("success_url", c.successURL)
	}
	if c.cancelURL != "" {
		form.Set("cancel_url", c.cancelURL)
	}

	for i, it := range items {
		p := "line_items[" + strconv.Itoa(i) + "]"
		form.Set(p+"[price_data][currency]", it.Currency)
		form.Set(p+"[price_data][product_data][name]", it.Name)
		if it.Description != "" {
			form.Set(p+"[price_data][product_data][description]", it.Description)
		}
		for j, img := range it.Images {
			form.Set(p+"[price_data][product_data][images]["+strconv.Itoa(j)+"]", img)
		}
		form.Set(p+"[price_data][unit_amount]", strconv.FormatInt(it.UnitAmount, 10))
		form.Set(p+"[quantity]", strconv.Itoa(it.Quantity))
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/v1/checkout/sessions",
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return "", fmt.Errorf("stripe: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.client.Do(req)
	if err != nil {
		log.Printf("[stripe] session create request FAILED err=%v", err)
		return "", fmt.Errorf("stripe: create checkout session: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := gatewayErrorMessage(body)
		log.Printf("[stripe] session create FAILED status=%d msg=%q", resp.StatusCode, msg)
		return "", fmt.Errorf("stripe: checkout session rejected (status=%d): %s", resp.StatusCode, msg)
	}

	var res struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("stripe: decode response: %w", err)
	}
	if strings.TrimSpace(res.ID) == "" {
		return "", fmt.Errorf("stripe: response has no session id")
	}

	log.Printf("[stripe] session created id=%s items=%d", res.ID, len(items))
	return res.ID, nil
}

// gatewayErrorMessage extracts Stripe's human-readable error message,
// falling back to the raw body.
func gatewayErrorMessage(body []byte) string {
	var res struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &res); err == nil && strings.TrimSpace(res.Error.Message) != "" {
		return res.Error.Message
	}
	return strings.TrimSpace(string(body))
}
