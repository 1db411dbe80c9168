// Package checkout translates an open order into a payment-processor
// checkout session. Session creation has no local side effect: the order is
// only read, and any processor failure leaves it untouched.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/devansh-07/Sure-Shop/internal/config"
	"github.com/devansh-07/Sure-Shop/internal/database"
	"github.com/devansh-07/Sure-Shop/internal/models"
)

var (
	ErrPaymentProvider   = errors.New("payment provider error")
	ErrEmptyCart         = errors.New("order has no items")
	ErrNoShippingAddress = errors.New("order has no shipping address")
)

type Broker struct {
	apiKey     string
	baseURL    string
	successURL string
	cancelURL  string
	currency   string
	client     *http.Client
}

func NewBroker(cfg config.PaymentConfig) *Broker {
	base := strings.TrimRight(cfg.RedirectBaseURL, "/")

	return &Broker{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.APIBaseURL, "/"),
		successURL: base + "/success",
		cancelURL:  base + "/cancel",
		currency:   cfg.Currency,
		client:     &http.Client{Timeout: cfg.RequestTimeout},
	}
}

type sessionResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`

	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CreateSession submits a checkout-session request for the order and
// returns the processor-issued redirect URL. The order id travels as opaque
// metadata and comes back on the completion webhook.
func (b *Broker) CreateSession(ctx context.Context, order *models.Order) (string, error) {
	if order.Fulfilled {
		return "", database.ErrOrderClosed
	}
	if len(order.Lines) == 0 {
		return "", ErrEmptyCart
	}
	if order.ShippingAddressID == nil {
		return "", ErrNoShippingAddress
	}

	form := b.sessionForm(order)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		b.baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build session request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+b.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPaymentProvider, err)
	}
	defer resp.Body.Close()

	var session sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrPaymentProvider, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := session.Error.Message
		if msg == "" {
			msg = resp.Status
		}
		return "", fmt.Errorf("%w: %s", ErrPaymentProvider, msg)
	}

	if session.URL == "" {
		return "", fmt.Errorf("%w: session response missing redirect url", ErrPaymentProvider)
	}

	return session.URL, nil
}
