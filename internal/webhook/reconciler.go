// Package webhook reconciles payment-completion events with local orders.
// The processor delivers events at least once and out of band from the
// user's browser session; the reconciler turns that into exactly-once
// fulfillment effect.
package webhook

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/devansh-07/Sure-Shop/internal/models"
	"github.com/devansh-07/Sure-Shop/internal/notify"
	"github.com/devansh-07/Sure-Shop/internal/store"
)

const eventCheckoutCompleted = "checkout.session.completed"

var ErrMalformedPayload = errors.New("malformed webhook payload")

// FulfillmentStore is the persistence port the reconciler commits through.
type FulfillmentStore interface {
	FulfillOrder(ctx context.Context, orderID int64, providerTxnID string, amount decimal.Decimal) (order *models.Order, alreadyFulfilled bool, err error)
}

type dbStore struct {
	db *sql.DB
}

func (s dbStore) FulfillOrder(ctx context.Context, orderID int64, providerTxnID string, amount decimal.Decimal) (*models.Order, bool, error) {
	return store.FulfillOrder(ctx, s.db, orderID, providerTxnID, amount)
}

// NewDBStore adapts a database handle to the FulfillmentStore port.
func NewDBStore(db *sql.DB) FulfillmentStore {
	return dbStore{db: db}
}

type Reconciler struct {
	secret    string
	tolerance time.Duration
	store     FulfillmentStore
	sender    notify.Sender
	logger    zerolog.Logger
}

func NewReconciler(secret string, store FulfillmentStore, sender notify.Sender, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		secret:    secret,
		tolerance: 5 * time.Minute,
		store:     store,
		sender:    sender,
		logger:    logger.With().Str("component", "webhook").Logger(),
	}
}

type event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object session `json:"object"`
	} `json:"data"`
}

type session struct {
	ID              string            `json:"id"`
	AmountTotal     int64             `json:"amount_total"`
	Metadata        map[string]string `json:"metadata"`
	CustomerDetails struct {
		Email string `json:"email"`
	} `json:"customer_details"`
}

// HandleEvent processes one webhook delivery. Errors returned before the
// fulfillment commit tell the processor to retry; once the commit is
// durable the event is acknowledged even if notification fails.
func (r *Reconciler) HandleEvent(ctx context.Context, payload []byte, signatureHeader string) error {
	if err := verifySignature(payload, signatureHeader, r.secret, r.tolerance, time.Now()); err != nil {
		return err
	}

	var evt event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if evt.Type != eventCheckoutCompleted {
		r.logger.Debug().Str("event_type", evt.Type).Msg("ignoring event")
		return nil
	}

	sess := evt.Data.Object
	if sess.ID == "" {
		return fmt.Errorf("%w: missing session id", ErrMalformedPayload)
	}

	orderID, err := strconv.ParseInt(sess.Metadata["order_id"], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: missing or invalid order_id metadata", ErrMalformedPayload)
	}

	// amount_total is in minor units; decimal.New(n, -2) is exact.
	amount := decimal.New(sess.AmountTotal, -2)

	order, alreadyFulfilled, err := r.store.FulfillOrder(ctx, orderID, sess.ID, amount)
	if err != nil {
		return err
	}

	if alreadyFulfilled {
		r.logger.Info().
			Int64("order_id", orderID).
			Str("session_id", sess.ID).
			Msg("order already fulfilled, ignoring redelivery")
		return nil
	}

	r.logger.Info().
		Int64("order_id", orderID).
		Str("session_id", sess.ID).
		Str("amount", amount.StringFixed(2)).
		Msg("order fulfilled")

	r.notifyCustomer(ctx, order, sess.CustomerDetails.Email)

	return nil
}

// notifyCustomer is best effort: fulfillment is already durable, so a send
// failure is logged and never propagated.
func (r *Reconciler) notifyCustomer(ctx context.Context, order *models.Order, email string) {
	if email == "" {
		r.logger.Warn().Int64("order_id", order.ID).Msg("no customer email on session, skipping confirmation")
		return
	}

	body := confirmationBody(order)
	if err := r.sender.Send(ctx, email, "Order Confirmation", body); err != nil {
		r.logger.Error().Err(err).
			Int64("order_id", order.ID).
			Str("to", email).
			Msg("failed to send order confirmation")
		return
	}

	r.logger.Info().Int64("order_id", order.ID).Str("to", email).Msg("order confirmation sent")
}

func confirmationBody(order *models.Order) string {
	body := "Thanks for your purchase.\nFind your order details below:\n"
	for i := range order.Lines {
		line := &order.Lines[i]
		body += fmt.Sprintf("%d X %s\n", line.Quantity, line.Item.Name)
	}
	return body
}
