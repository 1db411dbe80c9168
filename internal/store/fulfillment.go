package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/devansh-07/Sure-Shop/internal/database"
	"github.com/devansh-07/Sure-Shop/internal/models"
)

// FulfillOrder marks an order paid in a single atomic transaction: it
// records the payment, flips the order to fulfilled and freezes every line.
// Redelivered events are a safe no-op: if the order is already fulfilled it
// returns alreadyFulfilled = true and writes nothing.
func FulfillOrder(ctx context.Context, db *sql.DB, orderID int64, providerTxnID string, amount decimal.Decimal) (order *models.Order, alreadyFulfilled bool, err error) {
	err = database.WithRetry(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var fulfilled bool

		err := tx.QueryRowContext(ctx,
			`SELECT fulfilled FROM orders WHERE id = $1 FOR UPDATE`,
			orderID).Scan(&fulfilled)
		if err != nil {
			if err == sql.ErrNoRows {
				return database.ErrOrderNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}

		if fulfilled {
			alreadyFulfilled = true
			order, err = getOrderWithLines(ctx, tx, orderID)
			return err
		}

		var paymentID int64
		err = tx.QueryRowContext(ctx,
			`INSERT INTO payments (provider_txn_id, amount)
			 VALUES ($1, $2)
			 RETURNING id`,
			providerTxnID, amount).Scan(&paymentID)
		if err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE orders
			 SET fulfilled = TRUE, fulfilled_at = NOW(), payment_id = $1
			 WHERE id = $2`,
			paymentID, orderID)
		if err != nil {
			return fmt.Errorf("mark order fulfilled: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE order_lines SET fulfilled = TRUE WHERE order_id = $1`,
			orderID)
		if err != nil {
			return fmt.Errorf("mark order lines fulfilled: %w", err)
		}

		order, err = getOrderWithLines(ctx, tx, orderID)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	return order, alreadyFulfilled, nil
}
