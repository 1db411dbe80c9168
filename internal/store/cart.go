package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/devansh-07/Sure-Shop/internal/database"
	"github.com/devansh-07/Sure-Shop/internal/models"
)

// Cart mutations run as serializable transactions and lock the user's open
// order row up front, so the add/remove/decrement sequence observed by a
// user is linearizable even under concurrent requests.

// lockOpenOrder returns the id of the user's open order, locked FOR UPDATE,
// or database.ErrNoActiveOrder.
func lockOpenOrder(ctx context.Context, tx *sql.Tx, userID int64) (int64, error) {
	var orderID int64

	err := tx.QueryRowContext(ctx,
		`SELECT id FROM orders WHERE user_id = $1 AND NOT fulfilled FOR UPDATE`,
		userID).Scan(&orderID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, database.ErrNoActiveOrder
		}
		return 0, fmt.Errorf("lock open order: %w", err)
	}

	return orderID, nil
}

// claimOpenOrder returns the user's open order id, creating the order if
// none exists. The partial unique index on (user_id) WHERE NOT fulfilled
// makes the create race-safe: concurrent claims converge on one row.
func claimOpenOrder(ctx context.Context, tx *sql.Tx, userID int64) (int64, error) {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO orders (user_id) VALUES ($1)
		 ON CONFLICT (user_id) WHERE NOT fulfilled DO NOTHING`,
		userID)
	if err != nil {
		return 0, fmt.Errorf("create open order: %w", err)
	}

	return lockOpenOrder(ctx, tx, userID)
}

// AddItem adds one unit of the item to the user's cart, creating the open
// order lazily and incrementing the line quantity if the item is already
// in the cart. Returns the updated order.
func AddItem(ctx context.Context, db *sql.DB, userID int64, slug string) (*models.Order, error) {
	var order *models.Order

	err := database.WithRetry(ctx, db, database.SerializableTxOptions(), func(tx *sql.Tx) error {
		item, err := GetItemBySlug(ctx, tx, slug)
		if err != nil {
			return err
		}

		orderID, err := claimOpenOrder(ctx, tx, userID)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_lines (order_id, item_id, user_id, quantity)
			 VALUES ($1, $2, $3, 1)
			 ON CONFLICT (order_id, item_id)
			 DO UPDATE SET quantity = order_lines.quantity + 1`,
			orderID, item.ID, userID)
		if err != nil {
			return fmt.Errorf("upsert order line: %w", err)
		}

		order, err = getOrderWithLines(ctx, tx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// RemoveItem deletes the item's line from the user's cart entirely,
// regardless of quantity.
func RemoveItem(ctx context.Context, db *sql.DB, userID int64, slug string) (*models.Order, error) {
	var order *models.Order

	err := database.WithRetry(ctx, db, database.SerializableTxOptions(), func(tx *sql.Tx) error {
		orderID, err := lockOpenOrder(ctx, tx, userID)
		if err != nil {
			return err
		}

		item, err := GetItemBySlug(ctx, tx, slug)
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx,
			`DELETE FROM order_lines WHERE order_id = $1 AND item_id = $2`,
			orderID, item.ID)
		if err != nil {
			return fmt.Errorf("delete order line: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if affected == 0 {
			return database.ErrItemNotInCart
		}

		order, err = getOrderWithLines(ctx, tx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// DecrementItem reduces the line quantity by one, deleting the line when
// the quantity would reach zero. A zero-quantity line is never persisted.
func DecrementItem(ctx context.Context, db *sql.DB, userID int64, slug string) (*models.Order, error) {
	var order *models.Order

	err := database.WithRetry(ctx, db, database.SerializableTxOptions(), func(tx *sql.Tx) error {
		orderID, err := lockOpenOrder(ctx, tx, userID)
		if err != nil {
			return err
		}

		item, err := GetItemBySlug(ctx, tx, slug)
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE order_lines
			 SET quantity = quantity - 1
			 WHERE order_id = $1 AND item_id = $2 AND quantity > 1`,
			orderID, item.ID)
		if err != nil {
			return fmt.Errorf("decrement order line: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}

		if affected == 0 {
			result, err := tx.ExecContext(ctx,
				`DELETE FROM order_lines WHERE order_id = $1 AND item_id = $2`,
				orderID, item.ID)
			if err != nil {
				return fmt.Errorf("delete order line: %w", err)
			}

			affected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("get rows affected: %w", err)
			}
			if affected == 0 {
				return database.ErrItemNotInCart
			}
		}

		order, err = getOrderWithLines(ctx, tx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// GetOpenOrder returns the user's cart or database.ErrNoActiveOrder.
func GetOpenOrder(ctx context.Context, db *sql.DB, userID int64) (*models.Order, error) {
	var orderID int64

	err := db.QueryRowContext(ctx,
		`SELECT id FROM orders WHERE user_id = $1 AND NOT fulfilled`,
		userID).Scan(&orderID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrNoActiveOrder
		}
		return nil, fmt.Errorf("get open order: %w", err)
	}

	return getOrderWithLines(ctx, db, orderID)
}
