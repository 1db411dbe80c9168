package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/devansh-07/Sure-Shop/internal/database"
	"github.com/devansh-07/Sure-Shop/internal/models"
)

type ShippingAddressInput struct {
	Street     string
	Unit       string
	Country    string
	PostalCode string
}

// AttachShippingAddress creates a fresh shipping address and points the
// order at it, replacing any address from an earlier checkout attempt.
// Fails with database.ErrOrderClosed once the order is fulfilled.
func AttachShippingAddress(ctx context.Context, db *sql.DB, orderID int64, input ShippingAddressInput) (*models.ShippingAddress, error) {
	address := &models.ShippingAddress{}

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var userID int64
		var fulfilled bool

		err := tx.QueryRowContext(ctx,
			`SELECT user_id, fulfilled FROM orders WHERE id = $1 FOR UPDATE`,
			orderID).Scan(&userID, &fulfilled)
		if err != nil {
			if err == sql.ErrNoRows {
				return database.ErrOrderNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}

		if fulfilled {
			return database.ErrOrderClosed
		}

		err = tx.QueryRowContext(ctx,
			`INSERT INTO shipping_addresses (user_id, street, unit, country, postal_code)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id, user_id, street, unit, country, postal_code, created_at`,
			userID, input.Street, input.Unit, input.Country, input.PostalCode).Scan(
			&address.ID,
			&address.UserID,
			&address.Street,
			&address.Unit,
			&address.Country,
			&address.PostalCode,
			&address.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("create shipping address: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE orders SET shipping_address_id = $1 WHERE id = $2`,
			address.ID, orderID)
		if err != nil {
			return fmt.Errorf("attach shipping address: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return address, nil
}

func GetShippingAddress(ctx context.Context, db *sql.DB, id int64) (*models.ShippingAddress, error) {
	address := &models.ShippingAddress{}

	query := `
		SELECT id, user_id, street, unit, country, postal_code, created_at
		FROM shipping_addresses
		WHERE id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&address.ID,
		&address.UserID,
		&address.Street,
		&address.Unit,
		&address.Country,
		&address.PostalCode,
		&address.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("shipping address %d not found", id)
		}
		return nil, fmt.Errorf("get shipping address: %w", err)
	}

	return address, nil
}
