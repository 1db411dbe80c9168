package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/devansh-07/Sure-Shop/internal/database"
	"github.com/devansh-07/Sure-Shop/internal/models"
)

const orderColumns = `id, user_id, fulfilled, created_at, fulfilled_at, shipping_address_id, payment_id`

func scanOrder(row *sql.Row) (*models.Order, error) {
	order := &models.Order{}
	var fulfilledAt sql.NullTime
	var addressID, paymentID sql.NullInt64

	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.Fulfilled,
		&order.CreatedAt,
		&fulfilledAt,
		&addressID,
		&paymentID,
	)
	if err != nil {
		return nil, err
	}

	if fulfilledAt.Valid {
		order.FulfilledAt = &fulfilledAt.Time
	}
	if addressID.Valid {
		order.ShippingAddressID = &addressID.Int64
	}
	if paymentID.Valid {
		order.PaymentID = &paymentID.Int64
	}

	return order, nil
}

func loadOrderLines(ctx context.Context, q querier, orderID int64) ([]models.OrderLine, error) {
	query := `
		SELECT ol.id, ol.order_id, ol.item_id, ol.user_id, ol.quantity, ol.fulfilled, ol.created_at,
		       i.id, i.name, i.description, i.price, i.discount_price, i.category, i.label, i.slug, i.created_at
		FROM order_lines ol
		JOIN items i ON i.id = ol.item_id
		WHERE ol.order_id = $1
		ORDER BY ol.id`

	rows, err := q.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order lines: %w", err)
	}
	defer rows.Close()

	var lines []models.OrderLine
	for rows.Next() {
		var line models.OrderLine
		var discount decimal.NullDecimal

		err := rows.Scan(
			&line.ID,
			&line.OrderID,
			&line.ItemID,
			&line.UserID,
			&line.Quantity,
			&line.Fulfilled,
			&line.CreatedAt,
			&line.Item.ID,
			&line.Item.Name,
			&line.Item.Description,
			&line.Item.Price,
			&discount,
			&line.Item.Category,
			&line.Item.Label,
			&line.Item.Slug,
			&line.Item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}

		if discount.Valid {
			line.Item.DiscountPrice = &discount.Decimal
		}

		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return lines, nil
}

func getOrderWithLines(ctx context.Context, q querier, orderID int64) (*models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE id = $1`

	order, err := scanOrder(q.QueryRowContext(ctx, query, orderID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	lines, err := loadOrderLines(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	order.Lines = lines

	return order, nil
}

func GetOrder(ctx context.Context, db *sql.DB, id int64) (*models.Order, error) {
	return getOrderWithLines(ctx, db, id)
}

// ListFulfilledOrders returns a user's completed orders, most recent first.
func ListFulfilledOrders(ctx context.Context, db *sql.DB, userID int64) ([]models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1 AND fulfilled
		ORDER BY fulfilled_at DESC, id DESC`

	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list fulfilled orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		var fulfilledAt sql.NullTime
		var addressID, paymentID sql.NullInt64

		err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.Fulfilled,
			&order.CreatedAt,
			&fulfilledAt,
			&addressID,
			&paymentID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}

		if fulfilledAt.Valid {
			order.FulfilledAt = &fulfilledAt.Time
		}
		if addressID.Valid {
			order.ShippingAddressID = &addressID.Int64
		}
		if paymentID.Valid {
			order.PaymentID = &paymentID.Int64
		}

		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	for i := range orders {
		lines, err := loadOrderLines(ctx, db, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Lines = lines
	}

	return orders, nil
}

// GetPayment returns the payment attached to a fulfilled order.
func GetPayment(ctx context.Context, db *sql.DB, id int64) (*models.Payment, error) {
	payment := &models.Payment{}

	query := `
		SELECT id, provider_txn_id, amount, created_at
		FROM payments
		WHERE id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&payment.ID,
		&payment.ProviderTxnID,
		&payment.Amount,
		&payment.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("payment %d not found", id)
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}

	return payment, nil
}
