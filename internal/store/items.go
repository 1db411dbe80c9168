package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/devansh-07/Sure-Shop/internal/database"
	"github.com/devansh-07/Sure-Shop/internal/models"
)

// querier is satisfied by both *sql.DB and *sql.Tx so catalog reads can run
// inside or outside a transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

const itemColumns = `id, name, description, price, discount_price, category, label, slug, created_at`

func scanItem(row *sql.Row) (*models.Item, error) {
	item := &models.Item{}
	var discount decimal.NullDecimal

	err := row.Scan(
		&item.ID,
		&item.Name,
		&item.Description,
		&item.Price,
		&discount,
		&item.Category,
		&item.Label,
		&item.Slug,
		&item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if discount.Valid {
		item.DiscountPrice = &discount.Decimal
	}

	return item, nil
}

func GetItemBySlug(ctx context.Context, q querier, slug string) (*models.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM items
		WHERE slug = $1`

	item, err := scanItem(q.QueryRowContext(ctx, query, slug))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrItemNotFound
		}
		return nil, fmt.Errorf("get item by slug: %w", err)
	}

	return item, nil
}

// ListItems returns an offset page of catalog items, optionally restricted
// to a single category.
func ListItems(ctx context.Context, db *sql.DB, category models.Category, page, pageSize int) (*OffsetPage, error) {
	countQuery := `SELECT COUNT(*) FROM items WHERE $1::text = '' OR category = $1`

	var total int64
	if err := db.QueryRowContext(ctx, countQuery, string(category)).Scan(&total); err != nil {
		return nil, fmt.Errorf("count items: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT ` + itemColumns + `
		FROM items
		WHERE $1::text = '' OR category = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	rows, err := db.QueryContext(ctx, query, string(category), pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		var item models.Item
		var discount decimal.NullDecimal

		err := rows.Scan(
			&item.ID,
			&item.Name,
			&item.Description,
			&item.Price,
			&discount,
			&item.Category,
			&item.Label,
			&item.Slug,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}

		if discount.Valid {
			item.DiscountPrice = &discount.Decimal
		}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &OffsetPage{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}
