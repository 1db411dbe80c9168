package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/devansh-07/Sure-Shop/internal/models"
)

// CreateMessage stores a contact-form message.
func CreateMessage(ctx context.Context, db *sql.DB, userID int64, subject, body string) (*models.Message, error) {
	message := &models.Message{}

	query := `
		INSERT INTO messages (user_id, subject, body)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, subject, body, created_at`

	err := db.QueryRowContext(ctx, query, userID, subject, body).Scan(
		&message.ID,
		&message.UserID,
		&message.Subject,
		&message.Body,
		&message.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	return message, nil
}
