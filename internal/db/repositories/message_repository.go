// message_repository.go implements MessageRepository, providing database
// queries for broadcast messages and their per-user read receipts.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/council-portal/council-portal/internal/db/models"
)

// MessageRepository handles database operations for messages
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// MessageFilters contains filters for listing messages. The read projection
// and the Unread filter are both evaluated against UserID's receipts.
type MessageFilters struct {
	UserID   string
	Unread   *bool
	Audience string
}

// CreateMessage inserts a new message record
func (r *MessageRepository) CreateMessage(ctx context.Context, message *models.Message) error {
	query := `
		INSERT INTO messages (subject, body, target_audience, attachments, sent_by, sent_by_name)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		message.Subject,
		message.Body,
		message.TargetAudience,
		pq.Array(message.Attachments),
		message.SentBy,
		message.SentByName,
	).Scan(&message.ID, &message.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	return nil
}

// GetMessageByID retrieves a message with the read flag projected for userID
func (r *MessageRepository) GetMessageByID(ctx context.Context, id, userID string) (*models.Message, error) {
	query := `
		SELECT m.id, m.subject, m.body, m.target_audience, m.attachments,
		       m.sent_by, m.sent_by_name, m.created_at,
		       EXISTS (
		           SELECT 1 FROM message_reads mr
		           WHERE mr.message_id = m.id AND mr.user_id = $2
		       ) AS read
		FROM messages m
		WHERE m.id = $1
	`

	message, err := scanMessage(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return message, nil
}

// ListMessages retrieves messages matching the filters, newest first, with
// the read flag projected for the filtering user, along with the total count
// before pagination.
func (r *MessageRepository) ListMessages(ctx context.Context, filters MessageFilters, limit, offset int) ([]*models.Message, int, error) {
	readClauseAt := func(n int) string {
		return fmt.Sprintf(`EXISTS (SELECT 1 FROM message_reads mr WHERE mr.message_id = m.id AND mr.user_id = $%d)`, n)
	}

	// Every placeholder the count query references must have a matching arg
	// and nothing more, so UserID joins the args only when a clause uses it.
	where := ` WHERE 1=1`
	countArgs := make([]interface{}, 0)
	paramIndex := 1

	if filters.Audience != "" {
		where += fmt.Sprintf(` AND m.target_audience = $%d`, paramIndex)
		countArgs = append(countArgs, filters.Audience)
		paramIndex++
	}
	if filters.Unread != nil {
		if *filters.Unread {
			where += ` AND NOT ` + readClauseAt(paramIndex)
		} else {
			where += ` AND ` + readClauseAt(paramIndex)
		}
		countArgs = append(countArgs, filters.UserID)
		paramIndex++
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM messages m` + where
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	query := `
		SELECT m.id, m.subject, m.body, m.target_audience, m.attachments,
		       m.sent_by, m.sent_by_name, m.created_at, ` + readClauseAt(paramIndex) + ` AS read
		FROM messages m` + where +
		fmt.Sprintf(` ORDER BY m.created_at DESC LIMIT $%d OFFSET $%d`, paramIndex+1, paramIndex+2)
	args := append(append(make([]interface{}, 0, len(countArgs)+3), countArgs...), filters.UserID, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*models.Message, 0)
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return messages, total, nil
}

// MessageExists reports whether a message with the id exists
func (r *MessageRepository) MessageExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM messages WHERE id = $1)`
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, fmt.Errorf("failed to check message: %w", err)
	}
	return exists, nil
}

// MarkRead records that userID has read the message. The insert is
// idempotent: re-marking an already-read message leaves exactly one receipt
// and is not an error.
func (r *MessageRepository) MarkRead(ctx context.Context, messageID, userID string) error {
	query := `
		INSERT INTO message_reads (message_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (message_id, user_id) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, messageID, userID); err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	return nil
}

func scanMessage(row scanner) (*models.Message, error) {
	message := &models.Message{}
	err := row.Scan(
		&message.ID,
		&message.Subject,
		&message.Body,
		&message.TargetAudience,
		pq.Array(&message.Attachments),
		&message.SentBy,
		&message.SentByName,
		&message.CreatedAt,
		&message.Read,
	)
	if err != nil {
		return nil, err
	}
	return message, nil
}
