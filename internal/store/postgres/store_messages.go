package postgres

import (
	"context"
	"errors"
	"fmt"

	"mathtutor-backend/internal/models"
	"mathtutor-backend/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const createMessage = `-- name: CreateMessage :one
INSERT INTO messages (
    id, conversation_id, role, content
) VALUES (
    $1, $2, $3, $4
)
RETURNING id, conversation_id, role, content, created_at;
`

func (s *PostgresStore) CreateMessage(ctx context.Context, arg store.CreateMessageParams) (*models.Message, error) {
	row := s.db.QueryRow(ctx, createMessage,
		arg.ID,
		arg.ConversationID,
		string(arg.Role),
		arg.Content,
	)

	var msg models.Message
	err := row.Scan(
		&msg.ID,
		&msg.ConversationID,
		&msg.Role,
		&msg.Content,
		&msg.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			// foreign_key_violation: the conversation does not exist
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("error inserting message for conversation %s: %w", arg.ConversationID, err)
	}

	return &msg, nil
}

const listMessagesByConversation = `-- name: ListMessagesByConversation :many
SELECT id, conversation_id, role, content, created_at
FROM messages
WHERE conversation_id = $1
ORDER BY created_at ASC, id ASC;
`

// ListMessagesByConversation is the canonical read of a conversation's log,
// used both for display and as the orchestration engine's context source.
func (s *PostgresStore) ListMessagesByConversation(ctx context.Context, conversationID uuid.UUID) ([]models.Message, error) {
	rows, err := s.db.Query(ctx, listMessagesByConversation, conversationID)
	if err != nil {
		return nil, fmt.Errorf("error querying messages for conversation %s: %w", conversationID, err)
	}
	defer rows.Close()

	var items []models.Message
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.Role,
			&msg.Content,
			&msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning message row: %w", err)
		}
		items = append(items, msg)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}

	return items, nil
}
