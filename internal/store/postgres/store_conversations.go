package postgres

import (
	"context"
	"errors"
	"fmt"

	"mathtutor-backend/internal/models"
	"mathtutor-backend/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const createConversation = `-- name: CreateConversation :one
INSERT INTO conversations (
    id, user_id, title
) VALUES (
    $1, $2, $3
)
RETURNING id, user_id, title, last_activity, created_at;
`

func (s *PostgresStore) CreateConversation(ctx context.Context, arg store.CreateConversationParams) (*models.Conversation, error) {
	row := s.db.QueryRow(ctx, createConversation, arg.ID, arg.UserID, arg.Title)

	var conv models.Conversation
	err := row.Scan(
		&conv.ID,
		&conv.UserID,
		&conv.Title,
		&conv.LastActivity,
		&conv.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("error scanning created conversation: %w", err)
	}

	return &conv, nil
}

const getConversationByID = `-- name: GetConversationByID :one
SELECT id, user_id, title, last_activity, created_at
FROM conversations
WHERE id = $1;
`

func (s *PostgresStore) GetConversationByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	row := s.db.QueryRow(ctx, getConversationByID, id)

	var conv models.Conversation
	err := row.Scan(
		&conv.ID,
		&conv.UserID,
		&conv.Title,
		&conv.LastActivity,
		&conv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("error scanning conversation %s: %w", id, err)
	}

	return &conv, nil
}

const listConversationsByUser = `-- name: ListConversationsByUser :many
SELECT id, user_id, title, last_activity, created_at
FROM conversations
WHERE user_id = $1
ORDER BY last_activity DESC, id DESC;
`

// ListConversationsByUser returns all conversations owned by the user,
// most recently active first. The ordering is a user-facing guarantee.
func (s *PostgresStore) ListConversationsByUser(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	rows, err := s.db.Query(ctx, listConversationsByUser, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying conversations for user %s: %w", userID, err)
	}
	defer rows.Close()

	var items []models.Conversation
	for rows.Next() {
		var conv models.Conversation
		if err := rows.Scan(
			&conv.ID,
			&conv.UserID,
			&conv.Title,
			&conv.LastActivity,
			&conv.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning conversation row: %w", err)
		}
		items = append(items, conv)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversation rows: %w", err)
	}

	return items, nil
}

const touchConversation = `-- name: TouchConversation :exec
UPDATE conversations
SET last_activity = NOW()
WHERE id = $1;
`

// TouchConversation advances the conversation's last-activity timestamp.
// Called once per completed exchange, after the assistant message commits.
func (s *PostgresStore) TouchConversation(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, touchConversation, id)
	if err != nil {
		return fmt.Errorf("error touching conversation %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteConversation removes a conversation and all of its messages in one
// transaction, so observers never see a half-deleted state.
func (s *PostgresStore) DeleteConversation(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error beginning delete transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM messages WHERE conversation_id = $1`, id); err != nil {
		return fmt.Errorf("error deleting messages for conversation %s: %w", id, err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting conversation %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("error committing delete of conversation %s: %w", id, err)
	}
	return nil
}
