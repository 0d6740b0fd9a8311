package store

import (
	"context"
	"errors"

	"mathtutor-backend/internal/models"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a specific record is not found.
var ErrNotFound = errors.New("record not found")

// CreateConversationParams contains parameters for creating a conversation.
type CreateConversationParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Title  string
}

// CreateMessageParams contains parameters for appending a message to a
// conversation's log. The ID is assigned by the caller (snowflake) so that
// creation order is reflected in the ID even across store backends.
type CreateMessageParams struct {
	ID             int64
	ConversationID uuid.UUID
	Role           models.Role
	Content        string
}

// Store defines the interface for database operations.
// This allows for mocking in tests and potential DB backend switching.
type Store interface {
	// User operations
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, id uuid.UUID, upd models.UserUpdate) (*models.User, error)

	// Conversation operations
	CreateConversation(ctx context.Context, arg CreateConversationParams) (*models.Conversation, error)
	GetConversationByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	ListConversationsByUser(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error)
	TouchConversation(ctx context.Context, id uuid.UUID) error
	// DeleteConversation removes the conversation and all of its messages
	// atomically; no orphan messages may survive.
	DeleteConversation(ctx context.Context, id uuid.UUID) error

	// Message operations. Messages are append-only: no update or single
	// delete exists, removal happens only via the conversation cascade.
	CreateMessage(ctx context.Context, arg CreateMessageParams) (*models.Message, error)
	ListMessagesByConversation(ctx context.Context, conversationID uuid.UUID) ([]models.Message, error)
}
