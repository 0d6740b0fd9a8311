package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a user in the database.
type User struct {
	ID             uuid.UUID `db:"id"`
	Email          string    `db:"email"`
	Name           string    `db:"name"`
	HashedPassword string    `db:"hashed_password"`
	LastSignedIn   time.Time `db:"last_signed_in"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Conversation represents a tutoring conversation owned by a single user.
// LastActivity advances exactly once per completed exchange and drives the
// ordering of conversation lists.
type Conversation struct {
	ID           uuid.UUID `db:"id"`
	UserID       uuid.UUID `db:"user_id"`
	Title        string    `db:"title"`
	LastActivity time.Time `db:"last_activity"`
	CreatedAt    time.Time `db:"created_at"`
}

// Message is one entry in a conversation's append-only log. IDs are
// snowflake-generated and monotonically reflect creation order, so
// (CreatedAt, ID) gives a total order even under concurrent exchanges.
type Message struct {
	ID             int64     `db:"id"`
	ConversationID uuid.UUID `db:"conversation_id"`
	Role           Role      `db:"role"`
	Content        string    `db:"content"`
	CreatedAt      time.Time `db:"created_at"`
}
