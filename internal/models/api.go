package models

import (
	"time"

	"github.com/google/uuid"
)

// --- Request Structs ---

// SignupRequest defines the expected body for the signup endpoint.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// LoginRequest defines the expected body for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateConversationRequest defines the body for creating a conversation.
// Title is optional; the service substitutes the default placeholder.
type CreateConversationRequest struct {
	Title *string `json:"title,omitempty"`
}

// SolveProblemRequest defines the body for the solve endpoint.
type SolveProblemRequest struct {
	Question string `json:"question"`
}

// --- Response Structs ---

// UserResponse defines the user information returned by the API.
// Never includes the hashed password.
type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name,omitempty"`
}

// AuthResponse defines the response body for successful authentication.
type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	User        UserResponse `json:"user"`
}

// ConversationResponse is the API shape of a conversation.
type ConversationResponse struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	LastActivity time.Time `json:"last_activity"`
	CreatedAt    time.Time `json:"created_at"`
}

// ListConversationsResponse wraps the conversation list, most recently
// active first.
type ListConversationsResponse struct {
	Conversations []ConversationResponse `json:"conversations"`
}

// MessageResponse is the API shape of a single message.
type MessageResponse struct {
	ID        int64     `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ListMessagesResponse wraps a conversation's messages in creation order.
type ListMessagesResponse struct {
	Messages []MessageResponse `json:"messages"`
}

// SolveProblemResponse carries the assistant's answer for one exchange.
type SolveProblemResponse struct {
	Answer string `json:"answer"`
}

// ErrorResponse defines the standard structure for API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}
