// Package llm is the stateless boundary to the external completion service.
// It also owns the context window builder, which turns a conversation's
// persisted log into the exact role-tagged sequence sent to the model.
package llm

import (
	"context"

	"mathtutor-backend/internal/models"
)

// ChatMessage is one role-tagged entry in an outbound model request.
type ChatMessage struct {
	Role    models.Role `json:"role"`
	Content string      `json:"content"`
}

// Client defines how the orchestration engine invokes the completion
// service. Implementations must classify every failure as an
// *InvocationError and must not retry.
type Client interface {
	CreateCompletion(ctx context.Context, messages []ChatMessage) (string, error)
}
