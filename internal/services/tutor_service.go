package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"mathtutor-backend/internal/id"
	"mathtutor-backend/internal/llm"
	"mathtutor-backend/internal/models"
	"mathtutor-backend/internal/store"

	"github.com/google/uuid"
)

// DefaultConversationTitle is used when a conversation is created without
// an explicit title.
const DefaultConversationTitle = "새 대화"

// TutorService coordinates conversations, the message log, the context
// window builder and the LLM gateway. It is the only writer of
// exchange-driven rows.
type TutorService struct {
	store  store.Store
	llm    llm.Client
	ids    *id.Generator
	window int
}

// NewTutorService creates a TutorService. window bounds the context sent to
// the model per exchange; values <= 0 fall back to llm.DefaultContextWindow.
func NewTutorService(s store.Store, client llm.Client, ids *id.Generator, window int) *TutorService {
	if window <= 0 {
		window = llm.DefaultContextWindow
	}
	return &TutorService{
		store:  s,
		llm:    client,
		ids:    ids,
		window: window,
	}
}

// CreateConversation allocates a new conversation owned by userID. A nil
// title gets the default placeholder.
func (s *TutorService) CreateConversation(ctx context.Context, userID uuid.UUID, title *string) (*models.Conversation, error) {
	t := DefaultConversationTitle
	if title != nil && *title != "" {
		t = *title
	}

	conv, err := s.store.CreateConversation(ctx, store.CreateConversationParams{
		ID:     uuid.New(),
		UserID: userID,
		Title:  t,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation in store: %w", err)
	}

	return conv, nil
}

// ListConversations returns all conversations owned by userID, most
// recently active first. An empty result is not an error.
func (s *TutorService) ListConversations(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	convs, err := s.store.ListConversationsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations for user %s: %w", userID, err)
	}
	return convs, nil
}

// GetConversation returns a single conversation owned by userID.
func (s *TutorService) GetConversation(ctx context.Context, userID, conversationID uuid.UUID) (*models.Conversation, error) {
	return s.ownedConversation(ctx, userID, conversationID)
}

// GetMessages returns the conversation's full log ordered by creation time
// ascending. This is the canonical read used for display and for context
// building.
func (s *TutorService) GetMessages(ctx context.Context, userID, conversationID uuid.UUID) ([]models.Message, error) {
	if _, err := s.ownedConversation(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	msgs, err := s.store.ListMessagesByConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages for conversation %s: %w", conversationID, err)
	}
	return msgs, nil
}

// DeleteConversation removes the conversation and all of its messages.
func (s *TutorService) DeleteConversation(ctx context.Context, userID, conversationID uuid.UUID) error {
	if _, err := s.ownedConversation(ctx, userID, conversationID); err != nil {
		return err
	}

	if err := s.store.DeleteConversation(ctx, conversationID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete conversation %s: %w", conversationID, err)
	}
	return nil
}

// SolveProblem executes one question->answer exchange:
//
//	validate -> persist user message -> build context -> invoke LLM
//	-> persist assistant message -> touch conversation activity.
//
// The user message is committed before the invocation, so a model failure
// never loses the question; on failure no assistant message is written and
// LastActivity stays unchanged. A trailing unanswered user message is a
// legitimate state.
func (s *TutorService) SolveProblem(ctx context.Context, userID, conversationID uuid.UUID, question string) (string, error) {
	if question == "" {
		return "", fmt.Errorf("%w: question cannot be empty", ErrValidation)
	}

	if _, err := s.ownedConversation(ctx, userID, conversationID); err != nil {
		return "", err
	}

	if _, err := s.store.CreateMessage(ctx, store.CreateMessageParams{
		ID:             s.ids.Next(),
		ConversationID: conversationID,
		Role:           models.RoleUser,
		Content:        question,
	}); err != nil {
		return "", fmt.Errorf("failed to persist user message for conversation %s: %w", conversationID, err)
	}

	// Read the log back rather than appending in memory: the invocation
	// must see exactly what was committed.
	history, err := s.store.ListMessagesByConversation(ctx, conversationID)
	if err != nil {
		return "", fmt.Errorf("failed to load history for conversation %s: %w", conversationID, err)
	}

	window := llm.BuildContext(toChatMessages(history), s.window)

	answer, err := s.llm.CreateCompletion(ctx, window)
	if err != nil {
		log.Printf("ERROR [TutorService] SolveProblem: invocation failed for conversation %s: %v", conversationID, err)
		return "", fmt.Errorf("llm invocation for conversation %s: %w", conversationID, err)
	}

	if _, err := s.store.CreateMessage(ctx, store.CreateMessageParams{
		ID:             s.ids.Next(),
		ConversationID: conversationID,
		Role:           models.RoleAssistant,
		Content:        answer,
	}); err != nil {
		return "", fmt.Errorf("failed to persist assistant message for conversation %s: %w", conversationID, err)
	}

	if err := s.store.TouchConversation(ctx, conversationID); err != nil {
		return "", fmt.Errorf("failed to update activity for conversation %s: %w", conversationID, err)
	}

	return answer, nil
}

// ownedConversation fetches the conversation and verifies ownership.
// A conversation owned by someone else reads as not found.
func (s *TutorService) ownedConversation(ctx context.Context, userID, conversationID uuid.UUID) (*models.Conversation, error) {
	conv, err := s.store.GetConversationByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get conversation %s: %w", conversationID, err)
	}
	if conv.UserID != userID {
		return nil, store.ErrNotFound
	}
	return conv, nil
}

func toChatMessages(msgs []models.Message) []llm.ChatMessage {
	out := make([]llm.ChatMessage, len(msgs))
	for i, m := range msgs {
		out[i] = llm.ChatMessage{Role: m.Role, Content: m.Content}
	}
	return out
}
