package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mathtutor-backend/internal/id"
	"mathtutor-backend/internal/llm"
	"mathtutor-backend/internal/models"
	"mathtutor-backend/internal/services"
	"mathtutor-backend/internal/store"
	"mathtutor-backend/internal/store/memory"

	"github.com/google/uuid"
)

// fakeClock hands out strictly increasing timestamps so last-activity
// ordering is deterministic in tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Millisecond)
	return c.t
}

func newTestService(t *testing.T, client llm.Client) (*services.TutorService, *memory.Store) {
	t.Helper()

	st := memory.NewStore()
	st.SetClock(newFakeClock().Now)

	gen, err := id.NewGenerator(1)
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	return services.NewTutorService(st, client, gen, 10), st
}

func TestSolveProblemSuccess(t *testing.T) {
	ctx := context.Background()
	mock := &llm.MockClient{Reply: "답: 4"}
	svc, _ := newTestService(t, mock)

	userID := uuid.New()
	conv, err := svc.CreateConversation(ctx, userID, nil)
	if err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}
	if conv.Title != services.DefaultConversationTitle {
		t.Fatalf("expected default title %q, got %q", services.DefaultConversationTitle, conv.Title)
	}

	answer, err := svc.SolveProblem(ctx, userID, conv.ID, "2+2는?")
	if err != nil {
		t.Fatalf("SolveProblem failed: %v", err)
	}
	if answer != "답: 4" {
		t.Fatalf("expected answer %q, got %q", "답: 4", answer)
	}

	msgs, err := svc.GetMessages(ctx, userID, conv.ID)
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected exactly 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != models.RoleUser || msgs[0].Content != "2+2는?" {
		t.Fatalf("unexpected first message: %+v", msgs[0])
	}
	if msgs[1].Role != models.RoleAssistant || msgs[1].Content != "답: 4" {
		t.Fatalf("unexpected second message: %+v", msgs[1])
	}
	if !msgs[0].CreatedAt.Before(msgs[1].CreatedAt) {
		t.Fatal("user message must precede assistant message")
	}
	if msgs[0].ID >= msgs[1].ID {
		t.Fatal("message IDs must reflect creation order")
	}

	// LastActivity advanced exactly once, past the creation timestamp.
	convs, err := svc.ListConversations(ctx, userID)
	if err != nil {
		t.Fatalf("ListConversations failed: %v", err)
	}
	if !convs[0].LastActivity.After(conv.LastActivity) {
		t.Fatal("expected LastActivity to advance after a completed exchange")
	}
}

func TestSolveProblemInvocationFailure(t *testing.T) {
	ctx := context.Background()
	mock := &llm.MockClient{Err: &llm.InvocationError{Kind: llm.KindTimeout, Err: context.DeadlineExceeded}}
	svc, _ := newTestService(t, mock)

	userID := uuid.New()
	conv, err := svc.CreateConversation(ctx, userID, nil)
	if err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}

	_, err = svc.SolveProblem(ctx, userID, conv.ID, "적분 문제 풀어줘")
	if err == nil {
		t.Fatal("expected SolveProblem to fail")
	}

	var invErr *llm.InvocationError
	if !errors.As(err, &invErr) {
		t.Fatalf("expected *llm.InvocationError, got %T: %v", err, err)
	}
	if invErr.Kind != llm.KindTimeout {
		t.Fatalf("expected timeout kind, got %q", invErr.Kind)
	}

	// The user message survives; no assistant row is added.
	msgs, err := svc.GetMessages(ctx, userID, conv.ID)
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected exactly 1 message after failed exchange, got %d", len(msgs))
	}
	if msgs[0].Role != models.RoleUser || msgs[0].Content != "적분 문제 풀어줘" {
		t.Fatalf("unexpected surviving message: %+v", msgs[0])
	}

	// LastActivity untouched by the failed exchange.
	convs, err := svc.ListConversations(ctx, userID)
	if err != nil {
		t.Fatalf("ListConversations failed: %v", err)
	}
	if !convs[0].LastActivity.Equal(conv.LastActivity) {
		t.Fatal("expected LastActivity to stay unchanged after a failed exchange")
	}
}

func TestSolveProblemValidation(t *testing.T) {
	ctx := context.Background()
	mock := &llm.MockClient{Reply: "unused"}
	svc, _ := newTestService(t, mock)

	userID := uuid.New()
	conv, err := svc.CreateConversation(ctx, userID, nil)
	if err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}

	if _, err := svc.SolveProblem(ctx, userID, conv.ID, ""); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty question, got %v", err)
	}
	if len(mock.Requests) != 0 {
		t.Fatal("gateway must not be invoked for invalid input")
	}

	if _, err := svc.SolveProblem(ctx, userID, uuid.New(), "1+1은?"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown conversation, got %v", err)
	}

	// Someone else's conversation reads as not found.
	if _, err := svc.SolveProblem(ctx, uuid.New(), conv.ID, "1+1은?"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign conversation, got %v", err)
	}
}

func TestGetConversationOwnership(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, &llm.MockClient{Reply: "답"})

	userID := uuid.New()
	title := "미분"
	conv, err := svc.CreateConversation(ctx, userID, &title)
	if err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}

	got, err := svc.GetConversation(ctx, userID, conv.ID)
	if err != nil {
		t.Fatalf("GetConversation failed: %v", err)
	}
	if got.ID != conv.ID || got.Title != "미분" {
		t.Fatalf("unexpected conversation: %+v", got)
	}

	if _, err := svc.GetConversation(ctx, userID, uuid.New()); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown conversation, got %v", err)
	}
	if _, err := svc.GetConversation(ctx, uuid.New(), conv.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign conversation, got %v", err)
	}
}

func TestSolveProblemContextBound(t *testing.T) {
	ctx := context.Background()
	mock := &llm.MockClient{Reply: "알겠습니다"}
	svc, st := newTestService(t, mock)

	gen, err := id.NewGenerator(2)
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	userID := uuid.New()
	conv, err := svc.CreateConversation(ctx, userID, nil)
	if err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}

	// Seed 15 prior messages directly into the log.
	for i := 0; i < 15; i++ {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		if _, err := st.CreateMessage(ctx, store.CreateMessageParams{
			ID:             gen.Next(),
			ConversationID: conv.ID,
			Role:           role,
			Content:        "prior",
		}); err != nil {
			t.Fatalf("seeding message %d failed: %v", i, err)
		}
	}

	if _, err := svc.SolveProblem(ctx, userID, conv.ID, "마지막 질문"); err != nil {
		t.Fatalf("SolveProblem failed: %v", err)
	}

	if len(mock.Requests) != 1 {
		t.Fatalf("expected 1 invocation, got %d", len(mock.Requests))
	}
	sent := mock.Requests[0]
	if len(sent) != 11 {
		t.Fatalf("expected system entry plus 10 most recent messages, got %d entries", len(sent))
	}
	if sent[0].Role != models.RoleSystem {
		t.Fatalf("expected system entry first, got role %q", sent[0].Role)
	}
	if last := sent[len(sent)-1]; last.Role != models.RoleUser || last.Content != "마지막 질문" {
		t.Fatalf("expected the new question last, got %+v", last)
	}
}

func TestDeleteConversationCascades(t *testing.T) {
	ctx := context.Background()
	mock := &llm.MockClient{Reply: "답: 4"}
	svc, st := newTestService(t, mock)

	userID := uuid.New()
	conv, err := svc.CreateConversation(ctx, userID, nil)
	if err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}
	if _, err := svc.SolveProblem(ctx, userID, conv.ID, "2+2는?"); err != nil {
		t.Fatalf("SolveProblem failed: %v", err)
	}

	if err := svc.DeleteConversation(ctx, userID, conv.ID); err != nil {
		t.Fatalf("DeleteConversation failed: %v", err)
	}

	if _, err := st.GetConversationByID(ctx, conv.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected conversation row to be gone, got %v", err)
	}
	msgs, err := st.ListMessagesByConversation(ctx, conv.ID)
	if err != nil {
		t.Fatalf("ListMessagesByConversation failed: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected no orphan messages, got %d", len(msgs))
	}

	if err := svc.DeleteConversation(ctx, userID, conv.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestListConversationsOrdering(t *testing.T) {
	ctx := context.Background()
	mock := &llm.MockClient{Reply: "답"}
	svc, _ := newTestService(t, mock)

	userID := uuid.New()
	titleA, titleB := "A", "B"

	convA, err := svc.CreateConversation(ctx, userID, &titleA)
	if err != nil {
		t.Fatalf("CreateConversation A failed: %v", err)
	}
	convB, err := svc.CreateConversation(ctx, userID, &titleB)
	if err != nil {
		t.Fatalf("CreateConversation B failed: %v", err)
	}

	// B was created later, so it surfaces first.
	convs, err := svc.ListConversations(ctx, userID)
	if err != nil {
		t.Fatalf("ListConversations failed: %v", err)
	}
	if len(convs) != 2 || convs[0].ID != convB.ID || convs[1].ID != convA.ID {
		t.Fatalf("expected [B, A], got %+v", convs)
	}

	// A completed exchange in A moves it to the front.
	if _, err := svc.SolveProblem(ctx, userID, convA.ID, "1+1은?"); err != nil {
		t.Fatalf("SolveProblem failed: %v", err)
	}

	convs, err = svc.ListConversations(ctx, userID)
	if err != nil {
		t.Fatalf("ListConversations failed: %v", err)
	}
	if convs[0].ID != convA.ID || convs[1].ID != convB.ID {
		t.Fatalf("expected [A, B] after exchange in A, got %+v", convs)
	}

	// Other users see nothing.
	convs, err = svc.ListConversations(ctx, uuid.New())
	if err != nil {
		t.Fatalf("ListConversations failed: %v", err)
	}
	if len(convs) != 0 {
		t.Fatalf("expected empty list for unknown user, got %d", len(convs))
	}
}
