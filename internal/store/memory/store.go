// Package memory provides an in-memory store.Store implementation, used by
// tests and for running the server without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"mathtutor-backend/internal/models"
	"mathtutor-backend/internal/store"

	"github.com/google/uuid"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu            sync.RWMutex
	users         map[uuid.UUID]*models.User
	conversations map[uuid.UUID]*models.Conversation
	messages      map[uuid.UUID][]models.Message
	seq           map[uuid.UUID]int // creation order of conversations, list tiebreak
	nextSeq       int

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:         make(map[uuid.UUID]*models.User),
		conversations: make(map[uuid.UUID]*models.Conversation),
		messages:      make(map[uuid.UUID][]models.Message),
		seq:           make(map[uuid.UUID]int),
		now:           time.Now,
	}
}

// SetClock overrides the store's clock. Tests use this to get deterministic
// last-activity ordering.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cp := *user
	cp.CreatedAt = now
	cp.UpdatedAt = now
	s.users[cp.ID] = &cp
	return nil
}

func (s *Store) UpdateUser(_ context.Context, id uuid.UUID, upd models.UserUpdate) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}

	next := models.ApplyUserUpdate(*existing, upd)
	next.UpdatedAt = s.now()
	s.users[id] = &next

	cp := next
	return &cp, nil
}

func (s *Store) CreateConversation(_ context.Context, arg store.CreateConversationParams) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	conv := &models.Conversation{
		ID:           arg.ID,
		UserID:       arg.UserID,
		Title:        arg.Title,
		LastActivity: now,
		CreatedAt:    now,
	}
	s.conversations[conv.ID] = conv
	s.seq[conv.ID] = s.nextSeq
	s.nextSeq++

	cp := *conv
	return &cp, nil
}

func (s *Store) GetConversationByID(_ context.Context, id uuid.UUID) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *conv
	return &cp, nil
}

func (s *Store) ListConversationsByUser(_ context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []models.Conversation
	for _, conv := range s.conversations {
		if conv.UserID == userID {
			items = append(items, *conv)
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].LastActivity.Equal(items[j].LastActivity) {
			return items[i].LastActivity.After(items[j].LastActivity)
		}
		return s.seq[items[i].ID] > s.seq[items[j].ID]
	})

	return items, nil
}

func (s *Store) TouchConversation(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return store.ErrNotFound
	}
	conv.LastActivity = s.now()
	return nil
}

func (s *Store) DeleteConversation(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.conversations, id)
	delete(s.messages, id)
	delete(s.seq, id)
	return nil
}

func (s *Store) CreateMessage(_ context.Context, arg store.CreateMessageParams) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[arg.ConversationID]; !ok {
		return nil, store.ErrNotFound
	}

	msg := models.Message{
		ID:             arg.ID,
		ConversationID: arg.ConversationID,
		Role:           arg.Role,
		Content:        arg.Content,
		CreatedAt:      s.now(),
	}
	s.messages[arg.ConversationID] = append(s.messages[arg.ConversationID], msg)

	cp := msg
	return &cp, nil
}

func (s *Store) ListMessagesByConversation(_ context.Context, conversationID uuid.UUID) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[conversationID]
	items := make([]models.Message, len(msgs))
	copy(items, msgs)

	// Appends happen in creation order, but concurrent clocks can tie on
	// CreatedAt; the snowflake ID breaks the tie deterministically.
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})

	return items, nil
}
