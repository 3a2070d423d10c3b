// Package memory provides in-memory adapters for every store port. They
// back unit tests and local development; semantics mirror the durable
// adapters, including optimistic versioning and idempotent request
// creation, so tests exercise the same contracts production does.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/carelink/carelink/pkg/domain"
)

// ConversationStore implements ports.ConversationStore in memory.
// Safe for concurrent use.
type ConversationStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Conversation
}

// NewConversationStore creates an empty conversation store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{data: make(map[string]*domain.Conversation)}
}

func cloneConversation(c *domain.Conversation) *domain.Conversation {
	out := *c
	out.Extended = make(map[string]string, len(c.Extended))
	for k, v := range c.Extended {
		out.Extended[k] = v
	}
	return &out
}

// Create implements ports.ConversationStore.
func (s *ConversationStore) Create(ctx context.Context, conv *domain.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[conv.ID] = cloneConversation(conv)
	return nil
}

// Load implements ports.ConversationStore.
func (s *ConversationStore) Load(ctx context.Context, id string) (*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.data[id]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	return cloneConversation(conv), nil
}

// LoadActive implements ports.ConversationStore.
func (s *ConversationStore) LoadActive(ctx context.Context, seniorID, campaign string) (*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, conv := range s.data {
		if conv.Active && conv.SeniorID == seniorID && conv.Campaign == campaign {
			return cloneConversation(conv), nil
		}
	}
	return nil, domain.ErrConversationNotFound
}

// Save implements ports.ConversationStore with an optimistic version check.
func (s *ConversationStore) Save(ctx context.Context, conv *domain.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.data[conv.ID]
	if !ok {
		return domain.ErrConversationNotFound
	}
	if stored.Version != conv.Version {
		return domain.ErrVersionConflict
	}

	next := cloneConversation(conv)
	next.Version++
	next.UpdatedAt = time.Now().UTC()
	s.data[conv.ID] = next

	conv.Version = next.Version
	conv.UpdatedAt = next.UpdatedAt
	return nil
}

// MessageStore implements ports.MessageStore in memory.
type MessageStore struct {
	mu   sync.RWMutex
	data []domain.Message
}

// NewMessageStore creates an empty message journal.
func NewMessageStore() *MessageStore {
	return &MessageStore{}
}

// Append implements ports.MessageStore.
func (s *MessageStore) Append(ctx context.Context, msg *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append(s.data, *msg)
	return nil
}

// ListByConversation implements ports.MessageStore.
func (s *MessageStore) ListByConversation(ctx context.Context, conversationID string) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Message
	for _, m := range s.data {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// DeleteByConversation implements ports.MessageStore.
func (s *MessageStore) DeleteByConversation(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.data[:0]
	for _, m := range s.data {
		if m.ConversationID != conversationID {
			kept = append(kept, m)
		}
	}
	s.data = kept
	return nil
}

// DraftStore implements ports.DraftStore in memory.
type DraftStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Draft
}

// NewDraftStore creates an empty draft store.
func NewDraftStore() *DraftStore {
	return &DraftStore{data: make(map[string]*domain.Draft)}
}

// Create implements ports.DraftStore.
func (s *DraftStore) Create(ctx context.Context, draft *domain.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *draft
	s.data[draft.ID] = &copied
	return nil
}

// Get implements ports.DraftStore.
func (s *DraftStore) Get(ctx context.Context, id string) (*domain.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	draft, ok := s.data[id]
	if !ok {
		return nil, domain.ErrDraftNotFound
	}
	copied := *draft
	return &copied, nil
}

// Update implements ports.DraftStore.
func (s *DraftStore) Update(ctx context.Context, draft *domain.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[draft.ID]; !ok {
		return domain.ErrDraftNotFound
	}
	copied := *draft
	s.data[draft.ID] = &copied
	return nil
}

// Delete implements ports.DraftStore. Deleting an unknown ID is a no-op.
func (s *DraftStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// Len reports the number of stored drafts. Test helper.
func (s *DraftStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// RequestStore implements ports.RequestStore in memory, keyed idempotently
// by draft ID.
type RequestStore struct {
	mu      sync.RWMutex
	byDraft map[string]*domain.Request
}

// NewRequestStore creates an empty request store.
func NewRequestStore() *RequestStore {
	return &RequestStore{byDraft: make(map[string]*domain.Request)}
}

// CreateFromDraft implements ports.RequestStore.
func (s *RequestStore) CreateFromDraft(ctx context.Context, req *domain.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byDraft[req.DraftID]; ok {
		return existing.ID, nil
	}
	copied := *req
	s.byDraft[req.DraftID] = &copied
	return copied.ID, nil
}

// All returns every stored request. Test helper.
func (s *RequestStore) All() []domain.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Request, 0, len(s.byDraft))
	for _, r := range s.byDraft {
		out = append(out, *r)
	}
	return out
}
