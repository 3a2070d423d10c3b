package ports

import (
	"context"

	"github.com/carelink/carelink/pkg/domain"
)

// ConversationStore persists conversation snapshots. Loading reconstructs
// the automaton's resting point directly; no transition replay.
type ConversationStore interface {
	// Create inserts a fresh conversation. The record is persisted
	// immediately so the ID is reserved before the first transition runs.
	Create(ctx context.Context, conv *domain.Conversation) error

	// Load fetches a conversation by ID.
	// Returns domain.ErrConversationNotFound if absent.
	Load(ctx context.Context, id string) (*domain.Conversation, error)

	// LoadActive fetches the single active conversation for a senior and
	// campaign. Returns domain.ErrConversationNotFound if none is active.
	LoadActive(ctx context.Context, seniorID, campaign string) (*domain.Conversation, error)

	// Save writes the snapshot back. Implementations using optimistic
	// concurrency compare conv.Version and return domain.ErrVersionConflict
	// on a lost race; on success the stored version is incremented.
	Save(ctx context.Context, conv *domain.Conversation) error
}

// MessageStore is the append-only conversation journal.
type MessageStore interface {
	Append(ctx context.Context, msg *domain.Message) error

	// ListByConversation returns messages oldest first.
	ListByConversation(ctx context.Context, conversationID string) ([]domain.Message, error)

	// DeleteByConversation bulk-deletes a conversation's journal. This is
	// the only way messages are ever removed.
	DeleteByConversation(ctx context.Context, conversationID string) error
}

// DraftStore persists in-progress drafts for the action pipeline.
type DraftStore interface {
	Create(ctx context.Context, draft *domain.Draft) error

	// Get returns domain.ErrDraftNotFound if absent.
	Get(ctx context.Context, id string) (*domain.Draft, error)

	Update(ctx context.Context, draft *domain.Draft) error

	// Delete is a no-op for unknown IDs so finalize retries stay safe.
	Delete(ctx context.Context, id string) error
}

// RequestStore creates canonical requests from finalized drafts.
type RequestStore interface {
	// CreateFromDraft persists the request keyed idempotently by
	// req.DraftID: a retry with the same draft ID returns the ID of the
	// already-created record instead of inserting a duplicate.
	CreateFromDraft(ctx context.Context, req *domain.Request) (string, error)
}
