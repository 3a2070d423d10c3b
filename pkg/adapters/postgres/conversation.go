package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/carelink/carelink/pkg/domain"
	"github.com/carelink/carelink/pkg/extstate"
)

// ConversationStore implements ports.ConversationStore on Postgres.
// Extended state is stored as the versioned extstate envelope in a jsonb
// column; Save uses a version-guarded update as the optimistic backstop
// behind the engine's per-conversation locking.
type ConversationStore struct {
	db *DB
}

// NewConversationStore wraps the pool.
func NewConversationStore(db *DB) *ConversationStore {
	return &ConversationStore{db: db}
}

// Create implements ports.ConversationStore.
func (s *ConversationStore) Create(ctx context.Context, conv *domain.Conversation) error {
	ext, err := extstate.Encode(extstate.Bag(conv.Extended))
	if err != nil {
		return err
	}

	_, err = s.db.Pool.Exec(ctx, `
		insert into conversations (id, senior_id, campaign, current_state, extended, active, version, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		conv.ID, conv.SeniorID, conv.Campaign, conv.CurrentState, ext, conv.Active, conv.Version, conv.CreatedAt, conv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

func (s *ConversationStore) scan(row pgx.Row) (*domain.Conversation, error) {
	var (
		conv domain.Conversation
		ext  []byte
	)
	err := row.Scan(&conv.ID, &conv.SeniorID, &conv.Campaign, &conv.CurrentState, &ext, &conv.Active, &conv.Version, &conv.CreatedAt, &conv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan conversation: %w", err)
	}

	bag, err := extstate.Decode(ext)
	if err != nil {
		return nil, err
	}
	conv.Extended = map[string]string(bag)
	return &conv, nil
}

const conversationColumns = "id, senior_id, campaign, current_state, extended, active, version, created_at, updated_at"

// Load implements ports.ConversationStore.
func (s *ConversationStore) Load(ctx context.Context, id string) (*domain.Conversation, error) {
	row := s.db.Pool.QueryRow(ctx,
		"select "+conversationColumns+" from conversations where id = $1", id)
	return s.scan(row)
}

// LoadActive implements ports.ConversationStore.
func (s *ConversationStore) LoadActive(ctx context.Context, seniorID, campaign string) (*domain.Conversation, error) {
	row := s.db.Pool.QueryRow(ctx,
		"select "+conversationColumns+" from conversations where senior_id = $1 and campaign = $2 and active",
		seniorID, campaign)
	return s.scan(row)
}

// Save implements ports.ConversationStore.
func (s *ConversationStore) Save(ctx context.Context, conv *domain.Conversation) error {
	ext, err := extstate.Encode(extstate.Bag(conv.Extended))
	if err != nil {
		return err
	}

	updatedAt := time.Now().UTC()
	tag, err := s.db.Pool.Exec(ctx, `
		update conversations
		set current_state = $1, extended = $2, active = $3, version = version + 1, updated_at = $4
		where id = $5 and version = $6`,
		conv.CurrentState, ext, conv.Active, updatedAt, conv.ID, conv.Version,
	)
	if err != nil {
		return fmt.Errorf("update conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the row is gone or another writer bumped the version.
		if _, loadErr := s.Load(ctx, conv.ID); errors.Is(loadErr, domain.ErrConversationNotFound) {
			return domain.ErrConversationNotFound
		}
		return domain.ErrVersionConflict
	}

	conv.Version++
	conv.UpdatedAt = updatedAt
	return nil
}
