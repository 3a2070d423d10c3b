package postgres

import (
	"context"
	"fmt"

	"github.com/carelink/carelink/pkg/domain"
)

// MessageStore implements ports.MessageStore on Postgres.
type MessageStore struct {
	db *DB
}

// NewMessageStore wraps the pool.
func NewMessageStore(db *DB) *MessageStore {
	return &MessageStore{db: db}
}

// Append implements ports.MessageStore.
func (s *MessageStore) Append(ctx context.Context, msg *domain.Message) error {
	_, err := s.db.Pool.Exec(ctx, `
		insert into messages (id, conversation_id, direction, content, event, created_at)
		values ($1, $2, $3, $4, $5, $6)`,
		msg.ID, msg.ConversationID, string(msg.Direction), msg.Content, msg.Event, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListByConversation implements ports.MessageStore.
func (s *MessageStore) ListByConversation(ctx context.Context, conversationID string) ([]domain.Message, error) {
	rows, err := s.db.Pool.Query(ctx, `
		select id, conversation_id, direction, content, event, created_at
		from messages where conversation_id = $1 order by created_at`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var (
			m         domain.Message
			direction string
		)
		if err := rows.Scan(&m.ID, &m.ConversationID, &direction, &m.Content, &m.Event, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Direction = domain.Direction(direction)
		out = append(out, m)
	}
	return out, rows.Err()
}

// DeleteByConversation implements ports.MessageStore.
func (s *MessageStore) DeleteByConversation(ctx context.Context, conversationID string) error {
	_, err := s.db.Pool.Exec(ctx,
		"delete from messages where conversation_id = $1", conversationID)
	if err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	return nil
}
