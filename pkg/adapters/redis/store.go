// Package redis persists conversation snapshots in Redis and provides the
// distributed locker used by multi-replica deployments. Suited for
// installations that keep drafts and requests in Postgres but want cheap,
// TTL-capable conversation state.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/carelink/carelink/pkg/domain"
	"github.com/carelink/carelink/pkg/extstate"
)

// Store implements ports.ConversationStore on Redis.
//
// Save performs a read-compare-write version check rather than a WATCH
// transaction; the engine's per-conversation locking already serializes
// writers, the check only catches misuse.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures the Store.
type Option func(*Store)

// WithTTL sets the expiration for conversation snapshots.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a Redis store with its own client.
func New(address, password string, db int, opts ...Option) *Store {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "carelink:conversation:",
		ttl:    0, // no expiration by default
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// snapshot is the stored representation. Extended state is embedded as the
// versioned extstate envelope so the encoding stays identical across
// storage backends.
type snapshot struct {
	ID           string          `json:"id"`
	SeniorID     string          `json:"senior_id"`
	Campaign     string          `json:"campaign"`
	CurrentState string          `json:"current_state"`
	Extended     json.RawMessage `json:"ext"`
	Active       bool            `json:"active"`
	Version      int64           `json:"version"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

func (s *Store) activeKey(seniorID, campaign string) string {
	return s.prefix + "active:" + campaign + ":" + seniorID
}

func (s *Store) marshal(conv *domain.Conversation) ([]byte, error) {
	ext, err := extstate.Encode(extstate.Bag(conv.Extended))
	if err != nil {
		return nil, err
	}
	return json.Marshal(snapshot{
		ID:           conv.ID,
		SeniorID:     conv.SeniorID,
		Campaign:     conv.Campaign,
		CurrentState: conv.CurrentState,
		Extended:     ext,
		Active:       conv.Active,
		Version:      conv.Version,
		CreatedAt:    conv.CreatedAt,
		UpdatedAt:    conv.UpdatedAt,
	})
}

func (s *Store) unmarshal(data []byte) (*domain.Conversation, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal conversation: %w", err)
	}
	bag, err := extstate.Decode(snap.Extended)
	if err != nil {
		return nil, err
	}
	return &domain.Conversation{
		ID:           snap.ID,
		SeniorID:     snap.SeniorID,
		Campaign:     snap.Campaign,
		CurrentState: snap.CurrentState,
		Extended:     map[string]string(bag),
		Active:       snap.Active,
		Version:      snap.Version,
		CreatedAt:    snap.CreatedAt,
		UpdatedAt:    snap.UpdatedAt,
	}, nil
}

// Create implements ports.ConversationStore.
func (s *Store) Create(ctx context.Context, conv *domain.Conversation) error {
	data, err := s.marshal(conv)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(conv.ID), data, s.ttl)
	if conv.Active {
		pipe.Set(ctx, s.activeKey(conv.SeniorID, conv.Campaign), conv.ID, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save to redis: %w", err)
	}
	return nil
}

// Load implements ports.ConversationStore.
func (s *Store) Load(ctx context.Context, id string) (*domain.Conversation, error) {
	val, err := s.client.Get(ctx, s.key(id)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, fmt.Errorf("get from redis: %w", err)
	}
	return s.unmarshal([]byte(val))
}

// LoadActive implements ports.ConversationStore.
func (s *Store) LoadActive(ctx context.Context, seniorID, campaign string) (*domain.Conversation, error) {
	id, err := s.client.Get(ctx, s.activeKey(seniorID, campaign)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, fmt.Errorf("get from redis: %w", err)
	}

	conv, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !conv.Active {
		return nil, domain.ErrConversationNotFound
	}
	return conv, nil
}

// Save implements ports.ConversationStore.
func (s *Store) Save(ctx context.Context, conv *domain.Conversation) error {
	stored, err := s.Load(ctx, conv.ID)
	if err != nil {
		return err
	}
	if stored.Version != conv.Version {
		return domain.ErrVersionConflict
	}

	conv.Version++
	conv.UpdatedAt = time.Now().UTC()

	data, err := s.marshal(conv)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(conv.ID), data, s.ttl)
	if conv.Active {
		pipe.Set(ctx, s.activeKey(conv.SeniorID, conv.Campaign), conv.ID, s.ttl)
	} else {
		pipe.Del(ctx, s.activeKey(conv.SeniorID, conv.Campaign))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save to redis: %w", err)
	}
	return nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
