package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/carelink/carelink/pkg/domain"
)

// DraftStore implements ports.DraftStore on Postgres.
type DraftStore struct {
	db *DB
}

// NewDraftStore wraps the pool.
func NewDraftStore(db *DB) *DraftStore {
	return &DraftStore{db: db}
}

// Create implements ports.DraftStore.
func (s *DraftStore) Create(ctx context.Context, draft *domain.Draft) error {
	_, err := s.db.Pool.Exec(ctx, `
		insert into drafts (id, senior_id, request_type_id, title, description, priority, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8)`,
		draft.ID, draft.SeniorID, draft.RequestTypeID, draft.Title, draft.Description, draft.Priority, draft.CreatedAt, draft.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert draft: %w", err)
	}
	return nil
}

// Get implements ports.DraftStore.
func (s *DraftStore) Get(ctx context.Context, id string) (*domain.Draft, error) {
	var d domain.Draft
	err := s.db.Pool.QueryRow(ctx, `
		select id, senior_id, request_type_id, title, description, priority, created_at, updated_at
		from drafts where id = $1`, id,
	).Scan(&d.ID, &d.SeniorID, &d.RequestTypeID, &d.Title, &d.Description, &d.Priority, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan draft: %w", err)
	}
	return &d, nil
}

// Update implements ports.DraftStore.
func (s *DraftStore) Update(ctx context.Context, draft *domain.Draft) error {
	tag, err := s.db.Pool.Exec(ctx, `
		update drafts
		set request_type_id = $1, title = $2, description = $3, priority = $4, updated_at = $5
		where id = $6`,
		draft.RequestTypeID, draft.Title, draft.Description, draft.Priority, draft.UpdatedAt, draft.ID,
	)
	if err != nil {
		return fmt.Errorf("update draft: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDraftNotFound
	}
	return nil
}

// Delete implements ports.DraftStore. Unknown IDs are a no-op so finalize
// retries stay safe.
func (s *DraftStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.Pool.Exec(ctx, "delete from drafts where id = $1", id)
	if err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}
