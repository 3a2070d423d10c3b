package postgres

import (
	"context"
	"fmt"

	"github.com/carelink/carelink/pkg/domain"
)

// RequestStore implements ports.RequestStore on Postgres. The unique
// constraint on draft_id plus ON CONFLICT DO NOTHING makes creation
// idempotent across finalize retries.
type RequestStore struct {
	db *DB
}

// NewRequestStore wraps the pool.
func NewRequestStore(db *DB) *RequestStore {
	return &RequestStore{db: db}
}

// CreateFromDraft implements ports.RequestStore.
func (s *RequestStore) CreateFromDraft(ctx context.Context, req *domain.Request) (string, error) {
	_, err := s.db.Pool.Exec(ctx, `
		insert into requests (id, senior_id, request_type_id, title, description, priority, draft_id, created_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
		on conflict (draft_id) do nothing`,
		req.ID, req.SeniorID, req.RequestTypeID, req.Title, req.Description, req.Priority, req.DraftID, req.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("insert request: %w", err)
	}

	// Return the winning row's ID, whether this call inserted it or an
	// earlier attempt did.
	var id string
	if err := s.db.Pool.QueryRow(ctx,
		"select id from requests where draft_id = $1", req.DraftID,
	).Scan(&id); err != nil {
		return "", fmt.Errorf("select request by draft: %w", err)
	}
	return id, nil
}

// RequestTypeSource implements ports.RequestTypeSource on Postgres.
type RequestTypeSource struct {
	db *DB
}

// NewRequestTypeSource wraps the pool.
func NewRequestTypeSource(db *DB) *RequestTypeSource {
	return &RequestTypeSource{db: db}
}

// ListRequestTypes implements ports.RequestTypeSource.
func (s *RequestTypeSource) ListRequestTypes(ctx context.Context) ([]domain.RequestType, error) {
	rows, err := s.db.Pool.Query(ctx, "select id, name from request_types order by name")
	if err != nil {
		return nil, fmt.Errorf("query request types: %w", err)
	}
	defer rows.Close()

	var out []domain.RequestType
	for rows.Next() {
		var rt domain.RequestType
		if err := rows.Scan(&rt.ID, &rt.Name); err != nil {
			return nil, fmt.Errorf("scan request type: %w", err)
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}
