package domain

import "time"

// Priority levels for a request. Zero means "not captured yet".
const (
	PriorityLow    = 1
	PriorityMedium = 2
	PriorityHigh   = 3
)

// Draft is the in-progress request being assembled turn by turn.
// It is owned exclusively by the action pipeline for the lifetime of one
// conversation's data-collection phase and must never outlive it: the
// finalize action consumes and deletes it, and restart empties it.
type Draft struct {
	ID            string
	SeniorID      string
	RequestTypeID string // empty until captured
	Title         string
	Description   string
	Priority      int // 0 until captured

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Reset empties every captured field, keeping identity. Used by restart.
func (d *Draft) Reset() {
	d.RequestTypeID = ""
	d.Title = ""
	d.Description = ""
	d.Priority = 0
}

// Request is the canonical, finalized record promoted from a Draft.
type Request struct {
	ID            string
	SeniorID      string
	RequestTypeID string
	Title         string
	Description   string
	Priority      int

	// DraftID is the idempotency key: creating a request twice from the
	// same draft (a crash-retry of finalize) must yield one record.
	DraftID string

	CreatedAt time.Time
}

// RequestType is a known category of request, matched exactly by name
// during the capture-type step.
type RequestType struct {
	ID   string
	Name string
}
