// Package actions implements the side-effecting transition handlers of the
// campaign workflows: draft creation, the per-turn capture steps, the
// idempotent finalize, and restart. Each handler is independently
// constructible for tests and registered under its table name via Register.
package actions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink/pkg/domain"
	"github.com/carelink/carelink/pkg/ports"
	"github.com/carelink/carelink/pkg/registry"
)

// Action names as referenced by transition tables.
const (
	NameCreateDraft        = "createDraft"
	NameCaptureType        = "captureType"
	NameCaptureTitle       = "captureTitle"
	NameCaptureDescription = "captureDescription"
	NameCapturePriority    = "capturePriority"
	NameFinalize           = "finalize"
	NameAutoRestart        = "autoRestart"

	// NameCompleteRequest is capturePriority followed by finalize. The
	// priority reply is the last collected field, so the tables route it
	// straight to the terminal state and need both steps on one edge.
	NameCompleteRequest = "completeRequest"
)

// priorityByTrigger maps priority triggers to their fixed levels. The
// trigger name itself is the input here, not free text; an unmapped name is
// a programmer error surfaced as fatal, never retried as user input.
var priorityByTrigger = map[string]int{
	"PRIORITY_LOW":    domain.PriorityLow,
	"PRIORITY_MEDIUM": domain.PriorityMedium,
	"PRIORITY_HIGH":   domain.PriorityHigh,
}

// Deps bundles the collaborators the default action set needs.
type Deps struct {
	Drafts   ports.DraftStore
	Requests ports.RequestStore

	// Types is the exact-match lookup from request type name to ID,
	// built once at wiring time (see BuildTypeIndex).
	Types map[string]string

	// NewID overrides ID generation; defaults to UUIDs.
	NewID func() string
}

func (d Deps) newID() string {
	if d.NewID != nil {
		return d.NewID()
	}
	return uuid.NewString()
}

// BuildTypeIndex materializes the capture-type lookup table from the known
// request types.
func BuildTypeIndex(ctx context.Context, src ports.RequestTypeSource) (map[string]string, error) {
	types, err := src.ListRequestTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list request types: %w", err)
	}
	index := make(map[string]string, len(types))
	for _, rt := range types {
		index[rt.Name] = rt.ID
	}
	return index, nil
}

// Register binds the default action set under its table names.
func Register(reg *registry.Registry, deps Deps) {
	reg.RegisterAction(NameCreateDraft, NewCreateDraft(deps))
	reg.RegisterAction(NameCaptureType, NewCaptureType(deps))
	reg.RegisterAction(NameCaptureTitle, NewCaptureTitle(deps))
	reg.RegisterAction(NameCaptureDescription, NewCaptureDescription(deps))
	reg.RegisterAction(NameCapturePriority, NewCapturePriority(deps))
	reg.RegisterAction(NameFinalize, NewFinalize(deps))
	reg.RegisterAction(NameAutoRestart, NewAutoRestart(deps))
	reg.RegisterAction(NameCompleteRequest, Compose(NewCapturePriority(deps), NewFinalize(deps)))
}

// Compose chains actions into one handler, stopping at the first error.
func Compose(steps ...registry.Action) registry.Action {
	return func(ctx context.Context, turn *registry.Turn) error {
		for _, step := range steps {
			if err := step(ctx, turn); err != nil {
				return err
			}
		}
		return nil
	}
}

// NewCreateDraft creates the conversation's draft on campaign entry and
// records its ID in the extended state.
func NewCreateDraft(deps Deps) registry.Action {
	return func(ctx context.Context, turn *registry.Turn) error {
		seniorID := turn.Header(registry.HeaderSeniorID)
		if seniorID == "" {
			return domain.NewValidationError("seniorId", "missing sender identity")
		}

		now := time.Now().UTC()
		draft := &domain.Draft{
			ID:        deps.newID(),
			SeniorID:  seniorID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := deps.Drafts.Create(ctx, draft); err != nil {
			return fmt.Errorf("create draft: %w", err)
		}

		turn.State.SetDraftID(draft.ID)
		return nil
	}
}

// NewCaptureTitle copies the inbound free text into the draft's title.
func NewCaptureTitle(deps Deps) registry.Action {
	return captureText(deps, "title", func(d *domain.Draft, text string) {
		d.Title = text
	})
}

// NewCaptureDescription copies the inbound free text into the draft's
// description.
func NewCaptureDescription(deps Deps) registry.Action {
	return captureText(deps, "description", func(d *domain.Draft, text string) {
		d.Description = text
	})
}

func captureText(deps Deps, field string, apply func(*domain.Draft, string)) registry.Action {
	return func(ctx context.Context, turn *registry.Turn) error {
		text := strings.TrimSpace(turn.Text)
		if text == "" {
			return domain.NewValidationError(field, "must not be blank")
		}

		draft, err := loadDraft(ctx, deps, turn)
		if err != nil {
			return err
		}

		apply(draft, text)
		draft.UpdatedAt = time.Now().UTC()
		if err := deps.Drafts.Update(ctx, draft); err != nil {
			return fmt.Errorf("update draft: %w", err)
		}
		return nil
	}
}

// NewCaptureType maps the inbound text to a request type ID by exact match
// against the known type names.
func NewCaptureType(deps Deps) registry.Action {
	return func(ctx context.Context, turn *registry.Turn) error {
		text := strings.TrimSpace(turn.Text)
		if text == "" {
			return domain.NewValidationError("requestType", "must not be blank")
		}

		typeID, ok := deps.Types[text]
		if !ok {
			return &domain.InvalidRequestTypeError{Text: text}
		}

		draft, err := loadDraft(ctx, deps, turn)
		if err != nil {
			return err
		}

		draft.RequestTypeID = typeID
		draft.UpdatedAt = time.Now().UTC()
		if err := deps.Drafts.Update(ctx, draft); err != nil {
			return fmt.Errorf("update draft: %w", err)
		}
		return nil
	}
}

// NewCapturePriority maps the trigger name itself to a fixed priority
// level. A trigger outside the mapping means the table and the action set
// diverged: the error is not a ValidationError, so dispatch treats it as
// fatal and runs the error hook instead of re-prompting the user.
func NewCapturePriority(deps Deps) registry.Action {
	return func(ctx context.Context, turn *registry.Turn) error {
		priority, ok := priorityByTrigger[turn.Event]
		if !ok {
			return fmt.Errorf("trigger %q has no priority mapping", turn.Event)
		}

		draft, err := loadDraft(ctx, deps, turn)
		if err != nil {
			return err
		}

		draft.Priority = priority
		draft.UpdatedAt = time.Now().UTC()
		if err := deps.Drafts.Update(ctx, draft); err != nil {
			return fmt.Errorf("update draft: %w", err)
		}
		return nil
	}
}

// NewFinalize validates the completed draft, promotes it to a canonical
// request, and deletes it. The request store keys creation by the draft ID,
// so a crash-retry between the create and the delete cannot produce a
// duplicate record.
func NewFinalize(deps Deps) registry.Action {
	return func(ctx context.Context, turn *registry.Turn) error {
		draft, err := loadDraft(ctx, deps, turn)
		if err != nil {
			return err
		}

		switch {
		case draft.RequestTypeID == "":
			return domain.NewValidationError("requestType", "not captured")
		case strings.TrimSpace(draft.Title) == "":
			return domain.NewValidationError("title", "not captured")
		case strings.TrimSpace(draft.Description) == "":
			return domain.NewValidationError("description", "not captured")
		case draft.Priority == 0:
			return domain.NewValidationError("priority", "not captured")
		}

		requestID, err := deps.Requests.CreateFromDraft(ctx, &domain.Request{
			ID:            deps.newID(),
			SeniorID:      draft.SeniorID,
			RequestTypeID: draft.RequestTypeID,
			Title:         draft.Title,
			Description:   draft.Description,
			Priority:      draft.Priority,
			DraftID:       draft.ID,
			CreatedAt:     time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		turn.State.SetFinalRequestID(requestID)

		if err := deps.Drafts.Delete(ctx, draft.ID); err != nil {
			return fmt.Errorf("delete draft: %w", err)
		}
		return nil
	}
}

// NewAutoRestart abandons the data collected so far: the draft is deleted
// and the extended state emptied, so re-entering the campaign starts from
// a clean slate.
func NewAutoRestart(deps Deps) registry.Action {
	return func(ctx context.Context, turn *registry.Turn) error {
		if draftID, ok := turn.State.DraftID(); ok {
			if err := deps.Drafts.Delete(ctx, draftID); err != nil {
				return fmt.Errorf("delete draft: %w", err)
			}
		}
		turn.State.Clear()
		return nil
	}
}

func loadDraft(ctx context.Context, deps Deps, turn *registry.Turn) (*domain.Draft, error) {
	draftID, ok := turn.State.DraftID()
	if !ok {
		return nil, fmt.Errorf("conversation %q carries no draft", turn.ConversationID)
	}
	draft, err := deps.Drafts.Get(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("load draft %q: %w", draftID, err)
	}
	return draft, nil
}
