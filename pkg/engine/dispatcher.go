package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/logging"
	"github.com/carelink/carelink/pkg/domain"
	"github.com/carelink/carelink/pkg/extstate"
	"github.com/carelink/carelink/pkg/ports"
	"github.com/carelink/carelink/pkg/registry"
)

// DispatchRequest is one inbound chat reply: a pre-classified trigger plus
// the free-text payload it carried, addressed to a senior's active
// conversation for a campaign.
type DispatchRequest struct {
	Campaign string
	SeniorID string
	Trigger  string
	Text     string
	Language string
	Headers  map[string]string
}

// DispatchResult is the outcome of a committed transition: the new resting
// state and what to show the user next.
type DispatchResult struct {
	ConversationID string
	Campaign       string
	State          string
	Terminal       bool
	Prompt         string
	Options        []domain.ReplyOption
}

// Dispatcher applies inbound triggers to conversations. One dispatch runs
// to completion (or failure) synchronously; the conversation itself is the
// only thing that suspends between messages, as durable state.
type Dispatcher struct {
	catalog       *Catalog
	registry      *registry.Registry
	conversations ports.ConversationStore
	messages      ports.MessageStore
	drafts        ports.DraftStore
	prompts       ports.PromptLookup
	options       ports.OptionResolver

	locks    *lockManager
	locker   ports.DistributedLocker
	hooks    Hooks
	logger   *slog.Logger
	language string
	newID    func() string
	now      func() time.Time
}

// DispatcherOption configures the Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithHooks registers observability callbacks.
func WithHooks(hooks Hooks) DispatcherOption {
	return func(d *Dispatcher) {
		d.hooks = hooks
	}
}

// WithLogger sets a structured logger. Defaults to no-op.
func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithLocker enables distributed locking for multi-replica deployments.
func WithLocker(locker ports.DistributedLocker) DispatcherOption {
	return func(d *Dispatcher) {
		d.locker = locker
	}
}

// WithDefaultLanguage sets the language used when a request carries none.
func WithDefaultLanguage(language string) DispatcherOption {
	return func(d *Dispatcher) {
		d.language = language
	}
}

// WithIDFunc overrides ID generation (deterministic IDs in tests).
func WithIDFunc(fn func() string) DispatcherOption {
	return func(d *Dispatcher) {
		d.newID = fn
	}
}

// WithDraftStore lets Clear delete the conversation's in-progress draft
// along with the rest of its state. Without it drafts are left to the
// actions that own them.
func WithDraftStore(drafts ports.DraftStore) DispatcherOption {
	return func(d *Dispatcher) {
		d.drafts = drafts
	}
}

// NewDispatcher wires the dispatcher to its collaborators.
func NewDispatcher(
	catalog *Catalog,
	reg *registry.Registry,
	conversations ports.ConversationStore,
	messages ports.MessageStore,
	prompts ports.PromptLookup,
	options ports.OptionResolver,
	opts ...DispatcherOption,
) *Dispatcher {
	d := &Dispatcher{
		catalog:       catalog,
		registry:      reg,
		conversations: conversations,
		messages:      messages,
		prompts:       prompts,
		options:       options,
		language:      "en",
		newID:         uuid.NewString,
		now:           time.Now,
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.locks = newLockManager(d.locker, d.logger)
	return d
}

// Catalog returns the compiled-template catalog the dispatcher serves.
func (d *Dispatcher) Catalog() *Catalog {
	return d.catalog
}

// Dispatch applies one trigger to the senior's active conversation for the
// campaign, creating the conversation at the start state if none is active.
//
// On any error the conversation keeps its previous resting point: nothing
// is persisted for rejected triggers, refused guards or failed actions.
func (d *Dispatcher) Dispatch(ctx context.Context, req DispatchRequest) (*DispatchResult, error) {
	if req.Campaign == "" || req.SeniorID == "" || req.Trigger == "" {
		return nil, fmt.Errorf("dispatch requires campaign, seniorId and trigger")
	}

	// Fail on unknown campaigns before touching any store.
	if _, err := d.catalog.Definition(req.Campaign); err != nil {
		return nil, err
	}

	// Serialize per (campaign, senior): that pair identifies the single
	// active conversation, including the not-yet-created one.
	lockKey := req.Campaign + "/" + req.SeniorID

	var result *DispatchResult
	err := d.locks.withLock(ctx, lockKey, func(ctx context.Context) error {
		var err error
		result, err = d.dispatchLocked(ctx, req)
		return err
	})
	return result, err
}

func (d *Dispatcher) dispatchLocked(ctx context.Context, req DispatchRequest) (*DispatchResult, error) {
	started := d.now()

	conv, err := d.conversations.LoadActive(ctx, req.SeniorID, req.Campaign)
	if errors.Is(err, domain.ErrConversationNotFound) {
		// Persist immediately so the ID is reserved before the first
		// transition runs.
		conv = domain.NewConversation(d.newID(), req.SeniorID, req.Campaign)
		if err := d.conversations.Create(ctx, conv); err != nil {
			return nil, fmt.Errorf("create conversation: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	inst, err := d.catalog.Spawn(req.Campaign, conv.ID)
	if err != nil {
		return nil, err
	}
	if err := inst.Rehydrate(conv.CurrentState, extstate.Bag(conv.Extended).Clone()); err != nil {
		return nil, fmt.Errorf("rehydrate conversation %q: %w", conv.ID, err)
	}

	tr, err := inst.Step(req.Trigger)
	if err != nil {
		d.hooks.rejected(ctx, &RejectionEvent{
			Campaign:       req.Campaign,
			ConversationID: conv.ID,
			State:          conv.CurrentState,
			Trigger:        req.Trigger,
			Reason:         "no_matching_transition",
		})
		return nil, err
	}

	turn := &registry.Turn{
		Event:          req.Trigger,
		Text:           req.Text,
		Headers:        d.headers(req),
		ConversationID: conv.ID,
		State:          inst.State(),
	}

	if tr.Guard != "" {
		guard, err := d.registry.Guard(tr.Guard)
		if err != nil {
			return nil, err
		}
		allowed, err := guard(ctx, turn)
		if err != nil {
			d.hooks.actionError(ctx, &ActionErrorEvent{
				Campaign:       req.Campaign,
				ConversationID: conv.ID,
				State:          conv.CurrentState,
				Trigger:        req.Trigger,
				Action:         tr.Guard,
				Err:            err,
			})
			return nil, fmt.Errorf("guard %q: %w", tr.Guard, err)
		}
		if !allowed {
			d.hooks.rejected(ctx, &RejectionEvent{
				Campaign:       req.Campaign,
				ConversationID: conv.ID,
				State:          conv.CurrentState,
				Trigger:        req.Trigger,
				Reason:         "guard_refused",
			})
			return nil, fmt.Errorf("%w: guard %q refused trigger %q", domain.ErrNoMatchingTransition, tr.Guard, req.Trigger)
		}
	}

	if tr.Action != "" {
		action, err := d.registry.Action(tr.Action)
		if err != nil {
			return nil, err
		}
		if err := action(ctx, turn); err != nil {
			if domain.IsValidation(err) {
				d.hooks.rejected(ctx, &RejectionEvent{
					Campaign:       req.Campaign,
					ConversationID: conv.ID,
					State:          conv.CurrentState,
					Trigger:        req.Trigger,
					Reason:         "validation_failed",
				})
				return nil, err
			}
			d.hooks.actionError(ctx, &ActionErrorEvent{
				Campaign:       req.Campaign,
				ConversationID: conv.ID,
				State:          conv.CurrentState,
				Trigger:        req.Trigger,
				Action:         tr.Action,
				Err:            err,
			})
			return nil, fmt.Errorf("action %q: %w", tr.Action, err)
		}
	}

	from := conv.CurrentState
	inst.Commit(tr)

	conv.CurrentState = inst.Current()
	conv.Extended = map[string]string(inst.State())
	if inst.Terminal() {
		conv.Active = false
	}

	if err := d.conversations.Save(ctx, conv); err != nil {
		return nil, fmt.Errorf("save conversation: %w", err)
	}

	// The transition is committed; journaling and prompt lookup are
	// best-effort from here on.
	d.appendMessage(ctx, &domain.Message{
		ID:             d.newID(),
		ConversationID: conv.ID,
		Direction:      domain.DirectionInbound,
		Content:        req.Text,
		Event:          req.Trigger,
		CreatedAt:      d.now().UTC(),
	})

	language := req.Language
	if language == "" {
		language = d.language
	}

	prompt := d.lookupPrompt(ctx, req.Campaign, conv.CurrentState, language)
	d.appendMessage(ctx, &domain.Message{
		ID:             d.newID(),
		ConversationID: conv.ID,
		Direction:      domain.DirectionOutbound,
		Content:        prompt,
		CreatedAt:      d.now().UTC(),
	})

	options, err := d.options.GetOptions(ctx, req.Campaign, conv.CurrentState, language)
	if err != nil {
		// A state with no applicable strategy is misconfiguration; surface
		// it loudly. The transition stays committed.
		return nil, fmt.Errorf("resolve reply options: %w", err)
	}

	d.hooks.transition(ctx, &TransitionEvent{
		Campaign:       req.Campaign,
		ConversationID: conv.ID,
		From:           from,
		To:             conv.CurrentState,
		Trigger:        req.Trigger,
		Terminal:       !conv.Active,
		Duration:       d.now().Sub(started),
	})

	d.logger.Info("transition committed",
		"campaign", req.Campaign,
		"conversation_id", conv.ID,
		"from", from,
		"to", conv.CurrentState,
		"trigger", req.Trigger,
	)

	return &DispatchResult{
		ConversationID: conv.ID,
		Campaign:       req.Campaign,
		State:          conv.CurrentState,
		Terminal:       !conv.Active,
		Prompt:         prompt,
		Options:        options,
	}, nil
}

// Journal returns the conversation's message history, oldest first.
func (d *Dispatcher) Journal(ctx context.Context, conversationID string) ([]domain.Message, error) {
	if _, err := d.conversations.Load(ctx, conversationID); err != nil {
		return nil, err
	}
	return d.messages.ListByConversation(ctx, conversationID)
}

// Clear closes a conversation and erases its trail: the journal is deleted,
// the in-progress draft (if a draft store is configured) is discarded, and
// the record is deactivated with an empty extended state. The record itself
// is kept for its ID and timestamps.
func (d *Dispatcher) Clear(ctx context.Context, conversationID string) error {
	conv, err := d.conversations.Load(ctx, conversationID)
	if err != nil {
		return err
	}

	lockKey := conv.Campaign + "/" + conv.SeniorID
	return d.locks.withLock(ctx, lockKey, func(ctx context.Context) error {
		conv, err := d.conversations.Load(ctx, conversationID)
		if err != nil {
			return err
		}

		if d.drafts != nil {
			if draftID, ok := extstate.Bag(conv.Extended).DraftID(); ok {
				if err := d.drafts.Delete(ctx, draftID); err != nil {
					return fmt.Errorf("delete draft: %w", err)
				}
			}
		}

		if err := d.messages.DeleteByConversation(ctx, conversationID); err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}

		conv.Active = false
		conv.Extended = map[string]string{}
		if err := d.conversations.Save(ctx, conv); err != nil {
			return fmt.Errorf("save conversation: %w", err)
		}

		d.logger.Info("conversation cleared",
			"campaign", conv.Campaign,
			"conversation_id", conv.ID,
		)
		return nil
	})
}

func (d *Dispatcher) headers(req DispatchRequest) map[string]string {
	headers := make(map[string]string, len(req.Headers)+2)
	for k, v := range req.Headers {
		headers[k] = v
	}
	headers[registry.HeaderSeniorID] = req.SeniorID
	if req.Language != "" {
		headers[registry.HeaderLanguage] = req.Language
	}
	return headers
}

func (d *Dispatcher) lookupPrompt(ctx context.Context, campaign, state, language string) string {
	prompt, err := d.prompts.GetPrompt(ctx, campaign, state, language)
	if errors.Is(err, domain.ErrPromptNotFound) {
		d.logger.Warn("no prompt configured",
			"campaign", campaign,
			"state", state,
			"language", language,
		)
		return ""
	}
	if err != nil {
		d.logger.Warn("prompt lookup failed",
			"campaign", campaign,
			"state", state,
			"err", err,
		)
		return ""
	}
	return prompt
}

func (d *Dispatcher) appendMessage(ctx context.Context, msg *domain.Message) {
	if err := d.messages.Append(ctx, msg); err != nil {
		d.logger.Warn("failed to journal message",
			"conversation_id", msg.ConversationID,
			"direction", msg.Direction,
			"err", err,
		)
	}
}
