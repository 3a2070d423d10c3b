package engine

import (
	"context"
	"time"
)

// TransitionEvent describes a committed transition.
type TransitionEvent struct {
	Campaign       string
	ConversationID string
	From           string
	To             string
	Trigger        string
	Terminal       bool
	Duration       time.Duration
}

// RejectionEvent describes a dispatch that left the conversation untouched:
// an unknown trigger for the current state, a guard that refused, or an
// action validation failure.
type RejectionEvent struct {
	Campaign       string
	ConversationID string
	State          string
	Trigger        string
	Reason         string
}

// ActionErrorEvent describes an unexpected (non-validation) action failure.
type ActionErrorEvent struct {
	Campaign       string
	ConversationID string
	State          string
	Trigger        string
	Action         string
	Err            error
}

// Hooks are optional observability callbacks fired by the dispatcher.
// Nil members are skipped. Hooks run synchronously on the dispatch path
// and must not block or panic.
type Hooks struct {
	OnTransition  func(ctx context.Context, e *TransitionEvent)
	OnRejected    func(ctx context.Context, e *RejectionEvent)
	OnActionError func(ctx context.Context, e *ActionErrorEvent)
}

func (h Hooks) transition(ctx context.Context, e *TransitionEvent) {
	if h.OnTransition != nil {
		h.OnTransition(ctx, e)
	}
}

func (h Hooks) rejected(ctx context.Context, e *RejectionEvent) {
	if h.OnRejected != nil {
		h.OnRejected(ctx, e)
	}
}

func (h Hooks) actionError(ctx context.Context, e *ActionErrorEvent) {
	if h.OnActionError != nil {
		h.OnActionError(ctx, e)
	}
}
