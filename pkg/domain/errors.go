package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownCampaign is returned when no compiled definition exists for a
// campaign name. There is no fallback template.
var ErrUnknownCampaign = errors.New("unknown campaign")

// ErrConversationNotFound is returned when a conversation ID (or active
// senior/campaign pair) cannot be found in the store.
var ErrConversationNotFound = errors.New("conversation not found")

// ErrDraftNotFound is returned when a draft ID cannot be found in the store.
var ErrDraftNotFound = errors.New("draft not found")

// ErrNoMatchingTransition is returned when the current state has no
// transition for the dispatched trigger. The conversation is left untouched.
var ErrNoMatchingTransition = errors.New("no matching transition")

// ErrPromptNotFound is returned by prompt lookups when no text is configured
// for a state. Dispatch treats it as "no prompt available", never as fatal.
var ErrPromptNotFound = errors.New("prompt not found")

// ErrNoApplicableStrategy is returned when no reply-option strategy applies
// to a state. This is a configuration error, not user input.
var ErrNoApplicableStrategy = errors.New("no applicable reply option strategy")

// ErrVersionConflict is returned by stores using optimistic concurrency when
// a save races another writer for the same conversation.
var ErrVersionConflict = errors.New("conversation version conflict")

// AmbiguousTransitionError reports two table rows leaving the same state on
// the same trigger. Compilation fails rather than resolving by table order.
type AmbiguousTransitionError struct {
	Campaign string
	Source   string
	Trigger  string
}

func (e *AmbiguousTransitionError) Error() string {
	return fmt.Sprintf("campaign %q: ambiguous transition from %q on %q", e.Campaign, e.Source, e.Trigger)
}

// ValidationError reports user input rejected by an action. The transition
// aborts, the conversation keeps its state, and the caller re-prompts.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

// NewValidationError builds a field-scoped validation failure.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is (or wraps) a user-input validation
// failure, the only error class dispatch treats as recoverable by re-prompt.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// InvalidRequestTypeError reports inbound text that matches no known
// request type name. It unwraps to a ValidationError so dispatch treats it
// as recoverable user input.
type InvalidRequestTypeError struct {
	Text string
}

func (e *InvalidRequestTypeError) Error() string {
	return fmt.Sprintf("unknown request type %q", e.Text)
}

func (e *InvalidRequestTypeError) Unwrap() error {
	return &ValidationError{Field: "requestType", Reason: "unknown request type"}
}

// UnknownHandlerError reports a transition referencing an action or guard
// name absent from the registry. Fatal at startup wiring time.
type UnknownHandlerError struct {
	Kind string // "action" or "guard"
	Name string
}

func (e *UnknownHandlerError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.Name)
}
