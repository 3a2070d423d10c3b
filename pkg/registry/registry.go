// Package registry maps the action and guard names referenced by transition
// tables to their handler implementations. Names are resolved here at
// dispatch time; the startup wiring check walks every compiled campaign and
// fails fast on names with no registered handler, so a misconfigured table
// can never silently no-op.
package registry

import (
	"context"
	"sync"

	"github.com/carelink/carelink/pkg/domain"
	"github.com/carelink/carelink/pkg/extstate"
)

// Well-known message header keys consumed by actions.
const (
	HeaderSeniorID = "seniorId"
	HeaderLanguage = "language"
)

// Turn carries everything an action or guard may read or mutate while a
// single transition is being applied: the trigger, the inbound payload and
// headers, and the conversation's extended-state bag. Mutations to State
// are only persisted if the transition commits.
type Turn struct {
	Event          string
	Text           string
	Headers        map[string]string
	ConversationID string
	State          extstate.Bag
}

// Header returns a header value, empty if absent.
func (t *Turn) Header(key string) string {
	return t.Headers[key]
}

// Action is a side-effecting transition handler. Returning a
// *domain.ValidationError aborts the transition as recoverable user input;
// any other error aborts it as unexpected.
type Action func(ctx context.Context, turn *Turn) error

// Guard is a predicate gating whether a transition may fire.
type Guard func(ctx context.Context, turn *Turn) (bool, error)

// Registry holds the named handlers. Registration happens during startup
// wiring; lookups afterwards are read-only and safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]Action
	guards  map[string]Guard
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		actions: make(map[string]Action),
		guards:  make(map[string]Guard),
	}
}

// RegisterAction adds an action handler, overwriting any previous binding.
func (r *Registry) RegisterAction(name string, fn Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[name] = fn
}

// RegisterGuard adds a guard handler, overwriting any previous binding.
func (r *Registry) RegisterGuard(name string, fn Guard) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guards[name] = fn
}

// Action resolves an action by name.
func (r *Registry) Action(name string) (Action, error) {
	r.mu.RLock()
	fn, ok := r.actions[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &domain.UnknownHandlerError{Kind: "action", Name: name}
	}
	return fn, nil
}

// Guard resolves a guard by name.
func (r *Registry) Guard(name string) (Guard, error) {
	r.mu.RLock()
	fn, ok := r.guards[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &domain.UnknownHandlerError{Kind: "guard", Name: name}
	}
	return fn, nil
}

// HasAction reports whether an action is registered.
func (r *Registry) HasAction(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.actions[name]
	return ok
}

// HasGuard reports whether a guard is registered.
func (r *Registry) HasGuard(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.guards[name]
	return ok
}
