package engine

import (
	"fmt"

	"github.com/carelink/carelink/pkg/domain"
	"github.com/carelink/carelink/pkg/extstate"
)

// Instance is one conversation's view of a shared campaign template.
// It holds the rehydrated resting point between Rehydrate and Commit and is
// never shared across conversations or pooled.
type Instance struct {
	def *domain.CampaignDefinition
	key string

	hydrated bool
	current  string
	state    extstate.Bag
}

// Definition returns the immutable template this instance is bound to.
func (i *Instance) Definition() *domain.CampaignDefinition {
	return i.def
}

// Key returns the conversation key the instance was spawned for.
func (i *Instance) Key() string {
	return i.key
}

// Rehydrate loads a durable snapshot into the instance. The snapshot's
// current state is authoritative; nothing is replayed. A state name outside
// the campaign's definition means the stored row and the table diverged,
// which is fatal for this conversation.
func (i *Instance) Rehydrate(currentState string, state extstate.Bag) error {
	if !i.def.HasState(currentState) {
		return fmt.Errorf("campaign %q has no state %q", i.def.Name, currentState)
	}
	i.current = currentState
	if state == nil {
		state = extstate.New()
	}
	i.state = state
	i.hydrated = true
	return nil
}

// Current returns the instance's resting state.
func (i *Instance) Current() string {
	return i.current
}

// State returns the instance's extended-state bag.
func (i *Instance) State() extstate.Bag {
	return i.state
}

// Step resolves the transition leaving the current state on trigger.
// It does not move the instance; Commit does, after guard and action ran.
func (i *Instance) Step(trigger string) (domain.Transition, error) {
	if !i.hydrated {
		return domain.Transition{}, fmt.Errorf("instance for %q not rehydrated", i.key)
	}
	t, ok := i.def.Find(i.current, trigger)
	if !ok {
		return domain.Transition{}, fmt.Errorf("%w: state %q, trigger %q", domain.ErrNoMatchingTransition, i.current, trigger)
	}
	return t, nil
}

// Commit moves the instance to the transition's destination.
func (i *Instance) Commit(t domain.Transition) {
	i.current = t.Dest
}

// Terminal reports whether the instance rests in a state with no outgoing
// transitions.
func (i *Instance) Terminal() bool {
	return i.def.IsTerminal(i.current)
}
