package domain

import "sort"

// StartState is the designated initial state of every campaign automaton.
const StartState = "START"

// Transition defines a single rule of a campaign automaton: when the
// conversation rests in Source and the caller dispatches Trigger, the
// conversation moves to Dest.
type Transition struct {
	Source  string `json:"source"`
	Trigger string `json:"trigger"`
	Dest    string `json:"dest"`

	// Guard is the optional name of a predicate gating the transition.
	// Resolved against the handler registry at startup, not at compile time.
	Guard string `json:"guard,omitempty"`

	// Action is the optional name of a side-effecting handler invoked
	// after the guard passes and before the new state is committed.
	Action string `json:"action,omitempty"`
}

// CampaignDefinition is the compiled, immutable automaton for one campaign.
// Instances are built once by the compiler and shared read-only afterwards.
type CampaignDefinition struct {
	Name        string
	States      []string     // sorted, always contains StartState
	Transitions []Transition // sorted by (Source, Trigger)

	index map[string]map[string]Transition // source -> trigger -> transition
}

// NewCampaignDefinition assembles a definition from validated parts.
// Callers are expected to go through the compiler; this constructor only
// normalizes ordering and builds the dispatch index.
func NewCampaignDefinition(name string, states []string, transitions []Transition) *CampaignDefinition {
	def := &CampaignDefinition{
		Name:        name,
		States:      append([]string(nil), states...),
		Transitions: append([]Transition(nil), transitions...),
		index:       make(map[string]map[string]Transition),
	}

	sort.Strings(def.States)
	sort.Slice(def.Transitions, func(i, j int) bool {
		if def.Transitions[i].Source != def.Transitions[j].Source {
			return def.Transitions[i].Source < def.Transitions[j].Source
		}
		return def.Transitions[i].Trigger < def.Transitions[j].Trigger
	})

	for _, t := range def.Transitions {
		byTrigger, ok := def.index[t.Source]
		if !ok {
			byTrigger = make(map[string]Transition)
			def.index[t.Source] = byTrigger
		}
		byTrigger[t.Trigger] = t
	}

	return def
}

// HasState reports whether the given name is a state of this campaign.
func (d *CampaignDefinition) HasState(state string) bool {
	i := sort.SearchStrings(d.States, state)
	return i < len(d.States) && d.States[i] == state
}

// Find returns the transition leaving source on trigger, if any.
func (d *CampaignDefinition) Find(source, trigger string) (Transition, bool) {
	t, ok := d.index[source][trigger]
	return t, ok
}

// IsTerminal reports whether a state has no outgoing transitions.
// Terminal states end the conversation (commonly "COMPLETED").
func (d *CampaignDefinition) IsTerminal(state string) bool {
	return len(d.index[state]) == 0
}

// Outgoing returns the transitions leaving the given state, in trigger order.
func (d *CampaignDefinition) Outgoing(state string) []Transition {
	byTrigger := d.index[state]
	out := make([]Transition, 0, len(byTrigger))
	for _, t := range byTrigger {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Trigger < out[j].Trigger })
	return out
}
