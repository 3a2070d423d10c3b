// Package compiler turns raw transition-table rows into immutable, validated
// campaign automaton definitions.
package compiler

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/carelink/carelink/internal/logging"
	"github.com/carelink/carelink/pkg/domain"
)

// Compiler builds campaign definitions from table rows. Safe for reuse
// across campaigns; compilation is deterministic for identical input.
type Compiler struct {
	logger *slog.Logger
}

// Option configures the Compiler.
type Option func(*Compiler)

// WithLogger sets the logger used for non-fatal findings (unreachable
// states). Defaults to a no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		c.logger = logger
	}
}

// New creates a Compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile validates the rows for one campaign and produces its definition.
//
// States are the union of every source and dest plus the start state.
// Two rows leaving the same state on the same trigger fail compilation with
// AmbiguousTransitionError; table order never resolves ambiguity silently.
// States unreachable from START are logged as warnings only, since tables
// may pre-define expansion states. Guard and action names are carried
// through unresolved; the host's wiring check validates them at startup.
func (c *Compiler) Compile(campaign string, rows []domain.Transition) (*domain.CampaignDefinition, error) {
	if campaign == "" {
		return nil, fmt.Errorf("campaign name is required")
	}

	states := map[string]struct{}{domain.StartState: {}}
	seen := map[string]map[string]struct{}{} // source -> trigger set

	for _, row := range rows {
		if row.Source == "" || row.Dest == "" || row.Trigger == "" {
			return nil, fmt.Errorf("campaign %q: transition requires source, dest and trigger (got %+v)", campaign, row)
		}

		triggers, ok := seen[row.Source]
		if !ok {
			triggers = make(map[string]struct{})
			seen[row.Source] = triggers
		}
		if _, dup := triggers[row.Trigger]; dup {
			return nil, &domain.AmbiguousTransitionError{
				Campaign: campaign,
				Source:   row.Source,
				Trigger:  row.Trigger,
			}
		}
		triggers[row.Trigger] = struct{}{}

		states[row.Source] = struct{}{}
		states[row.Dest] = struct{}{}
	}

	names := make([]string, 0, len(states))
	for s := range states {
		names = append(names, s)
	}
	sort.Strings(names)

	def := domain.NewCampaignDefinition(campaign, names, rows)

	for _, unreachable := range c.unreachableStates(def) {
		c.logger.Warn("state unreachable from start",
			"campaign", campaign,
			"state", unreachable,
		)
	}

	return def, nil
}

// unreachableStates walks the transition graph from START and returns the
// states no trigger sequence can reach, sorted.
func (c *Compiler) unreachableStates(def *domain.CampaignDefinition) []string {
	visited := map[string]bool{domain.StartState: true}
	queue := []string{domain.StartState}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, t := range def.Outgoing(current) {
			if !visited[t.Dest] {
				visited[t.Dest] = true
				queue = append(queue, t.Dest)
			}
		}
	}

	var out []string
	for _, s := range def.States {
		if !visited[s] {
			out = append(out, s)
		}
	}
	return out
}
