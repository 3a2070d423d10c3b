package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/carelink/carelink/internal/compiler"
	"github.com/carelink/carelink/internal/logging"
	"github.com/carelink/carelink/pkg/domain"
	"github.com/carelink/carelink/pkg/ports"
	"github.com/carelink/carelink/pkg/registry"
)

// Catalog holds every compiled campaign definition. It is populated once at
// startup and read-only afterwards, so lookups need no synchronization.
type Catalog struct {
	defs map[string]*domain.CampaignDefinition
}

// BuildCatalog enumerates the transition source's campaigns, compiles each,
// and verifies that every guard and action name referenced by any
// transition is registered. A missing handler fails startup rather than
// silently no-opping at dispatch time.
func BuildCatalog(ctx context.Context, src ports.TransitionSource, reg *registry.Registry, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	names, err := src.ListCampaignNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}

	comp := compiler.New(compiler.WithLogger(logger))
	defs := make(map[string]*domain.CampaignDefinition, len(names))

	for _, name := range names {
		rows, err := src.ListTransitions(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("list transitions for %q: %w", name, err)
		}

		def, err := comp.Compile(name, rows)
		if err != nil {
			return nil, fmt.Errorf("compile campaign %q: %w", name, err)
		}

		if err := checkWiring(def, reg); err != nil {
			return nil, fmt.Errorf("campaign %q: %w", name, err)
		}

		defs[name] = def
		logger.Info("campaign compiled",
			"campaign", name,
			"states", len(def.States),
			"transitions", len(def.Transitions),
		)
	}

	return &Catalog{defs: defs}, nil
}

func checkWiring(def *domain.CampaignDefinition, reg *registry.Registry) error {
	for _, t := range def.Transitions {
		if t.Action != "" && !reg.HasAction(t.Action) {
			return &domain.UnknownHandlerError{Kind: "action", Name: t.Action}
		}
		if t.Guard != "" && !reg.HasGuard(t.Guard) {
			return &domain.UnknownHandlerError{Kind: "guard", Name: t.Guard}
		}
	}
	return nil
}

// Definition resolves a compiled campaign by name.
func (c *Catalog) Definition(campaign string) (*domain.CampaignDefinition, error) {
	def, ok := c.defs[campaign]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownCampaign, campaign)
	}
	return def, nil
}

// Campaigns returns the catalog's campaign names, sorted.
func (c *Catalog) Campaigns() []string {
	out := make([]string, 0, len(c.defs))
	for name := range c.defs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Spawn creates a runnable instance bound to one campaign template and one
// conversation key. Instances are cheap values and carry no automaton state
// until rehydrated from a durable snapshot.
func (c *Catalog) Spawn(campaign, conversationKey string) (*Instance, error) {
	def, err := c.Definition(campaign)
	if err != nil {
		return nil, err
	}
	return &Instance{def: def, key: conversationKey}, nil
}
