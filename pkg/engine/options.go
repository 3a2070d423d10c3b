package engine

import (
	"context"
	"fmt"

	"github.com/carelink/carelink/pkg/domain"
	"github.com/carelink/carelink/pkg/ports"
)

// StrategyChain resolves reply options through a priority-ordered strategy
// list: the first strategy that applies to the state wins. A state covered
// by no strategy is a configuration error, never an empty menu.
type StrategyChain struct {
	strategies []ports.OptionStrategy
}

// NewStrategyChain builds a resolver over the given strategies, highest
// priority first.
func NewStrategyChain(strategies ...ports.OptionStrategy) *StrategyChain {
	return &StrategyChain{strategies: strategies}
}

// GetOptions implements ports.OptionResolver.
func (c *StrategyChain) GetOptions(ctx context.Context, campaign, state, language string) ([]domain.ReplyOption, error) {
	for _, s := range c.strategies {
		if s.Applies(campaign, state) {
			return s.GetOptions(ctx, campaign, state, language)
		}
	}
	return nil, fmt.Errorf("%w: campaign %q, state %q", domain.ErrNoApplicableStrategy, campaign, state)
}

// TerminalStrategy applies to terminal states of the given catalog and
// returns an empty menu: a completed conversation offers no replies. It is
// meant to sit last in the chain.
type TerminalStrategy struct {
	catalog *Catalog
}

// NewTerminalStrategy builds the terminal-state fallback.
func NewTerminalStrategy(catalog *Catalog) *TerminalStrategy {
	return &TerminalStrategy{catalog: catalog}
}

// Applies implements ports.OptionStrategy.
func (s *TerminalStrategy) Applies(campaign, state string) bool {
	def, err := s.catalog.Definition(campaign)
	if err != nil {
		return false
	}
	return def.HasState(state) && def.IsTerminal(state)
}

// GetOptions implements ports.OptionResolver.
func (s *TerminalStrategy) GetOptions(ctx context.Context, campaign, state, language string) ([]domain.ReplyOption, error) {
	return []domain.ReplyOption{}, nil
}
