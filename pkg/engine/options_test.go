package engine_test

import (
	"context"
	"testing"

	"github.com/carelink/carelink/pkg/adapters/memory"
	"github.com/carelink/carelink/pkg/domain"
	"github.com/carelink/carelink/pkg/engine"
	"github.com/carelink/carelink/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrategyChain_FirstApplicableWins(t *testing.T) {
	first := memory.NewOptionStrategy(map[string]map[string][]domain.ReplyOption{
		"lodging_request": {
			"AWAITING_TYPE": {{Text: "From first", Trigger: "TYPE_SUBMITTED"}},
		},
	})
	second := memory.NewOptionStrategy(map[string]map[string][]domain.ReplyOption{
		"lodging_request": {
			"AWAITING_TYPE":  {{Text: "From second", Trigger: "TYPE_SUBMITTED"}},
			"AWAITING_TITLE": {{Text: "Only here", Trigger: "TITLE_SUBMITTED"}},
		},
	})
	chain := engine.NewStrategyChain(first, second)

	opts, err := chain.GetOptions(context.Background(), "lodging_request", "AWAITING_TYPE", "en")
	require.NoError(t, err)
	require.Len(t, opts, 1)
	assert.Equal(t, "From first", opts[0].Text)

	opts, err = chain.GetOptions(context.Background(), "lodging_request", "AWAITING_TITLE", "en")
	require.NoError(t, err)
	require.Len(t, opts, 1)
	assert.Equal(t, "Only here", opts[0].Text)
}

func TestStrategyChain_NoApplicableStrategyIsConfigError(t *testing.T) {
	chain := engine.NewStrategyChain()

	_, err := chain.GetOptions(context.Background(), "lodging_request", "AWAITING_TYPE", "en")
	assert.ErrorIs(t, err, domain.ErrNoApplicableStrategy)
}

func TestTerminalStrategy(t *testing.T) {
	src := memory.NewTransitionSource(map[string][]domain.Transition{
		"lodging_request": {
			{Source: "START", Trigger: "GO", Dest: "COMPLETED"},
		},
	})
	catalog, err := engine.BuildCatalog(context.Background(), src, registry.New(), nil)
	require.NoError(t, err)

	s := engine.NewTerminalStrategy(catalog)

	assert.True(t, s.Applies("lodging_request", "COMPLETED"))
	assert.False(t, s.Applies("lodging_request", "START"))
	assert.False(t, s.Applies("other", "COMPLETED"))

	opts, err := s.GetOptions(context.Background(), "lodging_request", "COMPLETED", "en")
	require.NoError(t, err)
	assert.Empty(t, opts)
}
