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

func noopAction(ctx context.Context, turn *registry.Turn) error { return nil }

func TestBuildCatalog(t *testing.T) {
	src := memory.NewTransitionSource(map[string][]domain.Transition{
		"lodging_request": {
			{Source: "START", Trigger: "SEEK_TYPE", Dest: "AWAITING_TYPE", Action: "createDraft"},
			{Source: "AWAITING_TYPE", Trigger: "TYPE_SUBMITTED", Dest: "COMPLETED"},
		},
		"checkin": {
			{Source: "START", Trigger: "HELLO", Dest: "DONE"},
		},
	})

	reg := registry.New()
	reg.RegisterAction("createDraft", noopAction)

	catalog, err := engine.BuildCatalog(context.Background(), src, reg, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"lodging_request", "checkin"}, catalog.Campaigns())

	def, err := catalog.Definition("lodging_request")
	require.NoError(t, err)
	assert.True(t, def.IsTerminal("COMPLETED"))
}

func TestBuildCatalog_UnknownCampaignLookup(t *testing.T) {
	catalog, err := engine.BuildCatalog(context.Background(),
		memory.NewTransitionSource(nil), registry.New(), nil)
	require.NoError(t, err)

	_, err = catalog.Definition("nope")
	assert.ErrorIs(t, err, domain.ErrUnknownCampaign)

	_, err = catalog.Spawn("nope", "conv-1")
	assert.ErrorIs(t, err, domain.ErrUnknownCampaign)
}

func TestBuildCatalog_MissingActionFailsStartup(t *testing.T) {
	src := memory.NewTransitionSource(map[string][]domain.Transition{
		"lodging_request": {
			{Source: "START", Trigger: "SEEK_TYPE", Dest: "AWAITING_TYPE", Action: "createDraft"},
		},
	})

	_, err := engine.BuildCatalog(context.Background(), src, registry.New(), nil)

	var unknown *domain.UnknownHandlerError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "createDraft", unknown.Name)
}

func TestBuildCatalog_MissingGuardFailsStartup(t *testing.T) {
	src := memory.NewTransitionSource(map[string][]domain.Transition{
		"lodging_request": {
			{Source: "START", Trigger: "SEEK_TYPE", Dest: "AWAITING_TYPE", Guard: "isOfficeHours"},
		},
	})

	_, err := engine.BuildCatalog(context.Background(), src, registry.New(), nil)

	var unknown *domain.UnknownHandlerError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "guard", unknown.Kind)
}

func TestBuildCatalog_AmbiguousTableFails(t *testing.T) {
	src := memory.NewTransitionSource(map[string][]domain.Transition{
		"lodging_request": {
			{Source: "START", Trigger: "SEEK_TYPE", Dest: "A"},
			{Source: "START", Trigger: "SEEK_TYPE", Dest: "B"},
		},
	})

	_, err := engine.BuildCatalog(context.Background(), src, registry.New(), nil)

	var ambiguous *domain.AmbiguousTransitionError
	assert.ErrorAs(t, err, &ambiguous)
}

func TestInstance_RehydrateRejectsForeignState(t *testing.T) {
	src := memory.NewTransitionSource(map[string][]domain.Transition{
		"checkin": {{Source: "START", Trigger: "HELLO", Dest: "DONE"}},
	})
	catalog, err := engine.BuildCatalog(context.Background(), src, registry.New(), nil)
	require.NoError(t, err)

	inst, err := catalog.Spawn("checkin", "conv-1")
	require.NoError(t, err)

	assert.Error(t, inst.Rehydrate("NOT_A_STATE", nil))
	require.NoError(t, inst.Rehydrate("START", nil))

	_, err = inst.Step("GOODBYE")
	assert.ErrorIs(t, err, domain.ErrNoMatchingTransition)

	tr, err := inst.Step("HELLO")
	require.NoError(t, err)
	inst.Commit(tr)
	assert.Equal(t, "DONE", inst.Current())
	assert.True(t, inst.Terminal())
}
