package compiler_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/carelink/carelink/internal/compiler"
	"github.com/carelink/carelink/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lodgingRows() []domain.Transition {
	return []domain.Transition{
		{Source: "START", Trigger: "SEEK_TYPE", Dest: "AWAITING_TYPE", Action: "createDraft"},
		{Source: "AWAITING_TYPE", Trigger: "TYPE_SUBMITTED", Dest: "AWAITING_TITLE", Action: "captureType"},
		{Source: "AWAITING_TITLE", Trigger: "TITLE_SUBMITTED", Dest: "AWAITING_DESCRIPTION", Action: "captureTitle"},
		{Source: "AWAITING_DESCRIPTION", Trigger: "DESCRIPTION_SUBMITTED", Dest: "AWAITING_PRIORITY", Action: "captureDescription"},
		{Source: "AWAITING_PRIORITY", Trigger: "PRIORITY_HIGH", Dest: "COMPLETED", Action: "capturePriority"},
	}
}

func TestCompile_BuildsStatesAndTransitions(t *testing.T) {
	def, err := compiler.New().Compile("lodging_request", lodgingRows())
	require.NoError(t, err)

	assert.Equal(t, "lodging_request", def.Name)
	assert.Equal(t, []string{
		"AWAITING_DESCRIPTION",
		"AWAITING_PRIORITY",
		"AWAITING_TITLE",
		"AWAITING_TYPE",
		"COMPLETED",
		"START",
	}, def.States)
	assert.Len(t, def.Transitions, 5)
	assert.True(t, def.HasState("START"))
	assert.True(t, def.IsTerminal("COMPLETED"))
	assert.False(t, def.IsTerminal("START"))

	tr, ok := def.Find("AWAITING_TYPE", "TYPE_SUBMITTED")
	require.True(t, ok)
	assert.Equal(t, "AWAITING_TITLE", tr.Dest)
	assert.Equal(t, "captureType", tr.Action)
}

func TestCompile_Deterministic(t *testing.T) {
	rows := lodgingRows()
	first, err := compiler.New().Compile("lodging_request", rows)
	require.NoError(t, err)

	// Same rows in reversed order must compile to the identical definition.
	reversed := make([]domain.Transition, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		reversed = append(reversed, rows[i])
	}
	second, err := compiler.New().Compile("lodging_request", reversed)
	require.NoError(t, err)

	assert.Equal(t, first.States, second.States)
	assert.Equal(t, first.Transitions, second.Transitions)
}

func TestCompile_AmbiguousTransitionFails(t *testing.T) {
	rows := append(lodgingRows(), domain.Transition{
		Source: "AWAITING_TYPE", Trigger: "TYPE_SUBMITTED", Dest: "COMPLETED",
	})

	_, err := compiler.New().Compile("lodging_request", rows)
	require.Error(t, err)

	var ambiguous *domain.AmbiguousTransitionError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, "AWAITING_TYPE", ambiguous.Source)
	assert.Equal(t, "TYPE_SUBMITTED", ambiguous.Trigger)
}

func TestCompile_UnreachableStateWarnsButSucceeds(t *testing.T) {
	rows := append(lodgingRows(), domain.Transition{
		Source: "FUTURE_STATE", Trigger: "FUTURE_TRIGGER", Dest: "COMPLETED",
	})

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	def, err := compiler.New(compiler.WithLogger(logger)).Compile("lodging_request", rows)
	require.NoError(t, err)
	assert.True(t, def.HasState("FUTURE_STATE"))
	assert.Contains(t, buf.String(), "FUTURE_STATE")
}

func TestCompile_IncompleteRowFails(t *testing.T) {
	_, err := compiler.New().Compile("lodging_request", []domain.Transition{
		{Source: "START", Dest: "AWAITING_TYPE"},
	})
	assert.Error(t, err)
}

func TestCompile_EmptyCampaignNameFails(t *testing.T) {
	_, err := compiler.New().Compile("", nil)
	assert.Error(t, err)
}
