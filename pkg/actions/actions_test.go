package actions_test

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/carelink/carelink/pkg/actions"
	"github.com/carelink/carelink/pkg/adapters/memory"
	"github.com/carelink/carelink/pkg/domain"
	"github.com/carelink/carelink/pkg/engine"
	"github.com/carelink/carelink/pkg/extstate"
	"github.com/carelink/carelink/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	deps     actions.Deps
	drafts   *memory.DraftStore
	requests *memory.RequestStore
}

func newFixture() *fixture {
	drafts := memory.NewDraftStore()
	requests := memory.NewRequestStore()
	seq := 0
	return &fixture{
		drafts:   drafts,
		requests: requests,
		deps: actions.Deps{
			Drafts:   drafts,
			Requests: requests,
			Types:    map[string]string{"Maintenance": "type-maintenance", "Lodging": "type-lodging"},
			NewID: func() string {
				seq++
				return fmt.Sprintf("id-%d", seq)
			},
		},
	}
}

func newTurn(event, text string) *registry.Turn {
	return &registry.Turn{
		Event:          event,
		Text:           text,
		Headers:        map[string]string{registry.HeaderSeniorID: "senior-1"},
		ConversationID: "conv-1",
		State:          extstate.New(),
	}
}

// seededDraft creates a draft and a turn referencing it.
func (f *fixture) seededDraft(t *testing.T) (*registry.Turn, *domain.Draft) {
	t.Helper()
	draft := &domain.Draft{ID: "draft-1", SeniorID: "senior-1"}
	require.NoError(t, f.drafts.Create(context.Background(), draft))
	turn := newTurn("", "")
	turn.State.SetDraftID("draft-1")
	return turn, draft
}

func TestCreateDraft(t *testing.T) {
	f := newFixture()
	turn := newTurn("SEEK_TYPE", "")

	require.NoError(t, actions.NewCreateDraft(f.deps)(context.Background(), turn))

	draftID, ok := turn.State.DraftID()
	require.True(t, ok)

	draft, err := f.drafts.Get(context.Background(), draftID)
	require.NoError(t, err)
	assert.Equal(t, "senior-1", draft.SeniorID)
}

func TestCreateDraft_MissingSeniorFails(t *testing.T) {
	f := newFixture()
	turn := newTurn("SEEK_TYPE", "")
	turn.Headers = map[string]string{}

	err := actions.NewCreateDraft(f.deps)(context.Background(), turn)
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, 0, f.drafts.Len())
}

func TestCaptureTitle(t *testing.T) {
	f := newFixture()
	turn, _ := f.seededDraft(t)
	turn.Text = "  Leaky faucet  "

	require.NoError(t, actions.NewCaptureTitle(f.deps)(context.Background(), turn))

	draft, err := f.drafts.Get(context.Background(), "draft-1")
	require.NoError(t, err)
	assert.Equal(t, "Leaky faucet", draft.Title)
}

func TestCaptureTitle_BlankFails(t *testing.T) {
	f := newFixture()
	turn, _ := f.seededDraft(t)
	turn.Text = "   "

	err := actions.NewCaptureTitle(f.deps)(context.Background(), turn)
	require.True(t, domain.IsValidation(err))

	// The draft stays untouched on validation failure.
	draft, getErr := f.drafts.Get(context.Background(), "draft-1")
	require.NoError(t, getErr)
	assert.Empty(t, draft.Title)
}

func TestCaptureDescription(t *testing.T) {
	f := newFixture()
	turn, _ := f.seededDraft(t)
	turn.Text = "Kitchen sink drips all night"

	require.NoError(t, actions.NewCaptureDescription(f.deps)(context.Background(), turn))

	draft, err := f.drafts.Get(context.Background(), "draft-1")
	require.NoError(t, err)
	assert.Equal(t, "Kitchen sink drips all night", draft.Description)
}

func TestCaptureType(t *testing.T) {
	f := newFixture()
	turn, _ := f.seededDraft(t)
	turn.Text = "Maintenance"

	require.NoError(t, actions.NewCaptureType(f.deps)(context.Background(), turn))

	draft, err := f.drafts.Get(context.Background(), "draft-1")
	require.NoError(t, err)
	assert.Equal(t, "type-maintenance", draft.RequestTypeID)
}

func TestCaptureType_UnknownFails(t *testing.T) {
	f := newFixture()
	turn, _ := f.seededDraft(t)
	turn.Text = "Gardening"

	err := actions.NewCaptureType(f.deps)(context.Background(), turn)

	var invalid *domain.InvalidRequestTypeError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "Gardening", invalid.Text)
	// Unknown type is recoverable user input, not a fatal error.
	assert.True(t, domain.IsValidation(err))
}

func TestCapturePriority(t *testing.T) {
	cases := []struct {
		trigger string
		want    int
	}{
		{"PRIORITY_LOW", domain.PriorityLow},
		{"PRIORITY_MEDIUM", domain.PriorityMedium},
		{"PRIORITY_HIGH", domain.PriorityHigh},
	}

	for _, tc := range cases {
		t.Run(tc.trigger, func(t *testing.T) {
			f := newFixture()
			turn, _ := f.seededDraft(t)
			turn.Event = tc.trigger

			require.NoError(t, actions.NewCapturePriority(f.deps)(context.Background(), turn))

			draft, err := f.drafts.Get(context.Background(), "draft-1")
			require.NoError(t, err)
			assert.Equal(t, tc.want, draft.Priority)
		})
	}
}

func TestCapturePriority_UnmappedTriggerIsFatal(t *testing.T) {
	f := newFixture()
	turn, _ := f.seededDraft(t)
	turn.Event = "PRIORITY_URGENT"

	err := actions.NewCapturePriority(f.deps)(context.Background(), turn)
	require.Error(t, err)
	// A table/action mismatch is a programmer error, not user input.
	assert.False(t, domain.IsValidation(err))
}

func completedDraft(t *testing.T, f *fixture) *registry.Turn {
	t.Helper()
	draft := &domain.Draft{
		ID:            "draft-1",
		SeniorID:      "senior-1",
		RequestTypeID: "type-lodging",
		Title:         "Leaky faucet",
		Description:   "Kitchen sink drips",
		Priority:      domain.PriorityHigh,
	}
	require.NoError(t, f.drafts.Create(context.Background(), draft))
	turn := newTurn("CONFIRMED", "")
	turn.State.SetDraftID("draft-1")
	return turn
}

func TestFinalize(t *testing.T) {
	f := newFixture()
	turn := completedDraft(t, f)

	require.NoError(t, actions.NewFinalize(f.deps)(context.Background(), turn))

	requests := f.requests.All()
	require.Len(t, requests, 1)
	assert.Equal(t, domain.PriorityHigh, requests[0].Priority)
	assert.Equal(t, "draft-1", requests[0].DraftID)

	finalID, ok := turn.State.FinalRequestID()
	assert.True(t, ok)
	assert.Equal(t, requests[0].ID, finalID)

	// The draft is consumed.
	assert.Equal(t, 0, f.drafts.Len())
}

func TestFinalize_MissingFieldFails(t *testing.T) {
	fields := []struct {
		name  string
		strip func(*domain.Draft)
	}{
		{"requestType", func(d *domain.Draft) { d.RequestTypeID = "" }},
		{"title", func(d *domain.Draft) { d.Title = "" }},
		{"description", func(d *domain.Draft) { d.Description = "" }},
		{"priority", func(d *domain.Draft) { d.Priority = 0 }},
	}

	for _, tc := range fields {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			draft := &domain.Draft{
				ID:            "draft-1",
				SeniorID:      "senior-1",
				RequestTypeID: "type-lodging",
				Title:         "Leaky faucet",
				Description:   "Kitchen sink drips",
				Priority:      domain.PriorityHigh,
			}
			tc.strip(draft)
			require.NoError(t, f.drafts.Create(context.Background(), draft))

			turn := newTurn("CONFIRMED", "")
			turn.State.SetDraftID("draft-1")

			err := actions.NewFinalize(f.deps)(context.Background(), turn)

			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.name, ve.Field)
			assert.Empty(t, f.requests.All())
		})
	}
}

func TestFinalize_Idempotent(t *testing.T) {
	f := newFixture()
	turn := completedDraft(t, f)

	require.NoError(t, actions.NewFinalize(f.deps)(context.Background(), turn))
	firstID, _ := turn.State.FinalRequestID()

	// Simulate a crash-retry: the draft still exists but the request was
	// already created under the same draft key.
	retryDraft := &domain.Draft{
		ID:            "draft-1",
		SeniorID:      "senior-1",
		RequestTypeID: "type-lodging",
		Title:         "Leaky faucet",
		Description:   "Kitchen sink drips",
		Priority:      domain.PriorityHigh,
	}
	require.NoError(t, f.drafts.Create(context.Background(), retryDraft))

	require.NoError(t, actions.NewFinalize(f.deps)(context.Background(), turn))
	retryID, _ := turn.State.FinalRequestID()

	assert.Equal(t, firstID, retryID)
	assert.Len(t, f.requests.All(), 1)
}

func TestAutoRestart(t *testing.T) {
	f := newFixture()
	turn, _ := f.seededDraft(t)
	turn.State.Set("scratch", "value")

	require.NoError(t, actions.NewAutoRestart(f.deps)(context.Background(), turn))

	assert.Empty(t, turn.State)
	assert.Equal(t, 0, f.drafts.Len())
}

func TestAutoRestart_WithoutDraft(t *testing.T) {
	f := newFixture()
	turn := newTurn("RESTART", "")
	turn.State.Set("scratch", "value")

	require.NoError(t, actions.NewAutoRestart(f.deps)(context.Background(), turn))
	assert.Empty(t, turn.State)
}

func TestErrorObserver_NeverPanics(t *testing.T) {
	var buf bytes.Buffer
	observer := actions.NewErrorObserver(slog.New(slog.NewTextHandler(&buf, nil)))

	assert.NotPanics(t, func() {
		observer(context.Background(), &engine.ActionErrorEvent{
			Campaign: "lodging_request",
			Action:   "capturePriority",
			Err:      fmt.Errorf("boom"),
		})
	})
	assert.Contains(t, buf.String(), "capturePriority")
}
