package carelink_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink/carelink"
	"github.com/carelink/carelink/pkg/adapters/memory"
	"github.com/carelink/carelink/pkg/domain"
	"github.com/carelink/carelink/pkg/engine"
	"github.com/carelink/carelink/pkg/registry"
)

const lodgingCampaign = `
campaign: lodging_request
transitions:
  - source: START
    trigger: SEEK_TYPE
    dest: AWAITING_TYPE
    action: createDraft
  - source: AWAITING_TYPE
    trigger: TYPE_SUBMITTED
    dest: AWAITING_TITLE
    action: captureType
  - source: AWAITING_TITLE
    trigger: TITLE_SUBMITTED
    dest: AWAITING_DESCRIPTION
    action: captureTitle
  - source: AWAITING_DESCRIPTION
    trigger: DESCRIPTION_SUBMITTED
    dest: AWAITING_PRIORITY
    action: captureDescription
  - source: AWAITING_PRIORITY
    trigger: PRIORITY_LOW
    dest: COMPLETED
    action: completeRequest
  - source: AWAITING_PRIORITY
    trigger: PRIORITY_MEDIUM
    dest: COMPLETED
    action: completeRequest
  - source: AWAITING_PRIORITY
    trigger: PRIORITY_HIGH
    dest: COMPLETED
    action: completeRequest
  - source: AWAITING_TITLE
    trigger: RESTART
    dest: START
    action: autoRestart
prompts:
  AWAITING_TYPE:
    en: "What kind of help do you need?"
  AWAITING_TITLE:
    en: "Give your request a short title."
  AWAITING_DESCRIPTION:
    en: "Describe it in a sentence or two."
  AWAITING_PRIORITY:
    en: "How urgent is this?"
  COMPLETED:
    en: "Thanks, your request has been filed."
  START:
    en: "Starting over."
options:
  START:
    en: []
  AWAITING_TYPE:
    en:
      - text: "Lodging"
        trigger: TYPE_SUBMITTED
  AWAITING_TITLE:
    en: []
  AWAITING_DESCRIPTION:
    en: []
  AWAITING_PRIORITY:
    en:
      - text: "Low"
        trigger: PRIORITY_LOW
      - text: "Medium"
        trigger: PRIORITY_MEDIUM
      - text: "High"
        trigger: PRIORITY_HIGH
`

func campaignDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lodging.yaml"), []byte(lodgingCampaign), 0o644))
	return dir
}

func TestEngineFullWorkflow(t *testing.T) {
	ctx := context.Background()
	requests := memory.NewRequestStore()

	eng, err := carelink.New(ctx, campaignDir(t),
		carelink.WithRequestTypeSource(memory.NewRequestTypeSource([]domain.RequestType{
			{ID: "type-lodging", Name: "Lodging"},
		})),
		carelink.WithRequestStore(requests),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"lodging_request"}, eng.Campaigns())

	send := func(trigger, text string) *engine.DispatchResult {
		t.Helper()
		res, err := eng.Dispatch(ctx, engine.DispatchRequest{
			Campaign: "lodging_request",
			SeniorID: "senior-1",
			Trigger:  trigger,
			Text:     text,
		})
		require.NoError(t, err)
		return res
	}

	res := send("SEEK_TYPE", "")
	assert.Equal(t, "AWAITING_TYPE", res.State)
	assert.Equal(t, "What kind of help do you need?", res.Prompt)
	require.Len(t, res.Options, 1)
	assert.Equal(t, "TYPE_SUBMITTED", res.Options[0].Trigger)

	send("TYPE_SUBMITTED", "Lodging")
	send("TITLE_SUBMITTED", "Room too cold")
	send("DESCRIPTION_SUBMITTED", "The radiator in room 12 stopped working")
	res = send("PRIORITY_MEDIUM", "")

	assert.True(t, res.Terminal)
	assert.Equal(t, "COMPLETED", res.State)
	assert.Empty(t, res.Options)

	all := requests.All()
	require.Len(t, all, 1)
	assert.Equal(t, "Room too cold", all[0].Title)
	assert.Equal(t, domain.PriorityMedium, all[0].Priority)
	assert.Equal(t, "senior-1", all[0].SeniorID)
}

func TestEngineUnknownActionFailsWiring(t *testing.T) {
	dir := t.TempDir()
	doc := `
campaign: broken
transitions:
  - source: START
    trigger: GO
    dest: DONE
    action: notRegistered
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte(doc), 0o644))

	_, err := carelink.New(context.Background(), dir)
	var unknown *domain.UnknownHandlerError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "notRegistered", unknown.Name)
}

func TestEngineCustomActionAndGuard(t *testing.T) {
	dir := t.TempDir()
	doc := `
campaign: checkin
transitions:
  - source: START
    trigger: HELLO
    dest: GREETED
    guard: businessHours
    action: recordGreeting
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "checkin.yaml"), []byte(doc), 0o644))

	var greeted bool
	open := true
	eng, err := carelink.New(context.Background(), dir,
		carelink.WithAction("recordGreeting", func(ctx context.Context, turn *registry.Turn) error {
			greeted = true
			return nil
		}),
		carelink.WithGuard("businessHours", func(ctx context.Context, turn *registry.Turn) (bool, error) {
			return open, nil
		}),
	)
	require.NoError(t, err)

	res, err := eng.Dispatch(context.Background(), engine.DispatchRequest{
		Campaign: "checkin",
		SeniorID: "senior-2",
		Trigger:  "HELLO",
	})
	require.NoError(t, err)
	assert.True(t, greeted)
	assert.True(t, res.Terminal)

	// A refusing guard leaves the next conversation at START.
	open = false
	_, err = eng.Dispatch(context.Background(), engine.DispatchRequest{
		Campaign: "checkin",
		SeniorID: "senior-3",
		Trigger:  "HELLO",
	})
	assert.ErrorIs(t, err, domain.ErrNoMatchingTransition)
}
