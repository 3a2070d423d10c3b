// Package tests holds reusable contract suites that verify store adapters
// against the ports interfaces. Every adapter (memory, postgres, redis)
// runs the same suite so behavior cannot drift between backends.
package tests

import (
	"context"
	"testing"

	"github.com/carelink/carelink/pkg/domain"
	"github.com/carelink/carelink/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunConversationStoreContract verifies an adapter against
// ports.ConversationStore semantics.
func RunConversationStoreContract(t *testing.T, store ports.ConversationStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("load missing returns not found", func(t *testing.T) {
		_, err := store.Load(ctx, "contract-missing")
		assert.ErrorIs(t, err, domain.ErrConversationNotFound)
	})

	t.Run("create then load round trips", func(t *testing.T) {
		conv := domain.NewConversation("contract-rt", "senior-1", "lodging_request")
		conv.Extended["draftId"] = "draft-1"
		require.NoError(t, store.Create(ctx, conv))

		got, err := store.Load(ctx, "contract-rt")
		require.NoError(t, err)
		assert.Equal(t, conv.CurrentState, got.CurrentState)
		assert.Equal(t, conv.Extended, got.Extended)
		assert.True(t, got.Active)
	})

	t.Run("save persists state and extended bag exactly", func(t *testing.T) {
		conv := domain.NewConversation("contract-save", "senior-2", "lodging_request")
		require.NoError(t, store.Create(ctx, conv))

		loaded, err := store.Load(ctx, "contract-save")
		require.NoError(t, err)

		loaded.CurrentState = "AWAITING_TITLE"
		loaded.Extended["draftId"] = "draft-2"
		loaded.Extended["scratch"] = "kept"
		require.NoError(t, store.Save(ctx, loaded))

		got, err := store.Load(ctx, "contract-save")
		require.NoError(t, err)
		assert.Equal(t, "AWAITING_TITLE", got.CurrentState)
		assert.Equal(t, map[string]string{"draftId": "draft-2", "scratch": "kept"}, got.Extended)
		assert.Greater(t, got.Version, conv.Version)
	})

	t.Run("load active finds the open conversation", func(t *testing.T) {
		conv := domain.NewConversation("contract-active", "senior-3", "lodging_request")
		require.NoError(t, store.Create(ctx, conv))

		got, err := store.LoadActive(ctx, "senior-3", "lodging_request")
		require.NoError(t, err)
		assert.Equal(t, "contract-active", got.ID)

		_, err = store.LoadActive(ctx, "senior-3", "other_campaign")
		assert.ErrorIs(t, err, domain.ErrConversationNotFound)
	})

	t.Run("deactivated conversation is no longer active", func(t *testing.T) {
		conv := domain.NewConversation("contract-done", "senior-4", "lodging_request")
		require.NoError(t, store.Create(ctx, conv))

		loaded, err := store.Load(ctx, "contract-done")
		require.NoError(t, err)
		loaded.CurrentState = "COMPLETED"
		loaded.Active = false
		require.NoError(t, store.Save(ctx, loaded))

		_, err = store.LoadActive(ctx, "senior-4", "lodging_request")
		assert.ErrorIs(t, err, domain.ErrConversationNotFound)
	})

	t.Run("stale version save conflicts", func(t *testing.T) {
		conv := domain.NewConversation("contract-race", "senior-5", "lodging_request")
		require.NoError(t, store.Create(ctx, conv))

		first, err := store.Load(ctx, "contract-race")
		require.NoError(t, err)
		second, err := store.Load(ctx, "contract-race")
		require.NoError(t, err)

		first.CurrentState = "AWAITING_TYPE"
		require.NoError(t, store.Save(ctx, first))

		second.CurrentState = "AWAITING_TITLE"
		assert.ErrorIs(t, store.Save(ctx, second), domain.ErrVersionConflict)
	})
}

// RunDraftStoreContract verifies an adapter against ports.DraftStore
// semantics.
func RunDraftStoreContract(t *testing.T, store ports.DraftStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("get missing returns not found", func(t *testing.T) {
		_, err := store.Get(ctx, "contract-missing")
		assert.ErrorIs(t, err, domain.ErrDraftNotFound)
	})

	t.Run("create update get", func(t *testing.T) {
		draft := &domain.Draft{ID: "contract-d1", SeniorID: "senior-1"}
		require.NoError(t, store.Create(ctx, draft))

		draft.Title = "Leaky faucet"
		draft.Priority = domain.PriorityHigh
		require.NoError(t, store.Update(ctx, draft))

		got, err := store.Get(ctx, "contract-d1")
		require.NoError(t, err)
		assert.Equal(t, "Leaky faucet", got.Title)
		assert.Equal(t, domain.PriorityHigh, got.Priority)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		draft := &domain.Draft{ID: "contract-d2", SeniorID: "senior-1"}
		require.NoError(t, store.Create(ctx, draft))

		require.NoError(t, store.Delete(ctx, "contract-d2"))
		require.NoError(t, store.Delete(ctx, "contract-d2"))

		_, err := store.Get(ctx, "contract-d2")
		assert.ErrorIs(t, err, domain.ErrDraftNotFound)
	})
}

// RunRequestStoreContract verifies idempotent canonical-request creation.
func RunRequestStoreContract(t *testing.T, store ports.RequestStore) {
	t.Helper()
	ctx := context.Background()

	req := &domain.Request{
		ID:            "contract-r1",
		SeniorID:      "senior-1",
		RequestTypeID: "type-1",
		Title:         "Leaky faucet",
		Description:   "Kitchen sink drips",
		Priority:      domain.PriorityHigh,
		DraftID:       "contract-draft-key",
	}

	first, err := store.CreateFromDraft(ctx, req)
	require.NoError(t, err)

	// Retry with a fresh candidate ID but the same draft key must return
	// the original record's ID.
	retry := *req
	retry.ID = "contract-r1-retry"
	second, err := store.CreateFromDraft(ctx, &retry)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
