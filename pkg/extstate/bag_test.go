package extstate_test

import (
	"testing"

	"github.com/carelink/carelink/pkg/extstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBag_Accessors(t *testing.T) {
	b := extstate.New()

	_, ok := b.DraftID()
	assert.False(t, ok)

	b.SetDraftID("draft-1")
	b.SetFinalRequestID("req-9")

	id, ok := b.DraftID()
	assert.True(t, ok)
	assert.Equal(t, "draft-1", id)

	id, ok = b.FinalRequestID()
	assert.True(t, ok)
	assert.Equal(t, "req-9", id)
}

func TestBag_Clear(t *testing.T) {
	b := extstate.New()
	b.SetDraftID("draft-1")
	b.Set("scratch", "value")

	b.Clear()
	assert.Empty(t, b)
}

func TestBag_CloneIsIndependent(t *testing.T) {
	b := extstate.New()
	b.SetDraftID("draft-1")

	c := b.Clone()
	c.SetDraftID("draft-2")

	id, _ := b.DraftID()
	assert.Equal(t, "draft-1", id)
}

func TestCodec_RoundTrip(t *testing.T) {
	b := extstate.New()
	b.SetDraftID("draft-1")
	b.Set("unrecognized", "survives")

	data, err := extstate.Encode(b)
	require.NoError(t, err)

	got, err := extstate.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, b, got)
}

func TestCodec_EmptyInput(t *testing.T) {
	got, err := extstate.Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCodec_EmptyBagEncodesEnvelope(t *testing.T) {
	data, err := extstate.Encode(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1,"kv":{}}`, string(data))
}

func TestCodec_RejectsUnknownVersion(t *testing.T) {
	_, err := extstate.Decode([]byte(`{"v":2,"kv":{}}`))
	assert.Error(t, err)
}
