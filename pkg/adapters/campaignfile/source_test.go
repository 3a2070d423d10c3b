package campaignfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink/carelink/pkg/domain"
)

const lodgingYAML = `
campaign: lodging_request
transitions:
  - source: START
    trigger: SEEK_TYPE
    dest: AWAITING_TYPE
    action: createDraft
  - source: AWAITING_TYPE
    trigger: TYPE_SELECTED
    dest: AWAITING_TITLE
    action: captureType
  - source: AWAITING_TITLE
    trigger: TITLE_PROVIDED
    dest: COMPLETED
    action: captureTitle
prompts:
  AWAITING_TYPE:
    en: "What kind of help do you need?"
    es: "¿Qué tipo de ayuda necesitas?"
  AWAITING_TITLE:
    en: "Give your request a short title."
options:
  AWAITING_TYPE:
    en:
      - text: "Transport"
        trigger: TYPE_SELECTED
      - text: "Groceries"
        trigger: TYPE_SELECTED
`

func writeCampaignDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestLoadDirectory(t *testing.T) {
	dir := writeCampaignDir(t, map[string]string{
		"lodging.yaml": lodgingYAML,
		"notes.txt":    "ignored",
	})

	src, err := Load(dir)
	require.NoError(t, err)

	ctx := context.Background()
	names, err := src.ListCampaignNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"lodging_request"}, names)

	rows, err := src.ListTransitions(ctx, "lodging_request")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, domain.Transition{
		Source:  "START",
		Trigger: "SEEK_TYPE",
		Dest:    "AWAITING_TYPE",
		Action:  "createDraft",
	}, rows[0])

	_, err = src.ListTransitions(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrUnknownCampaign)
}

func TestPromptLanguages(t *testing.T) {
	src, err := Parse([]byte(lodgingYAML))
	require.NoError(t, err)
	ctx := context.Background()

	text, err := src.GetPrompt(ctx, "lodging_request", "AWAITING_TYPE", "es")
	require.NoError(t, err)
	assert.Equal(t, "¿Qué tipo de ayuda necesitas?", text)

	// Single-language states serve that language to everyone.
	text, err = src.GetPrompt(ctx, "lodging_request", "AWAITING_TITLE", "es")
	require.NoError(t, err)
	assert.Equal(t, "Give your request a short title.", text)

	// Multi-language states do not guess.
	_, err = src.GetPrompt(ctx, "lodging_request", "AWAITING_TYPE", "fr")
	assert.ErrorIs(t, err, domain.ErrPromptNotFound)

	_, err = src.GetPrompt(ctx, "lodging_request", "COMPLETED", "en")
	assert.ErrorIs(t, err, domain.ErrPromptNotFound)
}

func TestOptionMenus(t *testing.T) {
	src, err := Parse([]byte(lodgingYAML))
	require.NoError(t, err)
	ctx := context.Background()

	assert.True(t, src.Applies("lodging_request", "AWAITING_TYPE"))
	assert.False(t, src.Applies("lodging_request", "AWAITING_TITLE"))

	opts, err := src.GetOptions(ctx, "lodging_request", "AWAITING_TYPE", "en")
	require.NoError(t, err)
	require.Len(t, opts, 2)
	assert.Equal(t, domain.ReplyOption{Text: "Transport", Trigger: "TYPE_SELECTED"}, opts[0])

	// Single-language fallback mirrors prompts.
	opts, err = src.GetOptions(ctx, "lodging_request", "AWAITING_TYPE", "es")
	require.NoError(t, err)
	assert.Len(t, opts, 2)
}

func TestParseRejectsBadDocuments(t *testing.T) {
	_, err := Parse([]byte("transitions:\n  - source: START\n    trigger: X\n    dest: Y\n"))
	assert.ErrorContains(t, err, "missing campaign name")

	_, err = Parse([]byte("campaign: empty\n"))
	assert.ErrorContains(t, err, "no transitions")

	_, err = Parse([]byte("campaign: typo\ntransitons:\n  - source: START\n"))
	assert.ErrorContains(t, err, "decode")
}

func TestLoadRejectsDuplicateCampaigns(t *testing.T) {
	dir := writeCampaignDir(t, map[string]string{
		"a.yaml": lodgingYAML,
		"b.yaml": lodgingYAML,
	})
	_, err := Load(dir)
	assert.ErrorContains(t, err, "defined twice")
}
