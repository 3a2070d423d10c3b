package ports

import (
	"context"

	"github.com/carelink/carelink/pkg/domain"
)

// TransitionSource provides the externally stored transition tables the
// compiler builds campaign automatons from. Read-only.
type TransitionSource interface {
	// ListCampaignNames enumerates every campaign the source defines.
	ListCampaignNames(ctx context.Context) ([]string, error)

	// ListTransitions returns all table rows for one campaign, in source
	// order. The compiler owns validation; sources return rows as-is.
	ListTransitions(ctx context.Context, campaign string) ([]domain.Transition, error)
}

// RequestTypeSource lists the known request categories. The capture-type
// action builds its exact-match lookup table from this at wiring time.
type RequestTypeSource interface {
	ListRequestTypes(ctx context.Context) ([]domain.RequestType, error)
}

// PromptLookup resolves the outbound prompt text for a state.
// Returns domain.ErrPromptNotFound when no text is configured; the engine
// downgrades that to "no prompt available" rather than failing dispatch.
type PromptLookup interface {
	GetPrompt(ctx context.Context, campaign, state, language string) (string, error)
}

// OptionResolver returns the reply menu for a state.
type OptionResolver interface {
	GetOptions(ctx context.Context, campaign, state, language string) ([]domain.ReplyOption, error)
}

// OptionStrategy is one entry of a priority-ordered resolver chain. The
// first strategy whose Applies returns true wins; a state no strategy
// covers is a configuration error (domain.ErrNoApplicableStrategy).
type OptionStrategy interface {
	OptionResolver
	Applies(campaign, state string) bool
}
