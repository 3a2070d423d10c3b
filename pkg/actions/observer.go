package actions

import (
	"context"
	"log/slog"

	"github.com/carelink/carelink/pkg/engine"
)

// NewErrorObserver returns the transition-error hook: it records unexpected
// action failures for operators and nothing else. Purely observational, it
// never returns and never panics, so a broken action cannot cascade into a
// broken error path.
func NewErrorObserver(logger *slog.Logger) func(ctx context.Context, e *engine.ActionErrorEvent) {
	return func(ctx context.Context, e *engine.ActionErrorEvent) {
		defer func() {
			_ = recover()
		}()
		logger.Error("action failed",
			"campaign", e.Campaign,
			"conversation_id", e.ConversationID,
			"state", e.State,
			"trigger", e.Trigger,
			"action", e.Action,
			"err", e.Err,
		)
	}
}
