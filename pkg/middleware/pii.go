// Package middleware provides store decorators that sit between the engine
// and its persistence adapters. The journal records what seniors actually
// typed, so deployments that must not retain contact details wrap the
// message store in the PII masker.
package middleware

import (
	"context"
	"regexp"

	"github.com/carelink/carelink/pkg/domain"
	"github.com/carelink/carelink/pkg/ports"
)

// MessageMiddleware decorates a message store.
type MessageMiddleware func(next ports.MessageStore) ports.MessageStore

// ChainMessages applies middlewares so the first listed one runs first on
// each append.
func ChainMessages(store ports.MessageStore, mws ...MessageMiddleware) ports.MessageStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}

// DefaultPIIPatterns cover the identifiers seniors paste into chat most
// often: phone numbers and email addresses.
var DefaultPIIPatterns = []string{
	`\+?\d[\d\s().-]{7,}\d`,
	`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`,
}

const mask = "[redacted]"

type piiMasker struct {
	next     ports.MessageStore
	patterns []*regexp.Regexp
}

// NewPIIMasking builds a middleware that replaces pattern matches in
// message content before it reaches storage. Patterns must compile;
// invalid ones panic during wiring, not on the dispatch path.
func NewPIIMasking(patternStrings []string) MessageMiddleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.MessageStore) ports.MessageStore {
		return &piiMasker{next: next, patterns: patterns}
	}
}

// Append masks a copy; the caller's message is left untouched.
func (m *piiMasker) Append(ctx context.Context, msg *domain.Message) error {
	masked := *msg
	for _, p := range m.patterns {
		masked.Content = p.ReplaceAllString(masked.Content, mask)
	}
	return m.next.Append(ctx, &masked)
}

func (m *piiMasker) ListByConversation(ctx context.Context, conversationID string) ([]domain.Message, error) {
	return m.next.ListByConversation(ctx, conversationID)
}

func (m *piiMasker) DeleteByConversation(ctx context.Context, conversationID string) error {
	return m.next.DeleteByConversation(ctx, conversationID)
}
