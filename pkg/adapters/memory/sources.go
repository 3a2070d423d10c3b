package memory

import (
	"context"

	"github.com/carelink/carelink/pkg/domain"
)

// TransitionSource serves transition tables from a static map.
type TransitionSource struct {
	tables map[string][]domain.Transition
}

// NewTransitionSource wraps campaign tables keyed by campaign name.
func NewTransitionSource(tables map[string][]domain.Transition) *TransitionSource {
	return &TransitionSource{tables: tables}
}

// ListCampaignNames implements ports.TransitionSource.
func (s *TransitionSource) ListCampaignNames(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	return names, nil
}

// ListTransitions implements ports.TransitionSource.
func (s *TransitionSource) ListTransitions(ctx context.Context, campaign string) ([]domain.Transition, error) {
	return s.tables[campaign], nil
}

// RequestTypeSource serves a static request type list.
type RequestTypeSource struct {
	types []domain.RequestType
}

// NewRequestTypeSource wraps the known request types.
func NewRequestTypeSource(types []domain.RequestType) *RequestTypeSource {
	return &RequestTypeSource{types: types}
}

// ListRequestTypes implements ports.RequestTypeSource.
func (s *RequestTypeSource) ListRequestTypes(ctx context.Context) ([]domain.RequestType, error) {
	return append([]domain.RequestType(nil), s.types...), nil
}

// PromptLookup serves prompts from a static campaign/state/language map.
type PromptLookup struct {
	prompts map[string]map[string]map[string]string // campaign -> state -> language -> text
}

// NewPromptLookup wraps a static prompt table.
func NewPromptLookup(prompts map[string]map[string]map[string]string) *PromptLookup {
	return &PromptLookup{prompts: prompts}
}

// GetPrompt implements ports.PromptLookup.
func (s *PromptLookup) GetPrompt(ctx context.Context, campaign, state, language string) (string, error) {
	if text, ok := s.prompts[campaign][state][language]; ok {
		return text, nil
	}
	return "", domain.ErrPromptNotFound
}

// OptionStrategy serves reply options from a static map. It applies to any
// state present in its table.
type OptionStrategy struct {
	options map[string]map[string][]domain.ReplyOption // campaign -> state -> options
}

// NewOptionStrategy wraps a static option table.
func NewOptionStrategy(options map[string]map[string][]domain.ReplyOption) *OptionStrategy {
	return &OptionStrategy{options: options}
}

// Applies implements ports.OptionStrategy.
func (s *OptionStrategy) Applies(campaign, state string) bool {
	_, ok := s.options[campaign][state]
	return ok
}

// GetOptions implements ports.OptionResolver.
func (s *OptionStrategy) GetOptions(ctx context.Context, campaign, state, language string) ([]domain.ReplyOption, error) {
	return append([]domain.ReplyOption(nil), s.options[campaign][state]...), nil
}
