package campaignfile

import (
	"context"
	"sort"

	"github.com/carelink/carelink/pkg/domain"
)

// ListCampaignNames implements ports.TransitionSource.
func (s *Source) ListCampaignNames(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(s.docs))
	for name := range s.docs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ListTransitions implements ports.TransitionSource.
func (s *Source) ListTransitions(ctx context.Context, campaign string) ([]domain.Transition, error) {
	doc, ok := s.docs[campaign]
	if !ok {
		return nil, domain.ErrUnknownCampaign
	}
	rows := make([]domain.Transition, 0, len(doc.Transitions))
	for _, r := range doc.Transitions {
		rows = append(rows, domain.Transition{
			Source:  r.Source,
			Trigger: r.Trigger,
			Dest:    r.Dest,
			Guard:   r.Guard,
			Action:  r.Action,
		})
	}
	return rows, nil
}

// GetPrompt implements ports.PromptLookup. A state with no text for the
// requested language falls back to the campaign's first configured language
// only when exactly one is configured; otherwise the miss surfaces.
func (s *Source) GetPrompt(ctx context.Context, campaign, state, language string) (string, error) {
	byLanguage, ok := s.docs[campaign].Prompts[state]
	if !ok {
		return "", domain.ErrPromptNotFound
	}
	if text, ok := byLanguage[language]; ok {
		return text, nil
	}
	if len(byLanguage) == 1 {
		for _, text := range byLanguage {
			return text, nil
		}
	}
	return "", domain.ErrPromptNotFound
}

// Applies implements ports.OptionStrategy. The source covers any state its
// documents define a menu for, in any language.
func (s *Source) Applies(campaign, state string) bool {
	menus, ok := s.docs[campaign].Options[state]
	return ok && len(menus) > 0
}

// GetOptions implements ports.OptionResolver, with the same single-language
// fallback as GetPrompt.
func (s *Source) GetOptions(ctx context.Context, campaign, state, language string) ([]domain.ReplyOption, error) {
	menus := s.docs[campaign].Options[state]
	menu, ok := menus[language]
	if !ok && len(menus) == 1 {
		for _, only := range menus {
			menu = only
		}
	}

	out := make([]domain.ReplyOption, 0, len(menu))
	for _, o := range menu {
		out = append(out, domain.ReplyOption{Text: o.Text, Trigger: o.Trigger})
	}
	return out, nil
}
