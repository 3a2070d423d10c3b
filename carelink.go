// Package carelink assembles the conversational campaign engine: transition
// tables compiled into campaign automatons, durable suspend/resume
// conversations, and the action pipeline that turns a finished dialog into
// a canonical care request.
//
// The package wires the pieces under pkg/ into one Engine. Hosts that need
// finer control (custom stores, extra actions, distributed locking) pass
// functional options; everything defaults to the in-memory adapters.
package carelink

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/carelink/carelink/internal/logging"
	"github.com/carelink/carelink/pkg/actions"
	"github.com/carelink/carelink/pkg/adapters/campaignfile"
	"github.com/carelink/carelink/pkg/adapters/memory"
	"github.com/carelink/carelink/pkg/domain"
	"github.com/carelink/carelink/pkg/engine"
	"github.com/carelink/carelink/pkg/ports"
	"github.com/carelink/carelink/pkg/registry"
)

// Engine is the high-level entry point. It owns the compiled campaign
// catalog and the dispatcher; one Engine serves every campaign its
// transition source defines.
type Engine struct {
	dispatcher *engine.Dispatcher
	catalog    *engine.Catalog
}

type config struct {
	source        ports.TransitionSource
	types         ports.RequestTypeSource
	conversations ports.ConversationStore
	messages      ports.MessageStore
	drafts        ports.DraftStore
	requests      ports.RequestStore
	prompts       ports.PromptLookup
	strategies    []ports.OptionStrategy
	locker        ports.DistributedLocker
	hooks         []engine.Hooks
	logger        *slog.Logger
	language      string
	extraActions  map[string]registry.Action
	extraGuards   map[string]registry.Guard
}

// Option configures the Engine.
type Option func(*config)

// WithTransitionSource sets the campaign table source. Required unless
// WithCampaignDir is used.
func WithTransitionSource(src ports.TransitionSource) Option {
	return func(c *config) {
		c.source = src
	}
}

// WithRequestTypeSource sets where the capture-type action learns the valid
// request categories. Defaults to an empty list.
func WithRequestTypeSource(src ports.RequestTypeSource) Option {
	return func(c *config) {
		c.types = src
	}
}

// WithConversationStore overrides the conversation store.
func WithConversationStore(store ports.ConversationStore) Option {
	return func(c *config) {
		c.conversations = store
	}
}

// WithMessageStore overrides the message journal.
func WithMessageStore(store ports.MessageStore) Option {
	return func(c *config) {
		c.messages = store
	}
}

// WithDraftStore overrides the draft store.
func WithDraftStore(store ports.DraftStore) Option {
	return func(c *config) {
		c.drafts = store
	}
}

// WithRequestStore overrides the canonical request store.
func WithRequestStore(store ports.RequestStore) Option {
	return func(c *config) {
		c.requests = store
	}
}

// WithPromptLookup overrides prompt resolution.
func WithPromptLookup(prompts ports.PromptLookup) Option {
	return func(c *config) {
		c.prompts = prompts
	}
}

// WithOptionStrategies prepends reply-menu strategies to the resolver
// chain. The first applicable strategy wins; the terminal-state strategy is
// always appended last.
func WithOptionStrategies(strategies ...ports.OptionStrategy) Option {
	return func(c *config) {
		c.strategies = append(c.strategies, strategies...)
	}
}

// WithDistributedLocker enables cross-replica conversation locking.
func WithDistributedLocker(locker ports.DistributedLocker) Option {
	return func(c *config) {
		c.locker = locker
	}
}

// WithHooks registers lifecycle hooks. May be given more than once; all
// registered hook sets fire.
func WithHooks(hooks engine.Hooks) Option {
	return func(c *config) {
		c.hooks = append(c.hooks, hooks)
	}
}

// WithLogger sets the structured logger. Defaults to no-op.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithDefaultLanguage sets the prompt language used when a dispatch
// carries none. Defaults to "en".
func WithDefaultLanguage(language string) Option {
	return func(c *config) {
		c.language = language
	}
}

// WithAction registers an additional action handler before the catalog's
// wiring check runs, so campaign tables may reference it.
func WithAction(name string, fn registry.Action) Option {
	return func(c *config) {
		c.extraActions[name] = fn
	}
}

// WithGuard registers an additional guard handler.
func WithGuard(name string, fn registry.Guard) Option {
	return func(c *config) {
		c.extraGuards[name] = fn
	}
}

// New assembles an Engine from a campaign directory. The directory's YAML
// documents provide the transition tables, prompts and reply menus.
func New(ctx context.Context, campaignDir string, opts ...Option) (*Engine, error) {
	src, err := campaignfile.Load(campaignDir)
	if err != nil {
		return nil, err
	}
	return NewFromSource(ctx, src, opts...)
}

// NewFromSource assembles an Engine from an explicit transition source.
// Sources that also implement prompt lookup or the option strategy
// interface (as the campaign file source does) are wired into those roles
// unless options override them.
func NewFromSource(ctx context.Context, src ports.TransitionSource, opts ...Option) (*Engine, error) {
	c := &config{
		source:       src,
		language:     "en",
		logger:       logging.NewNop(),
		extraActions: make(map[string]registry.Action),
		extraGuards:  make(map[string]registry.Guard),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.source == nil {
		return nil, fmt.Errorf("a transition source is required")
	}
	if c.conversations == nil {
		c.conversations = memory.NewConversationStore()
	}
	if c.messages == nil {
		c.messages = memory.NewMessageStore()
	}
	if c.drafts == nil {
		c.drafts = memory.NewDraftStore()
	}
	if c.requests == nil {
		c.requests = memory.NewRequestStore()
	}
	if c.types == nil {
		c.types = memory.NewRequestTypeSource(nil)
	}

	types, err := actions.BuildTypeIndex(ctx, c.types)
	if err != nil {
		return nil, fmt.Errorf("load request types: %w", err)
	}

	reg := registry.New()
	actions.Register(reg, actions.Deps{
		Drafts:   c.drafts,
		Requests: c.requests,
		Types:    types,
	})
	for name, fn := range c.extraActions {
		reg.RegisterAction(name, fn)
	}
	for name, fn := range c.extraGuards {
		reg.RegisterGuard(name, fn)
	}

	catalog, err := engine.BuildCatalog(ctx, c.source, reg, c.logger)
	if err != nil {
		return nil, err
	}

	if c.prompts == nil {
		if prompts, ok := c.source.(ports.PromptLookup); ok {
			c.prompts = prompts
		} else {
			c.prompts = noPrompts{}
		}
	}
	strategies := c.strategies
	if strategy, ok := c.source.(ports.OptionStrategy); ok {
		strategies = append(strategies, strategy)
	}
	strategies = append(strategies, engine.NewTerminalStrategy(catalog))

	hooks := mergeHooks(c.hooks)
	observer := actions.NewErrorObserver(c.logger)
	userActionError := hooks.OnActionError
	hooks.OnActionError = func(ctx context.Context, e *engine.ActionErrorEvent) {
		observer(ctx, e)
		if userActionError != nil {
			userActionError(ctx, e)
		}
	}

	dispatcher := engine.NewDispatcher(
		catalog, reg, c.conversations, c.messages, c.prompts,
		engine.NewStrategyChain(strategies...),
		engine.WithDraftStore(c.drafts),
		engine.WithLogger(c.logger),
		engine.WithLocker(c.locker),
		engine.WithHooks(hooks),
		engine.WithDefaultLanguage(c.language),
	)

	return &Engine{dispatcher: dispatcher, catalog: catalog}, nil
}

// Dispatch applies one inbound trigger. See engine.Dispatcher.Dispatch.
func (e *Engine) Dispatch(ctx context.Context, req engine.DispatchRequest) (*engine.DispatchResult, error) {
	return e.dispatcher.Dispatch(ctx, req)
}

// Clear closes a conversation and erases its journal and draft.
func (e *Engine) Clear(ctx context.Context, conversationID string) error {
	return e.dispatcher.Clear(ctx, conversationID)
}

// Journal returns a conversation's message history.
func (e *Engine) Journal(ctx context.Context, conversationID string) ([]domain.Message, error) {
	return e.dispatcher.Journal(ctx, conversationID)
}

// Dispatcher exposes the underlying dispatcher for transport adapters.
func (e *Engine) Dispatcher() *engine.Dispatcher {
	return e.dispatcher
}

// Campaigns lists the compiled campaign names.
func (e *Engine) Campaigns() []string {
	return e.catalog.Campaigns()
}

func mergeHooks(sets []engine.Hooks) engine.Hooks {
	var merged engine.Hooks
	for _, h := range sets {
		h := h
		prevT, prevR, prevA := merged.OnTransition, merged.OnRejected, merged.OnActionError
		if h.OnTransition != nil {
			merged.OnTransition = func(ctx context.Context, e *engine.TransitionEvent) {
				if prevT != nil {
					prevT(ctx, e)
				}
				h.OnTransition(ctx, e)
			}
		}
		if h.OnRejected != nil {
			merged.OnRejected = func(ctx context.Context, e *engine.RejectionEvent) {
				if prevR != nil {
					prevR(ctx, e)
				}
				h.OnRejected(ctx, e)
			}
		}
		if h.OnActionError != nil {
			merged.OnActionError = func(ctx context.Context, e *engine.ActionErrorEvent) {
				if prevA != nil {
					prevA(ctx, e)
				}
				h.OnActionError(ctx, e)
			}
		}
	}
	return merged
}

// noPrompts is the fallback lookup for sources without prompt text; every
// state is a miss, which the dispatcher downgrades to an empty prompt.
type noPrompts struct{}

func (noPrompts) GetPrompt(ctx context.Context, campaign, state, language string) (string, error) {
	return "", domain.ErrPromptNotFound
}
