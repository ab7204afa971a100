// Package conclave provides a high-level façade for running group
// conversations between model-backed agents. Most applications interact with
// this package by:
//  1. Building a registry of agent specs (or loading one from config)
//  2. Creating a Conclave via New() or FromConfig()
//  3. Asking it questions with Ask(), or driving chats directly via NewChat()
//
// The façade delegates turn-taking to chat.GroupChat and agent construction
// to registry.Registry while keeping setup ergonomics concise. Defaults are
// safe for local development; production deployments typically supply a
// structured logger and a circuit-broken model.
package conclave

import (
	"context"
	"fmt"
	"os"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/conclave-ai/conclave/agent"
	"github.com/conclave-ai/conclave/chat"
	"github.com/conclave-ai/conclave/config"
	"github.com/conclave-ai/conclave/core"
	"github.com/conclave-ai/conclave/logging"
	"github.com/conclave-ai/conclave/model"
	"github.com/conclave-ai/conclave/model/anthropic"
	"github.com/conclave-ai/conclave/model/openai"
	"github.com/conclave-ai/conclave/registry"
	"github.com/conclave-ai/conclave/selector"
)

// Options configures a Conclave instance.
type Options struct {
	// TerminationToken ends conversations when mentioned by an agent or
	// chosen by the selector. Defaults to selector.DefaultTerminationToken.
	TerminationToken string

	// MaxTurns is the hard agent-turn ceiling per conversation.
	MaxTurns int

	// SelectorRetries is how many corrective re-prompts a malformed speaker
	// selection gets before the deterministic fallback.
	SelectorRetries int

	// TurnRetries is how many times a transiently failing agent turn is
	// retried.
	TurnRetries int

	// Selector overrides the default model-backed speaker selector.
	Selector selector.Selector

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// Conclave aggregates a registry of agents and a completion model into a
// group conversation runner.
type Conclave struct {
	registry *registry.Registry
	model    model.Model
	opts     Options
}

// New creates a Conclave over an already populated registry.
func New(reg *registry.Registry, m model.Model, optFns ...func(o *Options)) *Conclave {
	opts := Options{
		TerminationToken: selector.DefaultTerminationToken,
		MaxTurns:         chat.DefaultMaxTurns,
		SelectorRetries:  1,
		TurnRetries:      1,
		Logger:           logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Conclave{registry: reg, model: m, opts: opts}
}

// Registry exposes the underlying agent catalog for registration and
// enable/disable control.
func (c *Conclave) Registry() *registry.Registry { return c.registry }

// NewChat resolves the active agents, appends a freshly built planner that
// knows the resolved roster, and returns a ready-to-run group chat.
//
// Agents that fail to resolve are logged and skipped; the chat proceeds with
// the rest. Only when no agent at all resolves does NewChat fail, with a
// FatalConfigurationError carrying the first underlying cause.
func (c *Conclave) NewChat(ctx context.Context) (*chat.GroupChat, error) {
	workers, warnings := c.registry.ActiveAgents(ctx)
	for _, w := range warnings {
		c.opts.Logger.Warn("agent excluded from conversation", "error", w)
	}

	if len(workers) == 0 {
		reason := "no active agents"
		if len(warnings) > 0 {
			reason = fmt.Sprintf("no active agents (first failure: %v)", warnings[0])
		}
		return nil, &core.FatalConfigurationError{Reason: reason}
	}

	planner := agent.NewPlannerAgent(c.model, workers, func(o *agent.PlannerOptions) {
		o.TerminationToken = c.opts.TerminationToken
	})
	participants := append(append([]core.Agent{}, workers...), planner)

	sel := c.opts.Selector
	if sel == nil {
		sel = selector.NewModelSelector(c.model, func(o *selector.Options) {
			o.TerminationToken = c.opts.TerminationToken
			o.Retries = c.opts.SelectorRetries
			o.Logger = c.opts.Logger
		})
	}

	return chat.New(participants, sel, func(o *chat.Options) {
		o.MaxTurns = c.opts.MaxTurns
		o.Condition = selector.NewTextMentionCondition(c.opts.TerminationToken)
		o.TurnRetries = c.opts.TurnRetries
		o.PlannerName = agent.PlannerName
		o.Logger = c.opts.Logger
	}), nil
}

// Ask runs one complete conversation for the task and returns the final
// answer: the last contribution of a non-planner agent.
func (c *Conclave) Ask(ctx context.Context, task string) (string, error) {
	g, err := c.NewChat(ctx)
	if err != nil {
		return "", err
	}
	if _, err := g.Run(ctx, task); err != nil {
		return g.FinalAnswer(), err
	}
	return g.FinalAnswer(), nil
}

// FromConfig builds a fully wired Conclave from a parsed configuration:
// logger, completion model (optionally circuit-broken), registry with the
// built-in factories, and the configured agent roster.
func FromConfig(cfg *config.Config) (*Conclave, error) {
	logger := logging.New(os.Stderr, cfg.Logging.Format, cfg.Logging.Level)

	m, err := buildModel(cfg.Model, logger)
	if err != nil {
		return nil, err
	}

	reg := registry.New(m, func(o *registry.Options) {
		o.Logger = logger
		o.MCPServers = cfg.ToolServers()
	})
	agent.RegisterBuiltinFactories(reg)

	for _, a := range cfg.Agents {
		if err := reg.Register(a.Name, a.Factory, registry.WithEnabled(a.IsEnabled())); err != nil {
			return nil, err
		}
	}

	return New(reg, m, func(o *Options) {
		if cfg.Chat.TerminationKeyword != "" {
			o.TerminationToken = cfg.Chat.TerminationKeyword
		}
		o.MaxTurns = cfg.Chat.MaxTurns
		o.SelectorRetries = cfg.Chat.SelectorRetries
		o.TurnRetries = cfg.Chat.TurnRetries
		o.Logger = logger
	}), nil
}

func buildModel(mc config.ModelConfig, logger logging.Logger) (model.Model, error) {
	var m model.Model

	switch mc.Provider {
	case "openai":
		m = openai.NewModel(func(o *openai.Options) {
			if mc.Name != "" {
				o.Model = mc.Name
			}
			if mc.Temperature > 0 {
				o.Temperature = mc.Temperature
			}
			if mc.MaxTokens > 0 {
				o.MaxCompletionTokens = int64(mc.MaxTokens)
			}
			o.APIKey = mc.APIKey
		})
	case "anthropic":
		m = anthropic.NewModel(func(o *anthropic.Options) {
			if mc.Name != "" {
				o.Model = anthropicsdk.Model(mc.Name)
			}
			if mc.Temperature > 0 {
				o.Temperature = mc.Temperature
			}
			if mc.MaxTokens > 0 {
				o.MaxTokens = int64(mc.MaxTokens)
			}
			o.APIKey = mc.APIKey
		})
	case "mock":
		m = model.NewMockModel(mc.Name)
	default:
		return nil, &core.FatalConfigurationError{
			Reason: fmt.Sprintf("unknown model provider %q", mc.Provider),
		}
	}

	if mc.Breaker.Enabled {
		m = model.NewBreakerModel(m, func(o *model.BreakerOptions) {
			if mc.Breaker.MaxFailures > 0 {
				o.MaxFailures = mc.Breaker.MaxFailures
			}
			if mc.Breaker.Timeout > 0 {
				o.Timeout = mc.Breaker.Timeout
			}
			if mc.Breaker.Interval > 0 {
				o.Interval = mc.Breaker.Interval
			}
			o.Logger = logger
		})
	}

	return m, nil
}
