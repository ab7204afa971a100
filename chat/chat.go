// Package chat runs group conversations. The GroupChat controller owns the
// shared history and the turn loop: it asks the selector who speaks next,
// dispatches the chosen agent, and appends the output. Agents never write the
// history themselves, so a cancelled or failed turn leaves no partial state
// behind.
package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/conclave-ai/conclave/core"
	"github.com/conclave-ai/conclave/logging"
	"github.com/conclave-ai/conclave/selector"
)

// State is the controller's position in the turn loop.
type State string

const (
	// StateAwaitingSelection means the controller is asking the selector
	// for the next speaker.
	StateAwaitingSelection State = "awaiting_selection"

	// StateDispatching means a speaker was chosen and is about to run.
	StateDispatching State = "dispatching"

	// StateAwaitingOutput means the dispatched agent is producing its turn.
	StateAwaitingOutput State = "awaiting_output"

	// StateTerminated is the only terminal state.
	StateTerminated State = "terminated"
)

// DefaultMaxTurns is the hard ceiling on agent turns per Run.
const DefaultMaxTurns = 15

// Options configures a GroupChat.
type Options struct {
	// MaxTurns is the hard ceiling on agent turns. Zero means DefaultMaxTurns;
	// a negative value disables the ceiling.
	MaxTurns int

	// Condition terminates the conversation when satisfied. Defaults to the
	// termination token mentioned in an agent message.
	Condition selector.Condition

	// TurnRetries is how many times a failed agent turn is retried before
	// the conversation gives up.
	TurnRetries int

	// TurnBackoff is the base delay between turn retries.
	TurnBackoff time.Duration

	// PlannerName identifies the coordination agent whose messages are
	// excluded from FinalAnswer.
	PlannerName string

	// Logger receives turn-level diagnostics.
	Logger logging.Logger
}

// GroupChat drives one conversation between a fixed set of participants.
// A GroupChat is single-use per Run call; Run must not be called concurrently
// on the same instance.
type GroupChat struct {
	agents      []core.Agent
	selector    selector.Selector
	condition   selector.Condition
	maxTurns    int
	turnRetries int
	turnBackoff time.Duration
	plannerName string
	logger      logging.Logger

	state   State
	history *core.History
}

// New creates a group chat over the given participants. The participant
// order is the registration order and is what the selector's deterministic
// tie-breaks refer to.
func New(agents []core.Agent, sel selector.Selector, optFns ...func(o *Options)) *GroupChat {
	opts := Options{
		MaxTurns:    DefaultMaxTurns,
		TurnRetries: 1,
		TurnBackoff: 500 * time.Millisecond,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Condition == nil {
		opts.Condition = selector.NewTextMentionCondition(selector.DefaultTerminationToken)
	}

	maxTurns := opts.MaxTurns
	if maxTurns == 0 {
		maxTurns = DefaultMaxTurns
	} else if maxTurns < 0 {
		maxTurns = 0
	}

	return &GroupChat{
		agents:      agents,
		selector:    sel,
		condition:   opts.Condition,
		maxTurns:    maxTurns,
		turnRetries: opts.TurnRetries,
		turnBackoff: opts.TurnBackoff,
		plannerName: opts.PlannerName,
		logger:      opts.Logger,
		state:       StateAwaitingSelection,
		history:     core.NewHistory(),
	}
}

// State returns the controller's current state.
func (g *GroupChat) State() State { return g.state }

// History returns the conversation history accumulated so far. It is valid
// during and after Run; the returned handle is the live history.
func (g *GroupChat) History() *core.History { return g.history }

// Run executes the conversation for the given task until a termination
// condition fires, the selector decides to stop, the turn ceiling is hit, or
// an unrecoverable error occurs. The history accumulated up to the failure is
// always returned alongside the error.
func (g *GroupChat) Run(ctx context.Context, task string) (*core.History, error) {
	if len(g.agents) == 0 {
		g.state = StateTerminated
		return g.history, &core.FatalConfigurationError{
			Reason: "no active agents to run the conversation",
		}
	}

	g.history.Append(core.NewUserMessage(task))
	limiter := core.NewTurnLimiter(g.maxTurns)

	g.logger.Info("conversation started", "task", task, "participants", len(g.agents))

	for {
		if err := ctx.Err(); err != nil {
			g.state = StateTerminated
			return g.history, err
		}

		if ok, reason := g.condition.Satisfied(g.history); ok {
			g.logger.Info("conversation terminated", "reason", reason, "turns", limiter.Count())
			g.state = StateTerminated
			return g.history, nil
		}

		g.state = StateAwaitingSelection
		decision, err := g.selector.Select(ctx, g.history, g.agents)
		if err != nil {
			g.state = StateTerminated
			return g.history, fmt.Errorf("select next speaker: %w", err)
		}
		if decision.Terminate {
			g.logger.Info("conversation terminated", "reason", decision.Reason, "turns", limiter.Count())
			g.state = StateTerminated
			return g.history, nil
		}

		if err := limiter.Increment(); err != nil {
			g.logger.Warn("turn ceiling reached", "turns", limiter.Count()-1)
			g.state = StateTerminated
			return g.history, nil
		}

		g.state = StateDispatching
		g.logger.Debug("dispatching speaker",
			"agent", decision.Agent.Name(),
			"turn", limiter.Count(),
			"low_confidence", decision.LowConfidence,
			"ambiguous", decision.Ambiguous)

		g.state = StateAwaitingOutput
		msg, err := g.produceWithRetry(ctx, decision.Agent)
		if err != nil {
			g.state = StateTerminated
			return g.history, fmt.Errorf("agent %s turn failed: %w", decision.Agent.Name(), err)
		}

		// The history is mutated only here, after the turn fully succeeded.
		g.history.Append(msg)
	}
}

// produceWithRetry runs one agent turn, retrying transient failures with a
// linear backoff. Cancellation and non-retryable errors fail immediately.
func (g *GroupChat) produceWithRetry(ctx context.Context, agent core.Agent) (core.Message, error) {
	var lastErr error

	for attempt := 0; attempt <= g.turnRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("retrying agent turn",
				"agent", agent.Name(), "attempt", attempt, "error", lastErr)
			select {
			case <-ctx.Done():
				return core.Message{}, ctx.Err()
			case <-time.After(g.turnBackoff * time.Duration(attempt)):
			}
		}

		msg, err := agent.Produce(ctx, g.history)
		if err == nil {
			return msg, nil
		}
		lastErr = err

		if errors.Is(err, context.Canceled) || !core.IsRetryable(err) {
			return core.Message{}, err
		}
	}

	return core.Message{}, lastErr
}

// FinalAnswer extracts the conversation's result: the content of the last
// agent message not authored by plannerName. The empty string is returned
// when no such message exists.
func FinalAnswer(history *core.History, plannerName string) string {
	msgs := history.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m.Role != core.RoleAssistant {
			continue
		}
		if plannerName != "" && m.Speaker == plannerName {
			continue
		}
		return m.Content
	}
	return ""
}

// FinalAnswer returns the result of a finished Run using the configured
// planner name.
func (g *GroupChat) FinalAnswer() string {
	return FinalAnswer(g.history, g.plannerName)
}
