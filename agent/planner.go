package agent

import (
	"fmt"
	"strings"

	"github.com/conclave-ai/conclave/core"
	"github.com/conclave-ai/conclave/model"
	"github.com/conclave-ai/conclave/selector"
)

// PlannerName is the conversation name of the coordination agent.
const PlannerName = "planner"

// PlannerOptions configures the planner agent.
type PlannerOptions struct {
	// TerminationToken is the phrase the planner emits once the task is done.
	TerminationToken string
}

// NewPlannerAgent builds the coordination agent for a group of workers. The
// planner knows every worker's name and capability summary, breaks the user
// task into steps for them, and emits the termination token when the task is
// complete. It carries no tools of its own.
//
// The planner is constructed from the already resolved workers, so its
// instructions always reflect the agents that actually joined the
// conversation rather than the full catalog.
func NewPlannerAgent(llm model.Model, workers []core.Agent, optFns ...func(o *PlannerOptions)) *ModelAgent {
	opts := PlannerOptions{
		TerminationToken: selector.DefaultTerminationToken,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var roster strings.Builder
	for _, w := range workers {
		fmt.Fprintf(&roster, "- %s: %s\n", w.Name(), w.Description())
	}

	instructions := fmt.Sprintf(`You are the planner coordinating a team of agents working on the user's task.

Your team:
%s
Break the task into steps, state which agent should handle the next step and why, and review their results. You never perform the work yourself.

When the task is fully complete, summarize the outcome and end your message with %s.`,
		roster.String(), opts.TerminationToken)

	return NewModelAgent(PlannerName, llm, func(o *ModelAgentOptions) {
		o.Description = "Coordinates the team, tracks progress and decides when the task is complete"
		o.Instructions = instructions
	})
}
