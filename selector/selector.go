// Package selector decides which agent speaks next in a group conversation.
//
// The primary implementation asks a completion model to pick a participant
// by name. Model output is untrusted: the decision space is restricted to the
// known participant names plus the termination token, malformed output gets a
// bounded number of corrective retries, and when those are exhausted the
// selector falls back to a deterministic choice instead of failing the
// conversation.
package selector

import (
	"context"
	"fmt"
	"strings"

	"github.com/conclave-ai/conclave/core"
	"github.com/conclave-ai/conclave/logging"
	"github.com/conclave-ai/conclave/model"
)

// DefaultTerminationToken is the phrase that ends the conversation when the
// selector (or an agent) emits it.
const DefaultTerminationToken = "[TERMINATE_ALL]"

// transcriptWindow bounds how many trailing messages the selection prompt
// includes.
const transcriptWindow = 10

// Decision is the outcome of one selection round.
type Decision struct {
	// Agent is the participant chosen to speak next. Nil when Terminate is set.
	Agent core.Agent

	// Terminate indicates the selector decided the conversation is complete.
	Terminate bool

	// Reason describes how the decision was reached, for logging.
	Reason string

	// LowConfidence is set when the decision came from the deterministic
	// fallback rather than a valid model answer.
	LowConfidence bool

	// Ambiguous is set when the model named several participants and the
	// first in registration order was chosen.
	Ambiguous bool
}

// Selector picks the next speaker from the given participants. Participants
// are passed in registration order; implementations must not return an agent
// outside the slice.
type Selector interface {
	Select(ctx context.Context, history *core.History, agents []core.Agent) (Decision, error)
}

// Options configures a ModelSelector.
type Options struct {
	// TerminationToken ends the conversation when the model answers with it.
	TerminationToken string

	// Retries is how many corrective re-prompts a malformed answer gets
	// before the deterministic fallback kicks in.
	Retries int

	// Logger receives selection diagnostics.
	Logger logging.Logger
}

// ModelSelector asks a completion model to choose the next speaker.
type ModelSelector struct {
	model            model.Model
	terminationToken string
	retries          int
	logger           logging.Logger
}

// NewModelSelector creates a selector backed by the given model.
func NewModelSelector(m model.Model, optFns ...func(o *Options)) *ModelSelector {
	opts := Options{
		TerminationToken: DefaultTerminationToken,
		Retries:          1,
		Logger:           logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}

	return &ModelSelector{
		model:            m,
		terminationToken: opts.TerminationToken,
		retries:          opts.Retries,
		logger:           opts.Logger,
	}
}

// Select asks the model for the next speaker. The model's answer is matched
// case-insensitively against the participant names and the termination token.
// A malformed answer is re-prompted up to the configured retry count with a
// corrective instruction; after that the first participant is chosen with
// LowConfidence set. An answer naming several participants resolves to the
// first of them in registration order with Ambiguous set.
//
// Select returns an error only when the model itself fails or the context is
// done. Participant-shaped garbage from the model never surfaces as an error.
func (s *ModelSelector) Select(ctx context.Context, history *core.History, agents []core.Agent) (Decision, error) {
	if len(agents) == 0 {
		return Decision{}, &core.FatalConfigurationError{Reason: "no participants to select from"}
	}

	prompt := s.buildPrompt(history)
	messages := []model.ChatMessage{
		{Role: string(core.RoleUser), Content: prompt},
	}

	for attempt := 0; ; attempt++ {
		resp, err := s.model.Complete(ctx, model.Request{
			Instructions: s.instructions(agents),
			Messages:     messages,
		})
		if err != nil {
			return Decision{}, &core.SelectionError{Err: err}
		}

		decision, ok := s.parse(resp.Content, agents)
		if ok {
			s.logger.Debug("speaker selected",
				"agent", decisionAgentName(decision),
				"terminate", decision.Terminate,
				"ambiguous", decision.Ambiguous,
				"attempt", attempt)
			return decision, nil
		}

		if attempt >= s.retries {
			break
		}

		s.logger.Warn("unparseable speaker selection, retrying", "raw", resp.Content)
		messages = append(messages,
			model.ChatMessage{Role: string(core.RoleAssistant), Content: resp.Content},
			model.ChatMessage{Role: string(core.RoleUser), Content: s.correction(agents)},
		)
	}

	fallback := agents[0]
	s.logger.Warn("speaker selection fell back to first participant", "agent", fallback.Name())
	return Decision{
		Agent:         fallback,
		Reason:        "fallback after unparseable model output",
		LowConfidence: true,
	}, nil
}

func (s *ModelSelector) instructions(agents []core.Agent) string {
	var b strings.Builder
	b.WriteString("You moderate a conversation between the following participants:\n")
	for _, a := range agents {
		fmt.Fprintf(&b, "- %s: %s\n", a.Name(), a.Description())
	}
	fmt.Fprintf(&b, "\nRead the conversation and decide who should speak next. ")
	fmt.Fprintf(&b, "Answer with exactly one participant name from the list. ")
	fmt.Fprintf(&b, "If the task is complete, answer with %s instead.", s.terminationToken)
	return b.String()
}

func (s *ModelSelector) buildPrompt(history *core.History) string {
	msgs := history.Messages()
	if len(msgs) > transcriptWindow {
		msgs = msgs[len(msgs)-transcriptWindow:]
	}

	var b strings.Builder
	b.WriteString("Conversation so far:\n")
	for _, m := range msgs {
		fmt.Fprintf(&b, "%s: %s\n", m.Speaker, m.Content)
	}
	b.WriteString("\nWho speaks next?")
	return b.String()
}

// correction restates the full roster so the retry carries the same
// information the first prompt did.
func (s *ModelSelector) correction(agents []core.Agent) string {
	var b strings.Builder
	b.WriteString("That was not a valid answer. The participants are:\n")
	for _, a := range agents {
		fmt.Fprintf(&b, "- %s: %s\n", a.Name(), a.Description())
	}
	fmt.Fprintf(&b, "\nReply with exactly one participant name, or %s to end the conversation.",
		s.terminationToken)
	return b.String()
}

// parse matches raw model output against the restricted decision space.
// The bool result is false when nothing in the output matches, which
// triggers a corrective retry.
func (s *ModelSelector) parse(raw string, agents []core.Agent) (Decision, bool) {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	if cleaned == "" {
		return Decision{}, false
	}

	if strings.Contains(cleaned, strings.ToLower(s.terminationToken)) {
		return Decision{Terminate: true, Reason: "model emitted termination token"}, true
	}

	// Scan in registration order so a response naming several participants
	// deterministically resolves to the earliest registered one.
	var matches []core.Agent
	for _, a := range agents {
		if containsName(cleaned, strings.ToLower(a.Name())) {
			matches = append(matches, a)
		}
	}

	switch len(matches) {
	case 0:
		return Decision{}, false
	case 1:
		return Decision{Agent: matches[0], Reason: "model named participant"}, true
	default:
		return Decision{
			Agent:     matches[0],
			Reason:    "model named several participants",
			Ambiguous: true,
		}, true
	}
}

// containsName reports whether name appears in text as a whole token, so the
// participant "ann" does not match a response naming "joanna".
func containsName(text, name string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], name)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(name)
		startOK := start == 0 || !isWordChar(text[start-1])
		endOK := end == len(text) || !isWordChar(text[end])
		if startOK && endOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}

func decisionAgentName(d Decision) string {
	if d.Agent == nil {
		return ""
	}
	return d.Agent.Name()
}
