package selector

import (
	"fmt"
	"strings"

	"github.com/conclave-ai/conclave/core"
)

// Condition decides whether a conversation should stop. Conditions inspect
// the history only; they never mutate it.
type Condition interface {
	// Satisfied reports whether the condition has been met, with a short
	// human-readable reason when it has.
	Satisfied(history *core.History) (bool, string)
}

// TextMentionCondition stops the conversation when the terminal phrase
// appears in the latest agent message.
type TextMentionCondition struct {
	Phrase string
}

// NewTextMentionCondition creates a condition on the given phrase. An empty
// phrase falls back to the default termination token.
func NewTextMentionCondition(phrase string) *TextMentionCondition {
	if phrase == "" {
		phrase = DefaultTerminationToken
	}
	return &TextMentionCondition{Phrase: phrase}
}

func (c *TextMentionCondition) Satisfied(history *core.History) (bool, string) {
	last, ok := history.Last()
	if !ok || last.Role != core.RoleAssistant {
		return false, ""
	}
	if strings.Contains(last.Content, c.Phrase) {
		return true, fmt.Sprintf("%s mentioned %q", last.Speaker, c.Phrase)
	}
	return false, ""
}

// MaxTurnCondition stops the conversation once the history holds the given
// number of agent messages. User and tool messages do not count as turns.
type MaxTurnCondition struct {
	Max int
}

func NewMaxTurnCondition(max int) *MaxTurnCondition {
	return &MaxTurnCondition{Max: max}
}

func (c *MaxTurnCondition) Satisfied(history *core.History) (bool, string) {
	if c.Max <= 0 {
		return false, ""
	}
	turns := 0
	for _, m := range history.Messages() {
		if m.Role == core.RoleAssistant {
			turns++
		}
	}
	if turns >= c.Max {
		return true, fmt.Sprintf("turn ceiling of %d reached", c.Max)
	}
	return false, ""
}

// orCondition is satisfied when any member condition is.
type orCondition struct {
	conditions []Condition
}

// Or composes conditions; the first satisfied member wins.
func Or(conditions ...Condition) Condition {
	return &orCondition{conditions: conditions}
}

func (c *orCondition) Satisfied(history *core.History) (bool, string) {
	for _, cond := range c.conditions {
		if ok, reason := cond.Satisfied(history); ok {
			return true, reason
		}
	}
	return false, ""
}
