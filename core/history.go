package core

import (
	"strings"
	"sync"
)

// History is the append-only, causally ordered record of one exchange. It is
// shared by reference between the conversation controller and the selector
// and is safe for concurrent access.
//
// Contract:
//   - Messages are only appended, never reordered or removed
//   - Agents read the history but never mutate it; the controller alone
//     appends after an agent produces output
//   - Messages returns a copy; callers never share the backing slice
type History struct {
	mu   sync.RWMutex
	msgs []Message
}

// NewHistory constructs an empty history.
func NewHistory() *History {
	return &History{}
}

// Append adds a message at the end of the history.
func (h *History) Append(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append(h.msgs, msg)
}

// Messages returns a copy of the full message slice to prevent callers from
// mutating internal state.
func (h *History) Messages() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	msgs := make([]Message, len(h.msgs))
	copy(msgs, h.msgs)
	return msgs
}

// Last returns the most recent message, if any.
func (h *History) Last() (Message, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.msgs) == 0 {
		return Message{}, false
	}
	return h.msgs[len(h.msgs)-1], true
}

// Len returns the number of messages recorded so far.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.msgs)
}

// Clone returns a deep copy of the history safe for independent mutation.
func (h *History) Clone() *History {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clone := &History{msgs: make([]Message, len(h.msgs))}
	copy(clone.msgs, h.msgs)
	return clone
}

// Transcript renders the history as "speaker: content" lines, the form
// presented to the selection model.
func (h *History) Transcript() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var b strings.Builder
	for i, m := range h.msgs {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(m.Speaker)
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	return b.String()
}
