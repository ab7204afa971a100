package core

import "context"

// Agent defines the capability interface every conversation participant
// implements.
//
// Agents are named, read the shared conversation history and produce a single
// text contribution per turn. Tool usage, model calls and retries are
// internal to the agent; the conversation controller only sees the resulting
// message or an error.
//
// New agent variants are added through the registry's registration call,
// never through type-checking branches.
//
// Implementations must:
//   - Respect context cancellation and deadlines
//   - Never mutate the provided History (the controller owns appends)
//   - Return a Message authored under their own Name
type Agent interface {
	Name() string
	Description() string
	Produce(ctx context.Context, history *History) (Message, error)
}
