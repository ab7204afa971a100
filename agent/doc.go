// Package agent provides the conversation participants of conclave.
//
// ModelAgent is the single concrete participant type: a completion model plus
// an instruction prompt and an optional tool set. The closed set of built-in
// behaviors (dialogue, database, formatter) enters through registry factories
// keyed by locator strings, and the planner coordinating a conversation is
// constructed directly from the resolved workers.
package agent
