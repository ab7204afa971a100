// Package core contains the shared vocabulary of the Conclave framework:
// the Agent capability interface, conversation messages and history, the
// error taxonomy, and the per-exchange turn limiter. Higher layers (registry,
// selector, chat) depend on core and never the other way around.
package core
