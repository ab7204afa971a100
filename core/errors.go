package core

import (
	"context"
	"errors"
	"fmt"
)

// ResolutionError reports that an agent factory failed during lazy
// instantiation. It degrades a single agent for the current turn; callers
// must treat the agent as unavailable rather than aborting the exchange.
type ResolutionError struct {
	Agent string
	Err   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolving agent %q: %v", e.Agent, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *ResolutionError) Unwrap() error { return e.Err }

// SelectionError reports malformed or ambiguous classifier output. The
// selector contains it internally (retry, then deterministic fallback); it
// surfaces only in logs.
type SelectionError struct {
	Raw string
	Err error
}

func (e *SelectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("selection failed: %v", e.Err)
	}
	return fmt.Sprintf("malformed selection %q", e.Raw)
}

func (e *SelectionError) Unwrap() error { return e.Err }

// DuplicateNameError is returned by strict registration when the agent name
// is already taken.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("agent %q is already registered", e.Name)
}

// UnknownAgentError is returned when an operation references an agent name
// that was never registered.
type UnknownAgentError struct {
	Name string
}

func (e *UnknownAgentError) Error() string {
	return fmt.Sprintf("unknown agent %q", e.Name)
}

// FatalConfigurationError aborts an exchange before it starts. It is raised
// only when no enabled agent is available at all.
type FatalConfigurationError struct {
	Reason string
}

func (e *FatalConfigurationError) Error() string {
	return fmt.Sprintf("fatal configuration: %s", e.Reason)
}

// retryable is implemented by errors that represent transient failures, such
// as remote tool-server timeouts.
type retryable interface {
	Retryable() bool
}

// IsRetryable reports whether err represents a transient failure worth
// retrying within the configured per-turn retry budget. Deadline expiry is
// retryable; explicit cancellation is not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var r retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return false
}
