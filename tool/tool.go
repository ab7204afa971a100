// Package tool implements the tool adapter subsystem that lets agents invoke
// structured capabilities, local Go functions or remotely hosted tool-server
// functions, with schema validated arguments and consistent error handling.
package tool

import (
	"context"
	"fmt"
)

// Tool defines the interface for extending agent capabilities with external functions.
//
// A Tool is a locally callable capability with a declared name, a JSON-schema
// parameter description and an invocation contract. Implementations may be
// backed by a plain Go function (FunctionTool) or by a remote tool server
// (MCPTool).
//
// Implementations should:
//   - Provide clear, descriptive names and descriptions (snake_case names)
//   - Define proper JSON schema for parameters
//   - Be safe for concurrent use
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description of what this tool does.
	// This description is provided to the LLM to help it understand when and how to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected input format.
	Parameters() map[string]interface{}

	// Call executes the tool with structured arguments. Arguments are parsed
	// from JSON and validated against the tool's schema before execution.
	Call(ctx context.Context, args map[string]interface{}) (interface{}, error)
}

// Error codes attached to ToolError for uniform downstream handling.
const (
	CodeValidation = "VALIDATION_ERROR" // local: arguments do not match the schema
	CodeExecution  = "EXECUTION_ERROR"  // local: the wrapped function failed
	CodeRemote     = "REMOTE_ERROR"     // remote: the tool server returned an error envelope
	CodeTimeout    = "TIMEOUT"          // remote: the call did not complete in time
)

// ToolError represents errors that occur during tool execution. Remote
// distinguishes tool-server failures from local invocation errors so callers
// can tell "bad parameters" apart from "remote unavailable".
type ToolError struct {
	Tool    string      `json:"tool"`              // Name of the tool that failed
	Message string      `json:"message"`           // Error message
	Code    string      `json:"code"`              // Error code for categorization
	Remote  bool        `json:"remote"`            // True when the failure originated server-side
	Details interface{} `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// Retryable reports whether the failure is transient. Timeouts and remote
// availability problems are retryable; validation and execution errors are not.
func (e *ToolError) Retryable() bool {
	return e.Code == CodeTimeout
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
