// Package model defines the completion-service boundary. Conclave treats the
// underlying language model as an opaque text-completion service: a Request
// goes in, a single Response comes back. Provider adapters (openai,
// anthropic) translate to the vendor SDKs; the rest of the framework only
// sees this package.
package model

import (
	"context"
	"fmt"
	"sync"
)

// ToolCall represents a function call request surfaced by a model provider.
// Unified across vendors so downstream logic does not need per-provider branching.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON string of arguments
}

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type FunctionDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"` // JSON Schema
}

// ChatMessage is a provider-agnostic chat turn. Tool call requests and their
// results carry correlation IDs so adapters can reconstruct the vendor wire
// format.
type ChatMessage struct {
	Role       string     `json:"role"` // "system", "user", "assistant", "tool"
	Content    string     `json:"content,omitempty"`
	Name       string     `json:"name,omitempty"`         // tool name on role "tool"
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // assistant-requested invocations
	ToolCallID string     `json:"tool_call_id,omitempty"` // correlates a tool result
}

// Request captures the normalized model input.
type Request struct {
	Instructions string           `json:"instructions"` // System prompt for the model
	Messages     []ChatMessage    `json:"messages"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the completion returned by the service. When the model decided
// to call tools, ToolCalls is non-empty and Content may be empty.
type Response struct {
	Content      string      `json:"content"`
	ToolCalls    []ToolCall  `json:"tool_calls,omitempty"`
	FinishReason string      `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required to drive generation. Failure modes
// (timeout, rate limit, empty response) surface as errors for the caller to
// retry or fall back on; they are never propagated raw to the conversation
// controller.
type Model interface {
	Complete(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
// Responses can be scripted in order (Enqueue) or keyed by the latest message
// text (AddResponse).
type MockModel struct {
	mu        sync.Mutex
	info      Info
	responses map[string]string
	queue     []queued
	calls     int
	requests  []Request
}

type queued struct {
	resp *Response
	err  error
}

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      "mock",
			SupportsTools: true,
		},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// Enqueue scripts the next completion in FIFO order, taking precedence over
// keyed responses.
func (m *MockModel) Enqueue(resp *Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, queued{resp: resp})
}

// EnqueueText scripts a plain text completion.
func (m *MockModel) EnqueueText(text string) {
	m.Enqueue(&Response{Content: text, FinishReason: "stop"})
}

// EnqueueError scripts a failing completion.
func (m *MockModel) EnqueueError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, queued{err: err})
}

// Calls reports how many completions have been requested.
func (m *MockModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Requests returns the completion requests received so far, oldest first.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// Complete implements Model.
func (m *MockModel) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.requests = append(m.requests, req)

	if len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		if next.err != nil {
			return nil, next.err
		}
		return next.resp, nil
	}

	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("no messages provided")
	}
	last := req.Messages[len(req.Messages)-1]
	if canned, ok := m.responses[last.Content]; ok {
		return &Response{Content: canned, FinishReason: "stop"}, nil
	}
	return &Response{
		Content:      fmt.Sprintf("Mock response to: %s", last.Content),
		FinishReason: "stop",
	}, nil
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
