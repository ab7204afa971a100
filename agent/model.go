package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/conclave-ai/conclave/core"
	"github.com/conclave-ai/conclave/logging"
	"github.com/conclave-ai/conclave/model"
	"github.com/conclave-ai/conclave/tool"
)

// ModelAgentOptions configures a ModelAgent instance.
//
// Use functional options with NewModelAgent to override defaults.
type ModelAgentOptions struct {
	Description       string
	Instructions      string
	Tools             []tool.Tool
	MaxToolIterations int
	ToolTimeout       time.Duration
	Logger            logging.Logger
}

// ModelAgent is a conversation participant backed by a completion model.
//
// Each Produce call runs one complete turn: the shared history is flattened
// into the agent's point of view, the model is invoked, and any tool calls it
// requests are executed and fed back until the model answers with plain text.
// Tool interactions stay internal to the turn; only the final text lands in
// the shared history.
type ModelAgent struct {
	name              string
	description       string
	instructions      string
	llm               model.Model
	tools             []tool.Tool
	toolIndex         map[string]tool.Tool
	maxToolIterations int
	toolTimeout       time.Duration
	logger            logging.Logger
}

// NewModelAgent creates a model-backed agent with sensible defaults: no
// tools, eight tool iterations per turn, 30-second tool timeout.
func NewModelAgent(name string, llm model.Model, optFns ...func(o *ModelAgentOptions)) *ModelAgent {
	opts := ModelAgentOptions{
		Description:       fmt.Sprintf("%s, a helpful assistant", name),
		Instructions:      fmt.Sprintf("You are %s, a helpful AI assistant.", name),
		MaxToolIterations: 8,
		ToolTimeout:       30 * time.Second,
		Logger:            logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	index := make(map[string]tool.Tool, len(opts.Tools))
	for _, t := range opts.Tools {
		index[t.Name()] = t
	}

	return &ModelAgent{
		name:              name,
		description:       opts.Description,
		instructions:      opts.Instructions,
		llm:               llm,
		tools:             opts.Tools,
		toolIndex:         index,
		maxToolIterations: opts.MaxToolIterations,
		toolTimeout:       opts.ToolTimeout,
		logger:            opts.Logger,
	}
}

// Name returns the agent's conversation name.
func (a *ModelAgent) Name() string { return a.name }

// Description returns the one-line capability summary the selector sees.
func (a *ModelAgent) Description() string { return a.description }

// Tools returns the registered tools in registration order.
func (a *ModelAgent) Tools() []tool.Tool { return a.tools }

// Produce runs one turn of the agent. The returned message carries the
// model's final text; the caller decides whether it enters the history.
func (a *ModelAgent) Produce(ctx context.Context, history *core.History) (core.Message, error) {
	messages := a.flatten(history)

	for iteration := 0; iteration < a.maxToolIterations; iteration++ {
		resp, err := a.llm.Complete(ctx, model.Request{
			Instructions: a.instructions,
			Messages:     messages,
			Tools:        a.toolDefinitions(),
		})
		if err != nil {
			return core.Message{}, fmt.Errorf("model completion: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			return core.NewAgentMessage(a.name, resp.Content), nil
		}

		messages = append(messages, model.ChatMessage{
			Role:      string(core.RoleAssistant),
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, call := range resp.ToolCalls {
			result := a.executeCall(ctx, call)
			messages = append(messages, model.ChatMessage{
				Role:       string(core.RoleTool),
				Content:    result,
				Name:       call.Name,
				ToolCallID: call.ID,
			})
		}

		if err := ctx.Err(); err != nil {
			return core.Message{}, err
		}
	}

	return core.Message{}, fmt.Errorf("agent %s exceeded %d tool iterations", a.name, a.maxToolIterations)
}

// flatten converts the shared history into the agent's point of view: its own
// past turns become assistant messages, everything else becomes user messages
// prefixed with the speaker so the model can tell participants apart.
func (a *ModelAgent) flatten(history *core.History) []model.ChatMessage {
	msgs := history.Messages()
	out := make([]model.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		switch {
		case m.Role == core.RoleAssistant && m.Speaker == a.name:
			out = append(out, model.ChatMessage{
				Role:    string(core.RoleAssistant),
				Content: m.Content,
			})
		case m.Role == core.RoleUser:
			out = append(out, model.ChatMessage{
				Role:    string(core.RoleUser),
				Content: m.Content,
			})
		default:
			out = append(out, model.ChatMessage{
				Role:    string(core.RoleUser),
				Content: fmt.Sprintf("%s: %s", m.Speaker, m.Content),
			})
		}
	}
	return out
}

func (a *ModelAgent) toolDefinitions() []model.ToolDefinition {
	if len(a.tools) == 0 {
		return nil
	}
	defs := make([]model.ToolDefinition, 0, len(a.tools))
	for _, t := range a.tools {
		defs = append(defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return defs
}

// executeCall runs a single requested tool call and renders its outcome as
// the tool-result text fed back to the model. Tool failures are reported to
// the model instead of failing the turn, so it can recover or explain.
func (a *ModelAgent) executeCall(ctx context.Context, call model.ToolCall) string {
	t, ok := a.toolIndex[call.Name]
	if !ok {
		a.logger.Warn("model requested unknown tool", "agent", a.name, "tool", call.Name)
		return fmt.Sprintf("Error: tool %q is not available", call.Name)
	}

	args := make(map[string]interface{})
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return fmt.Sprintf("Error: invalid tool arguments: %v", err)
		}
	}

	callCtx := ctx
	if a.toolTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.toolTimeout)
		defer cancel()
	}

	a.logger.Debug("executing tool", "agent", a.name, "tool", call.Name)

	result, err := t.Call(callCtx, args)
	if err != nil {
		var toolErr *tool.ToolError
		if errors.As(err, &toolErr) {
			a.logger.Warn("tool call failed",
				"agent", a.name, "tool", call.Name,
				"code", toolErr.Code, "remote", toolErr.Remote)
		} else {
			a.logger.Warn("tool call failed", "agent", a.name, "tool", call.Name, "error", err)
		}
		return fmt.Sprintf("Error: %v", err)
	}

	return renderResult(result)
}

// renderResult converts a tool result into the text handed back to the model.
func renderResult(result interface{}) string {
	switch v := result.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return strings.TrimSpace(fmt.Sprintf("%v", v))
		}
		return string(data)
	}
}
