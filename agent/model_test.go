package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conclave-ai/conclave/core"
	"github.com/conclave-ai/conclave/model"
	"github.com/conclave-ai/conclave/tool"
)

func upperTool(t *testing.T, calls *int) tool.Tool {
	t.Helper()
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"phrase": map[string]interface{}{"type": "string"},
		},
		"required": []string{"phrase"},
	}
	return tool.NewFunctionTool("yell", "Repeats the phrase at full volume", schema,
		func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			if calls != nil {
				*calls++
			}
			phrase, _ := args["phrase"].(string)
			return "HELLO FROM " + phrase, nil
		})
}

func TestModelAgent_PlainTextTurn(t *testing.T) {
	m := model.NewMockModel("mock")
	m.EnqueueText("the answer is 42")

	a := NewModelAgent("worker", m)
	h := core.NewHistory()
	h.Append(core.NewUserMessage("what is the answer?"))

	msg, err := a.Produce(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, "worker", msg.Speaker)
	assert.Equal(t, core.RoleAssistant, msg.Role)
	assert.Equal(t, "the answer is 42", msg.Content)
}

func TestModelAgent_FlattensHistoryPerspective(t *testing.T) {
	m := model.NewMockModel("mock")
	m.EnqueueText("ok")

	a := NewModelAgent("worker", m)
	h := core.NewHistory()
	h.Append(core.NewUserMessage("do the task"))
	h.Append(core.NewAgentMessage("planner", "worker should start"))
	h.Append(core.NewAgentMessage("worker", "starting now"))

	_, err := a.Produce(context.Background(), h)
	require.NoError(t, err)

	reqs := m.Requests()
	require.Len(t, reqs, 1)
	msgs := reqs[0].Messages
	require.Len(t, msgs, 3)

	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "do the task", msgs[0].Content)

	// Other participants appear as attributed user messages.
	assert.Equal(t, "user", msgs[1].Role)
	assert.Equal(t, "planner: worker should start", msgs[1].Content)

	// The agent's own turns appear as assistant messages.
	assert.Equal(t, "assistant", msgs[2].Role)
	assert.Equal(t, "starting now", msgs[2].Content)
}

func TestModelAgent_ToolLoop(t *testing.T) {
	toolCalls := 0
	m := model.NewMockModel("mock")
	m.Enqueue(&model.Response{
		ToolCalls: []model.ToolCall{
			{ID: "call_1", Name: "yell", Arguments: `{"phrase": "bob"}`},
		},
		FinishReason: "tool_calls",
	})
	m.EnqueueText("I yelled: HELLO FROM bob")

	a := NewModelAgent("worker", m, func(o *ModelAgentOptions) {
		o.Tools = []tool.Tool{upperTool(t, &toolCalls)}
	})

	h := core.NewHistory()
	h.Append(core.NewUserMessage("yell at bob"))

	msg, err := a.Produce(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, "I yelled: HELLO FROM bob", msg.Content)
	assert.Equal(t, 1, toolCalls)
	assert.Equal(t, 2, m.Calls())

	// The second completion must carry the tool exchange.
	reqs := m.Requests()
	require.Len(t, reqs, 2)
	second := reqs[1].Messages
	require.Len(t, second, 3)
	assert.Equal(t, "assistant", second[1].Role)
	require.Len(t, second[1].ToolCalls, 1)
	assert.Equal(t, "call_1", second[1].ToolCalls[0].ID)
	assert.Equal(t, "tool", second[2].Role)
	assert.Equal(t, "call_1", second[2].ToolCallID)
	assert.Equal(t, "HELLO FROM bob", second[2].Content)
}

func TestModelAgent_ToolDefinitionsSentToModel(t *testing.T) {
	m := model.NewMockModel("mock")
	m.EnqueueText("done")

	a := NewModelAgent("worker", m, func(o *ModelAgentOptions) {
		o.Tools = []tool.Tool{upperTool(t, nil)}
	})

	h := core.NewHistory()
	h.Append(core.NewUserMessage("task"))
	_, err := a.Produce(context.Background(), h)
	require.NoError(t, err)

	reqs := m.Requests()
	require.Len(t, reqs, 1)
	require.Len(t, reqs[0].Tools, 1)
	assert.Equal(t, "function", reqs[0].Tools[0].Type)
	assert.Equal(t, "yell", reqs[0].Tools[0].Function.Name)
}

func TestModelAgent_ToolFailureFedBackToModel(t *testing.T) {
	m := model.NewMockModel("mock")
	m.Enqueue(&model.Response{
		ToolCalls: []model.ToolCall{
			{ID: "call_1", Name: "yell", Arguments: `{}`},
		},
		FinishReason: "tool_calls",
	})
	m.EnqueueText("the tool rejected my arguments")

	a := NewModelAgent("worker", m, func(o *ModelAgentOptions) {
		o.Tools = []tool.Tool{upperTool(t, nil)}
	})

	h := core.NewHistory()
	h.Append(core.NewUserMessage("yell"))

	msg, err := a.Produce(context.Background(), h)
	require.NoError(t, err, "tool failures must not fail the turn")
	assert.Equal(t, "the tool rejected my arguments", msg.Content)

	reqs := m.Requests()
	require.Len(t, reqs, 2)
	last := reqs[1].Messages[len(reqs[1].Messages)-1]
	assert.Equal(t, "tool", last.Role)
	assert.Contains(t, last.Content, "Error:")
}

func TestModelAgent_UnknownToolReported(t *testing.T) {
	m := model.NewMockModel("mock")
	m.Enqueue(&model.Response{
		ToolCalls: []model.ToolCall{
			{ID: "call_1", Name: "no_such_tool", Arguments: `{}`},
		},
		FinishReason: "tool_calls",
	})
	m.EnqueueText("understood")

	a := NewModelAgent("worker", m)
	h := core.NewHistory()
	h.Append(core.NewUserMessage("task"))

	_, err := a.Produce(context.Background(), h)
	require.NoError(t, err)

	reqs := m.Requests()
	last := reqs[1].Messages[len(reqs[1].Messages)-1]
	assert.Contains(t, last.Content, "not available")
}

func TestModelAgent_ToolIterationCeiling(t *testing.T) {
	m := model.NewMockModel("mock")
	for i := 0; i < 10; i++ {
		m.Enqueue(&model.Response{
			ToolCalls: []model.ToolCall{
				{ID: "call", Name: "yell", Arguments: `{"phrase": "again"}`},
			},
			FinishReason: "tool_calls",
		})
	}

	a := NewModelAgent("worker", m, func(o *ModelAgentOptions) {
		o.Tools = []tool.Tool{upperTool(t, nil)}
		o.MaxToolIterations = 3
	})

	h := core.NewHistory()
	h.Append(core.NewUserMessage("loop forever"))

	_, err := a.Produce(context.Background(), h)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tool iterations")
	assert.Equal(t, 3, m.Calls())
}

func TestModelAgent_ModelErrorPropagates(t *testing.T) {
	m := model.NewMockModel("mock")
	m.EnqueueError(errors.New("service unavailable"))

	a := NewModelAgent("worker", m)
	h := core.NewHistory()
	h.Append(core.NewUserMessage("task"))

	_, err := a.Produce(context.Background(), h)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service unavailable")
}
