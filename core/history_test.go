package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_AppendPreservesOrder(t *testing.T) {
	h := NewHistory()
	h.Append(NewUserMessage("first"))
	h.Append(NewAgentMessage("dialogue_agent", "second"))
	h.Append(NewAgentMessage("planner", "third"))

	msgs := h.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, "second", msgs[1].Content)
	assert.Equal(t, "third", msgs[2].Content)
}

func TestHistory_MessagesReturnsCopy(t *testing.T) {
	h := NewHistory()
	h.Append(NewUserMessage("original"))

	msgs := h.Messages()
	msgs[0].Content = "mutated"

	fresh := h.Messages()
	assert.Equal(t, "original", fresh[0].Content)
}

func TestHistory_Last(t *testing.T) {
	h := NewHistory()

	_, ok := h.Last()
	assert.False(t, ok)

	h.Append(NewUserMessage("hello"))
	h.Append(NewAgentMessage("dialogue_agent", "hi there"))

	last, ok := h.Last()
	require.True(t, ok)
	assert.Equal(t, "hi there", last.Content)
	assert.Equal(t, "dialogue_agent", last.Speaker)
}

func TestHistory_CloneIsIndependent(t *testing.T) {
	h := NewHistory()
	h.Append(NewUserMessage("shared"))

	clone := h.Clone()
	clone.Append(NewAgentMessage("a", "clone only"))

	assert.Equal(t, 1, h.Len())
	assert.Equal(t, 2, clone.Len())
}

func TestHistory_Transcript(t *testing.T) {
	h := NewHistory()
	h.Append(NewUserMessage("show me the latest entries"))
	h.Append(NewAgentMessage("postgres_agent", "here are 10 rows"))

	want := "user: show me the latest entries\npostgres_agent: here are 10 rows"
	assert.Equal(t, want, h.Transcript())
}

func TestMessage_Roles(t *testing.T) {
	assert.Equal(t, RoleUser, NewUserMessage("x").Role)
	assert.Equal(t, RoleAssistant, NewAgentMessage("a", "x").Role)
	assert.Equal(t, RoleTool, NewToolMessage("yell", "X!!!").Role)
}
