package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockModel_KeyedResponse(t *testing.T) {
	m := NewMockModel("test")
	m.AddResponse("hello", "hi there")

	resp, err := m.Complete(context.Background(), Request{
		Messages: []ChatMessage{{Role: "user", Content: "hello"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "hi there", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
}

func TestMockModel_QueueTakesPrecedence(t *testing.T) {
	m := NewMockModel("test")
	m.AddResponse("hello", "keyed")
	m.EnqueueText("scripted first")
	m.EnqueueError(errors.New("scripted failure"))

	resp, err := m.Complete(context.Background(), Request{
		Messages: []ChatMessage{{Role: "user", Content: "hello"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "scripted first", resp.Content)

	_, err = m.Complete(context.Background(), Request{
		Messages: []ChatMessage{{Role: "user", Content: "hello"}},
	})
	require.Error(t, err)

	resp, err = m.Complete(context.Background(), Request{
		Messages: []ChatMessage{{Role: "user", Content: "hello"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "keyed", resp.Content)
	assert.Equal(t, 3, m.Calls())
}

func TestMockModel_NoMessages(t *testing.T) {
	m := NewMockModel("test")
	_, err := m.Complete(context.Background(), Request{})
	assert.Error(t, err)
}

func TestMockModel_CancelledContext(t *testing.T) {
	m := NewMockModel("test")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Complete(ctx, Request{Messages: []ChatMessage{{Role: "user", Content: "x"}}})
	assert.ErrorIs(t, err, context.Canceled)
}
