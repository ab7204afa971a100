package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerModel_PassThrough(t *testing.T) {
	inner := NewMockModel("test")
	inner.EnqueueText("fine")

	m := NewBreakerModel(inner)

	resp, err := m.Complete(context.Background(), Request{
		Messages: []ChatMessage{{Role: "user", Content: "hello"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "fine", resp.Content)
	assert.Equal(t, "mock", m.Info().Provider)
}

func TestBreakerModel_OpensAfterConsecutiveFailures(t *testing.T) {
	inner := NewMockModel("test")
	for i := 0; i < 3; i++ {
		inner.EnqueueError(errors.New("service down"))
	}

	m := NewBreakerModel(inner, func(o *BreakerOptions) {
		o.MaxFailures = 3
	})

	req := Request{Messages: []ChatMessage{{Role: "user", Content: "hello"}}}
	for i := 0; i < 3; i++ {
		_, err := m.Complete(context.Background(), req)
		require.Error(t, err)
	}

	// Circuit is now open: the call fails fast without reaching the model.
	before := inner.Calls()
	_, err := m.Complete(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit open")
	assert.Equal(t, before, inner.Calls())
}
