package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurnLimiter_EnforcesCeiling(t *testing.T) {
	tl := NewTurnLimiter(2)

	require.NoError(t, tl.Increment())
	require.NoError(t, tl.Increment())

	err := tl.Increment()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTurnLimit)
	assert.Equal(t, 3, tl.Count())
}

func TestTurnLimiter_Unlimited(t *testing.T) {
	tl := NewTurnLimiter(0)
	for i := 0; i < 50; i++ {
		require.NoError(t, tl.Increment())
	}
	assert.Equal(t, -1, tl.Remaining())
}

func TestTurnLimiter_Remaining(t *testing.T) {
	tl := NewTurnLimiter(5)
	require.NoError(t, tl.Increment())
	assert.Equal(t, 4, tl.Remaining())
}
