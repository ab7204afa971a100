package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type transientErr struct{}

func (transientErr) Error() string   { return "temporarily unavailable" }
func (transientErr) Retryable() bool { return true }

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"cancelled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("completion: %w", context.DeadlineExceeded), true},
		{"retryable interface", transientErr{}, true},
		{"plain error", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestResolutionError_Unwrap(t *testing.T) {
	cause := errors.New("tool catalog fetch failed")
	err := &ResolutionError{Agent: "postgres_agent", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "postgres_agent")
}

func TestErrorMessages(t *testing.T) {
	assert.Contains(t, (&DuplicateNameError{Name: "dialogue_agent"}).Error(), "already registered")
	assert.Contains(t, (&UnknownAgentError{Name: "nope"}).Error(), "unknown agent")
	assert.Contains(t, (&FatalConfigurationError{Reason: "no enabled agents"}).Error(), "no enabled agents")
	assert.Contains(t, (&SelectionError{Raw: "???"}).Error(), "???")
}
