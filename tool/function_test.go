package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"text": map[string]interface{}{
				"type":        "string",
				"description": "Text to echo back",
			},
		},
		"required": []string{"text"},
	}
}

func TestFunctionTool_Call(t *testing.T) {
	ft := NewFunctionTool("echo", "Echoes the input text", echoSchema(),
		func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return args["text"], nil
		})

	assert.Equal(t, "echo", ft.Name())
	assert.Equal(t, "Echoes the input text", ft.Description())

	result, err := ft.Call(context.Background(), map[string]interface{}{"text": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", result)
}

func TestFunctionTool_MissingRequiredArgument(t *testing.T) {
	ft := NewFunctionTool("echo", "Echoes the input text", echoSchema(),
		func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			t.Fatal("function must not run on invalid arguments")
			return nil, nil
		})

	_, err := ft.Call(context.Background(), map[string]interface{}{})
	require.Error(t, err)

	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, CodeValidation, toolErr.Code)
	assert.Equal(t, "echo", toolErr.Tool)
	assert.False(t, toolErr.Remote)
}

func TestFunctionTool_WrongArgumentType(t *testing.T) {
	ft := NewFunctionTool("echo", "Echoes the input text", echoSchema(),
		func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return args["text"], nil
		})

	_, err := ft.Call(context.Background(), map[string]interface{}{"text": 42})
	require.Error(t, err)

	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, CodeValidation, toolErr.Code)
}

func TestFunctionTool_ExecutionError(t *testing.T) {
	ft := NewFunctionTool("echo", "Echoes the input text", echoSchema(),
		func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return nil, errors.New("backend unavailable")
		})

	_, err := ft.Call(context.Background(), map[string]interface{}{"text": "hi"})
	require.Error(t, err)

	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, CodeExecution, toolErr.Code)
	assert.Contains(t, toolErr.Message, "backend unavailable")
}

func TestFunctionTool_ForwardsToolError(t *testing.T) {
	orig := NewToolError("echo", "rate limited", CodeTimeout)
	ft := NewFunctionTool("echo", "Echoes the input text", echoSchema(),
		func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return nil, orig
		})

	_, err := ft.Call(context.Background(), map[string]interface{}{"text": "hi"})
	require.Error(t, err)

	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Same(t, orig, toolErr)
	assert.True(t, toolErr.Retryable())
}

func TestToolError_Retryable(t *testing.T) {
	assert.True(t, NewToolError("x", "slow", CodeTimeout).Retryable())
	assert.False(t, NewToolError("x", "bad args", CodeValidation).Retryable())
	assert.False(t, NewToolError("x", "boom", CodeExecution).Retryable())
	assert.False(t, NewToolError("x", "server said no", CodeRemote).Retryable())
}
