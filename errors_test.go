package gentrun

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsModelError(t *testing.T) {
	type expected struct {
		code    ModelErrorCode
		message string
	}

	network := NewModelError(ModelErrNetwork, "connection refused")

	tests := []struct {
		name     string
		input    error
		expected expected
	}{
		{
			name:     "model error passes through",
			input:    network,
			expected: expected{code: ModelErrNetwork, message: "connection refused"},
		},
		{
			name:     "wrapped model error is unwrapped",
			input:    fmt.Errorf("calling provider: %w", network),
			expected: expected{code: ModelErrNetwork, message: "connection refused"},
		},
		{
			name:     "deadline becomes timeout",
			input:    context.DeadlineExceeded,
			expected: expected{code: ModelErrTimeout, message: "context deadline exceeded"},
		},
		{
			name:     "anything else is unknown",
			input:    errors.New("boom"),
			expected: expected{code: ModelErrUnknown, message: "boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AsModelError(tt.input)
			require.NotNil(t, got)
			assert.Equal(t, tt.expected.code, got.Code)
			assert.Equal(t, tt.expected.message, got.Message)
		})
	}

	assert.Nil(t, AsModelError(nil))
}

func TestModelError_WithMetadata(t *testing.T) {
	orig := NewModelError(ModelErrNetwork, "X")
	orig.Metadata = map[string]any{"status": 503, "provider": "client"}

	got := orig.WithMetadata(map[string]any{"provider": "openai", "model": "gpt-4o"})

	assert.Equal(t, map[string]any{"status": 503, "provider": "openai", "model": "gpt-4o"}, got.Metadata)
	assert.Equal(t, map[string]any{"status": 503, "provider": "client"}, orig.Metadata)
	assert.Equal(t, "NETWORK_ERROR: X", got.Error())
}

func TestAsToolError(t *testing.T) {
	permission := NewToolError(ToolErrPermission, "denied %s", "/etc")

	assert.Same(t, permission, AsToolError(permission))
	assert.Same(t, permission, AsToolError(fmt.Errorf("wrap: %w", permission)))
	assert.Equal(t, ToolErrTimeout, AsToolError(context.DeadlineExceeded).Code)
	assert.Equal(t, &ToolError{Code: ToolErrUnknown, Message: "boom"}, AsToolError(errors.New("boom")))
	assert.Nil(t, AsToolError(nil))
	assert.Equal(t, "PERMISSION_ERROR: denied /etc", permission.Error())
}

func TestPanicMessage(t *testing.T) {
	assert.Equal(t, "boom", PanicMessage("boom"))
	assert.Equal(t, "bad", PanicMessage(errors.New("bad")))
	assert.Equal(t, "42", PanicMessage(42))
}
