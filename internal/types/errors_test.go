package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *PipelineError
		expected string
	}{
		{
			name:     "without cause",
			err:      NewError(CYCLE_DETECTED, "cycle in agent graph"),
			expected: "[CYCLE_DETECTED] cycle in agent graph",
		},
		{
			name:     "with cause",
			err:      WrapError(GRAPH_UPSERT_FAILED, "upsert rejected", errors.New("connection refused")),
			expected: "[GRAPH_UPSERT_FAILED] upsert rejected: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestPipelineError_Unwrap(t *testing.T) {
	cause := errors.New("underlying failure")
	err := WrapError(EXTRACTION_FAILED, "agent output unusable", cause)

	require.ErrorIs(t, err, cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestPipelineError_Is(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewError(MISSING_STATE, "no input for agent"))

	assert.True(t, errors.Is(err, NewError(MISSING_STATE, "different message")))
	assert.False(t, errors.Is(err, NewError(MISSING_DEPENDENCY, "different code")))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewRetryableError(TRANSIENT_FAILURE, "provider unavailable")))
	assert.False(t, IsRetryable(NewError(SCHEMA_VALIDATION_FAILED, "bad payload")))
	assert.False(t, IsRetryable(errors.New("plain error")))
}

func TestCodeOf(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewError(DANGLING_REFERENCE, "missing endpoint"))

	assert.Equal(t, DANGLING_REFERENCE, CodeOf(err))
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain error")))
}
