package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for pipeline errors.
type ErrorCode string

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_PARSE_FAILED      ErrorCode = "CONFIG_PARSE_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
	CONFIG_NOT_FOUND         ErrorCode = "CONFIG_NOT_FOUND"
)

// Scheduling error codes
const (
	CYCLE_DETECTED     ErrorCode = "CYCLE_DETECTED"
	MISSING_DEPENDENCY ErrorCode = "MISSING_DEPENDENCY"
)

// Agent execution error codes
const (
	MISSING_STATE             ErrorCode = "MISSING_STATE"
	TRANSIENT_FAILURE         ErrorCode = "TRANSIENT_FAILURE"
	EXTRACTION_FAILED         ErrorCode = "EXTRACTION_FAILED"
	SCHEMA_VALIDATION_FAILED  ErrorCode = "SCHEMA_VALIDATION_FAILED"
	AGENT_NOT_FOUND           ErrorCode = "AGENT_NOT_FOUND"
	PROMPT_TEMPLATE_NOT_FOUND ErrorCode = "PROMPT_TEMPLATE_NOT_FOUND"
)

// Graph merge error codes
const (
	DANGLING_REFERENCE  ErrorCode = "DANGLING_REFERENCE"
	GRAPH_UPSERT_FAILED ErrorCode = "GRAPH_UPSERT_FAILED"
	GRAPH_UNAVAILABLE   ErrorCode = "GRAPH_UNAVAILABLE"
)

// Coordinator error codes
const (
	WORKFLOW_NOT_FOUND ErrorCode = "WORKFLOW_NOT_FOUND"
	WORKFLOW_ABORTED   ErrorCode = "WORKFLOW_ABORTED"
	WORKFLOW_CANCELLED ErrorCode = "WORKFLOW_CANCELLED"
)

// PipelineError represents a structured error with error code, message, and
// optional cause. It supports error wrapping and retryability hints for the
// coordinator's failure bookkeeping.
type PipelineError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface, returning a formatted error message.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error by error code.
// Returns true if target is a PipelineError with the same Code.
func (e *PipelineError) Is(target error) bool {
	var perr *PipelineError
	if errors.As(target, &perr) {
		return e.Code == perr.Code
	}
	return false
}

// NewError creates a new non-retryable PipelineError with the given code and message.
func NewError(code ErrorCode, message string) *PipelineError {
	return &PipelineError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Cause:     nil,
	}
}

// NewRetryableError creates a new retryable PipelineError with the given code
// and message. Use this for transient failures that may succeed on retry.
func NewRetryableError(code ErrorCode, message string) *PipelineError {
	return &PipelineError{
		Code:      code,
		Message:   message,
		Retryable: true,
		Cause:     nil,
	}
}

// WrapError creates a new non-retryable PipelineError that wraps an existing
// error. The wrapped error is accessible via Unwrap() for chain inspection.
func WrapError(code ErrorCode, message string, cause error) *PipelineError {
	return &PipelineError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Cause:     cause,
	}
}

// CodeOf returns the ErrorCode carried by err, or the empty string when err
// is not a PipelineError.
func CodeOf(err error) ErrorCode {
	var perr *PipelineError
	if errors.As(err, &perr) {
		return perr.Code
	}
	return ""
}

// IsRetryable reports whether err is a PipelineError marked retryable.
func IsRetryable(err error) bool {
	var perr *PipelineError
	if errors.As(err, &perr) {
		return perr.Retryable
	}
	return false
}
