package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Error type constants for classification
const (
	// ErrorTypeNodeFailed matches any error except timeouts and fatal errors
	ErrorTypeNodeFailed = "node_failed"

	// ErrorTypeTimeout matches a timeout or context cancellation
	ErrorTypeTimeout = "timeout"

	// ErrorTypeFatal indicates an error that must not be retried. Unknown
	// errors default to node_failed so retries remain possible; errors known
	// to be permanent should carry this type.
	ErrorTypeFatal = "fatal_error"
)

// WorkflowError represents a structured error with classification.
// It supports Go's error wrapping patterns with Unwrap().
type WorkflowError struct {
	Type    string `json:"type"`
	Cause   string `json:"cause"`
	Wrapped error  `json:"-"`
}

// Error implements the error interface
func (e *WorkflowError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Cause)
}

// Unwrap implements the error unwrapping interface for errors.Is and errors.As
func (e *WorkflowError) Unwrap() error {
	return e.Wrapped
}

// IsRecoverable reports whether the error may be retried.
func (e *WorkflowError) IsRecoverable() bool {
	return e.Type != ErrorTypeFatal
}

// NewFatalError wraps an error so that no retry policy will re-attempt it.
func NewFatalError(err error) *WorkflowError {
	return &WorkflowError{Type: ErrorTypeFatal, Cause: err.Error(), Wrapped: err}
}

// ClassifyError classifies a regular error into a WorkflowError
func ClassifyError(err error) *WorkflowError {
	var workflowError *WorkflowError
	if errors.As(err, &workflowError) {
		return workflowError
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		strings.Contains(strings.ToLower(err.Error()), "timeout") {
		return &WorkflowError{
			Type:    ErrorTypeTimeout,
			Cause:   err.Error(),
			Wrapped: err,
		}
	}
	return &WorkflowError{
		Type:    ErrorTypeNodeFailed,
		Cause:   err.Error(),
		Wrapped: err,
	}
}
