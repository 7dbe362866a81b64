package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// NoWorkspace indicates no workspace root is open
	NoWorkspace ErrorCode = "NO_WORKSPACE"
	// ArtifactMissing indicates the engine returned but left no result file
	ArtifactMissing ErrorCode = "ARTIFACT_MISSING"
	// MalformedRecord indicates an artifact line did not match its kind's pattern
	MalformedRecord ErrorCode = "MALFORMED_RECORD"
	// RangeReconstructionFailed indicates a source range could not be re-derived
	RangeReconstructionFailed ErrorCode = "RANGE_RECONSTRUCTION_FAILED"
	// CleanupFailed indicates a consumed or stale artifact could not be deleted
	CleanupFailed ErrorCode = "CLEANUP_FAILED"
	// EngineFailed indicates the analysis engine invocation failed
	EngineFailed ErrorCode = "ENGINE_FAILED"
	// RequestBusy indicates a same-kind request is already in flight for the root
	RequestBusy ErrorCode = "REQUEST_BUSY"
	// Cancelled indicates the request was cancelled before dispatch
	Cancelled ErrorCode = "CANCELLED"
	// InvalidRequest indicates a malformed analysis request
	InvalidRequest ErrorCode = "INVALID_REQUEST"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// NavError represents an error with a stable code and optional details
type NavError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error       // Underlying error (not exported to JSON)
}

// New creates a new NavError
func New(code ErrorCode, message string, cause error) *NavError {
	return &NavError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Error implements the error interface
func (e *NavError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *NavError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *NavError) WithDetails(details interface{}) *NavError {
	e.Details = details
	return e
}

// CodeOf returns the code of the first NavError in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var navErr *NavError
	if stderrors.As(err, &navErr) {
		return navErr.Code
	}
	return ""
}

// HasCode reports whether err's chain carries a NavError with the given code.
func HasCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}
