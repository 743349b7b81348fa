package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents an Agenda error code.
type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"   // 400
	ErrInvalidStructure ErrorCode = "INVALID_STRUCTURE" // 400
	ErrNotFound         ErrorCode = "NOT_FOUND"         // 404
	ErrFileNotFound     ErrorCode = "FILE_NOT_FOUND"    // 404
	ErrPayloadTooLarge  ErrorCode = "PAYLOAD_TOO_LARGE" // 413
	ErrNoValidEntries   ErrorCode = "NO_VALID_ENTRIES"  // 422
	ErrRateLimited      ErrorCode = "RATE_LIMITED"      // 429
	ErrCancelled        ErrorCode = "CANCELLED"         // 499
	ErrInternal         ErrorCode = "INTERNAL"          // 500
)

// AgendaError represents a structured error with code, status, and details.
type AgendaError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *AgendaError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *AgendaError {
	return &AgendaError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewInvalidStructure creates a 400 error for input missing a required key.
func NewInvalidStructure(missingKey, msg string) *AgendaError {
	return &AgendaError{
		Code:    ErrInvalidStructure,
		Status:  400,
		Message: msg,
		Details: map[string]any{"missing_key": missingKey},
	}
}

// NewNotFound creates a 404 error.
func NewNotFound(what string) *AgendaError {
	return &AgendaError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", what),
		Details: map[string]any{"identifier": what},
	}
}

// NewFileNotFound creates a 404 error for a missing input file.
func NewFileNotFound(path string) *AgendaError {
	return &AgendaError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewPayloadTooLarge creates a 413 error when an upload exceeds the size limit.
func NewPayloadTooLarge(maxMB int) *AgendaError {
	return &AgendaError{
		Code:    ErrPayloadTooLarge,
		Status:  413,
		Message: fmt.Sprintf("file too large: maximum size is %dMB", maxMB),
		Details: map[string]any{"max_mb": maxMB},
	}
}

// NewNoValidEntries creates a 422 error for a well-formed schedule with nothing usable in it.
func NewNoValidEntries(total, dropped int) *AgendaError {
	return &AgendaError{
		Code:    ErrNoValidEntries,
		Status:  422,
		Message: "no valid entries found in the provided data",
		Details: map[string]any{"total_records": total, "dropped_records": dropped},
	}
}

// NewRateLimited creates a 429 error.
func NewRateLimited(limit string) *AgendaError {
	return &AgendaError{
		Code:    ErrRateLimited,
		Status:  429,
		Message: fmt.Sprintf("rate limit exceeded: %s", limit),
		Details: map[string]any{"limit": limit},
	}
}

// NewCancelled creates a 499 error when an operation is cancelled by its caller.
func NewCancelled(op string) *AgendaError {
	return &AgendaError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The message stays generic; the cause is kept in Details for logging only.
func NewInternal(err error) *AgendaError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &AgendaError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
	}
}

// Is checks if an error (or anything it wraps) is an AgendaError with the given code.
func Is(err error, code ErrorCode) bool {
	var aErr *AgendaError
	if stderrors.As(err, &aErr) {
		return aErr.Code == code
	}
	return false
}

// As returns the AgendaError in err's chain, wrapping anything else as INTERNAL.
func As(err error) *AgendaError {
	var aErr *AgendaError
	if stderrors.As(err, &aErr) {
		return aErr
	}
	return NewInternal(err)
}
