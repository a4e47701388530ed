package tools

import (
	"errors"
	"fmt"
)

// Sentinel errors for tool catalog operations.
var (
	// ErrToolNotFound is returned when a requested tool is not in the registry.
	ErrToolNotFound = errors.New("tool not found")

	// ErrToolNameRequired is returned when registering a tool without a name.
	ErrToolNameRequired = errors.New("tool name is required")

	// ErrToolDescriptionRequired is returned when registering a tool without a description.
	ErrToolDescriptionRequired = errors.New("tool description is required")

	// ErrParamSpecIncomplete is returned when a declared parameter lacks a
	// name, type, or description.
	ErrParamSpecIncomplete = errors.New("parameter spec requires name, type, and description")

	// ErrDuplicateParam is returned when a definition declares the same
	// parameter twice.
	ErrDuplicateParam = errors.New("duplicate parameter")

	// ErrDuplicateTool is returned when two tools register the same name.
	ErrDuplicateTool = errors.New("duplicate tool name")
)

// APIError is a domain-declared failure raised by tool business logic:
// malformed input, authorization problems, or references to nonexistent
// entities. The invocation engine recovers these into exception envelopes;
// they never crash a replay.
type APIError struct {
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string { return e.Message }

// NewAPIError builds an APIError with the given message.
func NewAPIError(message string) *APIError {
	return &APIError{Message: message}
}

// APIErrorf builds an APIError with a formatted message.
func APIErrorf(format string, args ...any) *APIError {
	return &APIError{Message: fmt.Sprintf(format, args...)}
}

// IsAPIError reports whether err is a domain-declared tool failure.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
