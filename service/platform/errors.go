package platform

import (
	"errors"
	"fmt"
)

// Provider error codes this client branches on. Any other code is passed
// through untouched.
const (
	CodeInvalidParameter = "InvalidParameter"
	CodeResourceNotFound = "ResourceNotFound"
	CodeUnauthorized     = "UnauthorizedOperation"
	CodeTaskNotTerminal  = "CustomTaskNotInTerminalState"

	// CodeMissingResult is synthesised when a successful response carries no
	// Result payload.
	CodeMissingResult = "MissingResult"
	// CodeOther is synthesised for transport, encoding and registry failures
	// that never produced a provider error descriptor.
	CodeOther = "Other"
)

// APIError is the normalized form of every platform call failure: the
// action name, the provider error code (or a synthesised one) and the
// provider message.
type APIError struct {
	API     string
	Code    string
	CodeN   int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("calling %q failed: [%s] %s", e.API, e.Code, e.Message)
}

// NotFoundError indicates the referenced entity does not exist on the
// platform, typically mapped from InvalidParameter or ResourceNotFound.
type NotFoundError struct {
	Kind string
	ID   string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s [%s] does not exist", e.Kind, e.ID)
}

// IsNotFound reports whether err carries a provider code that denotes a
// missing entity, or was already mapped to a NotFoundError.
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		return true
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == CodeInvalidParameter || apiErr.Code == CodeResourceNotFound
}

// IsUnauthorized reports whether err denotes an operation on an entity the
// caller has no permission for.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == CodeUnauthorized
}

// IsTaskNotTerminal reports whether err denotes a delete attempted before
// the task reached a terminal state.
func IsTaskNotTerminal(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == CodeTaskNotTerminal
}
