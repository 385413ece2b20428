// Package errors defines structured error types for the Praxis governance service.
// Every error carries a stable machine-readable code from pkg/constants so
// callers can branch on the governance taxonomy instead of matching strings.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/praxisgrc/praxis/pkg/constants"
)

// ================================================================================
// Error Interface
// ================================================================================

// PraxisError represents a structured error with additional metadata.
type PraxisError interface {
	error

	// Code returns the governance error code
	Code() constants.ErrorCode

	// HTTPStatus returns the HTTP status code for the read-only surface
	HTTPStatus() int

	// Description returns a human-readable description
	Description() string

	// Unwrap returns the underlying error for error chain support
	Unwrap() error

	// WithCause adds a cause error to the error chain
	WithCause(cause error) PraxisError

	// WithMetadata adds additional context metadata
	WithMetadata(key string, value interface{}) PraxisError

	// Metadata returns all metadata
	Metadata() map[string]interface{}
}

// ================================================================================
// Base Error Implementation
// ================================================================================

type baseError struct {
	code        constants.ErrorCode
	httpStatus  int
	description string
	message     string
	cause       error
	metadata    map[string]interface{}
}

func (e *baseError) Error() string {
	if e.message != "" {
		return e.message
	}
	return e.description
}

func (e *baseError) Code() constants.ErrorCode {
	return e.code
}

func (e *baseError) HTTPStatus() int {
	return e.httpStatus
}

func (e *baseError) Description() string {
	return e.description
}

func (e *baseError) Unwrap() error {
	return e.cause
}

func (e *baseError) WithCause(cause error) PraxisError {
	e.cause = cause
	return e
}

func (e *baseError) WithMetadata(key string, value interface{}) PraxisError {
	if e.metadata == nil {
		e.metadata = make(map[string]interface{})
	}
	e.metadata[key] = value
	return e
}

func (e *baseError) Metadata() map[string]interface{} {
	return e.metadata
}

// NewError creates a new PraxisError with the specified parameters.
func NewError(code constants.ErrorCode, httpStatus int, description string, message string) PraxisError {
	return &baseError{
		code:        code,
		httpStatus:  httpStatus,
		description: description,
		message:     message,
		metadata:    make(map[string]interface{}),
	}
}

// CodeOf extracts the governance error code from an error chain.
// Unknown errors map to ErrCodeInternal.
func CodeOf(err error) constants.ErrorCode {
	var pe PraxisError
	if errors.As(err, &pe) {
		return pe.Code()
	}
	return constants.ErrCodeInternal
}

// IsCode reports whether the error chain carries the given governance code.
func IsCode(err error, code constants.ErrorCode) bool {
	var pe PraxisError
	if errors.As(err, &pe) {
		return pe.Code() == code
	}
	return false
}

// ================================================================================
// Transition Error Constructors
// ================================================================================

// ErrUnauthorized indicates the actor's role does not permit the requested edge.
func ErrUnauthorized(message string) PraxisError {
	return NewError(
		constants.ErrCodeUnauthorized,
		http.StatusForbidden,
		"The acting role does not permit this transition.",
		message,
	)
}

// ErrInvalidTransition indicates the requested edge is absent from the state graph.
func ErrInvalidTransition(from, to string) PraxisError {
	return NewError(
		constants.ErrCodeInvalidTransition,
		http.StatusConflict,
		"The requested state transition is not legal.",
		fmt.Sprintf("no transition from %q to %q", from, to),
	).WithMetadata("from", from).WithMetadata("to", to)
}

// ErrMissingReason indicates a destructive transition lacked a reason.
func ErrMissingReason(to string) PraxisError {
	return NewError(
		constants.ErrCodeMissingReason,
		http.StatusBadRequest,
		"Destructive transitions require a reason.",
		fmt.Sprintf("transition to %q requires a reason", to),
	).WithMetadata("to", to)
}

// ================================================================================
// Allocation and Recompute Error Constructors
// ================================================================================

// ErrRaceExhausted indicates the allocator exhausted its retry budget.
// The caller degrades to a fallback code; creation still succeeds.
func ErrRaceExhausted(tenantID string, class constants.EntityClass, attempts int) PraxisError {
	return NewError(
		constants.ErrCodeRaceExhausted,
		http.StatusServiceUnavailable,
		"Sequential code allocation exhausted its retries.",
		fmt.Sprintf("allocation for tenant %s class %s lost the race %d times", tenantID, class, attempts),
	).WithMetadata("tenant_id", tenantID).WithMetadata("class", string(class))
}

// ErrConstraintViolation indicates an invariant breach. This is the fatal
// programming-error class: the enclosing mutation must roll back and the
// failure must be loud.
func ErrConstraintViolation(message string) PraxisError {
	return NewError(
		constants.ErrCodeConstraintViolation,
		http.StatusInternalServerError,
		"A governance invariant was violated.",
		message,
	)
}

// ================================================================================
// General Error Constructors
// ================================================================================

// ErrInvalidInput indicates a client-supplied value failed validation.
func ErrInvalidInput(message string) PraxisError {
	return NewError(
		constants.ErrCodeInvalidArgument,
		http.StatusBadRequest,
		"A supplied argument is invalid.",
		message,
	)
}

// ErrNotFound indicates the addressed entity does not exist in the actor's scope.
func ErrNotFound(kind, id string) PraxisError {
	return NewError(
		constants.ErrCodeNotFound,
		http.StatusNotFound,
		"The addressed entity was not found.",
		fmt.Sprintf("%s %s not found", kind, id),
	).WithMetadata("kind", kind).WithMetadata("id", id)
}

// ErrConflict indicates a conflict with the current state of the resource.
func ErrConflict(message string) PraxisError {
	return NewError(
		constants.ErrCodeConflict,
		http.StatusConflict,
		"The request conflicts with the current state of the resource.",
		message,
	)
}

// ErrDatabaseOperation wraps a storage-level failure.
func ErrDatabaseOperation(cause error) PraxisError {
	return NewError(
		constants.ErrCodeInternal,
		http.StatusInternalServerError,
		"A database operation failed.",
		"database operation failed",
	).WithCause(cause)
}

// ErrInternal wraps an unexpected internal failure.
func ErrInternal(message string, cause error) PraxisError {
	return NewError(
		constants.ErrCodeInternal,
		http.StatusInternalServerError,
		"An internal error occurred.",
		message,
	).WithCause(cause)
}
