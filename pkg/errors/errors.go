// Package errors defines the error taxonomy surfaced by the recommendation gate.
// Every error carries a stable code, an HTTP status and optional metadata.
package errors

import (
	stderrors "errors"
	"fmt"
	"math"
	"net/http"
	"time"
)

// Code is a machine-readable error code
type Code string

const (
	CodeValidation         Code = "validation_error"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeRateLimited        Code = "rate_limited"
	CodeUpstreamModel      Code = "upstream_model_error"
	CodeInternal           Code = "internal_error"
	CodeServiceUnavailable Code = "service_unavailable"
)

// Metadata keys with special meaning for the transport layer
const (
	MetaRetryAfter = "retry_after"
	MetaPolicy     = "policy"
	MetaDetails    = "details"
	MetaLimitCode  = "limit_code"
)

// Sentinel errors wrapped with %w by infrastructure code
var (
	// ErrStoreUnavailable marks failures of a shared backing store
	ErrStoreUnavailable = stderrors.New("store unavailable")

	// ErrDatabaseConnection marks failures to reach the database
	ErrDatabaseConnection = stderrors.New("database connection failed")

	// ErrDatabaseOperation marks failed queries
	ErrDatabaseOperation = stderrors.New("database operation failed")
)

// ================================================================================
// Base Error Interface
// ================================================================================

// GateError represents a structured error with additional metadata
type GateError interface {
	error

	// Code returns the machine-readable error code
	Code() Code

	// HTTPStatus returns the HTTP status code
	HTTPStatus() int

	// Description returns a human-readable description
	Description() string

	// Unwrap returns the underlying error for error chain support
	Unwrap() error

	// WithCause adds a cause error to the error chain
	WithCause(cause error) GateError

	// WithMetadata adds additional context metadata
	WithMetadata(key string, value interface{}) GateError

	// Metadata returns all metadata
	Metadata() map[string]interface{}
}

// ================================================================================
// Base Error Implementation
// ================================================================================

type baseError struct {
	code        Code
	httpStatus  int
	description string
	message     string
	cause       error
	metadata    map[string]interface{}
}

func (e *baseError) Error() string {
	msg := e.message
	if msg == "" {
		msg = e.description
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

func (e *baseError) Code() Code          { return e.code }
func (e *baseError) HTTPStatus() int     { return e.httpStatus }
func (e *baseError) Description() string { return e.description }
func (e *baseError) Unwrap() error       { return e.cause }

// Message returns the caller-facing message without the cause chain
func (e *baseError) Message() string {
	if e.message != "" {
		return e.message
	}
	return e.description
}

func (e *baseError) WithCause(cause error) GateError {
	e.cause = cause
	return e
}

func (e *baseError) WithMetadata(key string, value interface{}) GateError {
	if e.metadata == nil {
		e.metadata = make(map[string]interface{})
	}
	e.metadata[key] = value
	return e
}

func (e *baseError) Metadata() map[string]interface{} {
	return e.metadata
}

// NewError creates a new GateError with the specified parameters
func NewError(code Code, httpStatus int, description string, message string) GateError {
	return &baseError{
		code:        code,
		httpStatus:  httpStatus,
		description: description,
		message:     message,
		metadata:    make(map[string]interface{}),
	}
}

// ================================================================================
// Predefined Error Constructors
// ================================================================================

// ErrValidation creates a validation_error for malformed or out-of-range input
func ErrValidation(message string, details map[string]string) GateError {
	err := NewError(
		CodeValidation,
		http.StatusBadRequest,
		"The request body is malformed or contains out-of-range values.",
		message,
	)
	if len(details) > 0 {
		err.WithMetadata(MetaDetails, details)
	}
	return err
}

// ErrUnauthorized creates an unauthorized error
func ErrUnauthorized(message string) GateError {
	return NewError(
		CodeUnauthorized,
		http.StatusUnauthorized,
		"The identity token is missing, invalid, expired or does not match the declared user.",
		message,
	)
}

// ErrForbidden creates a forbidden error
func ErrForbidden(message string) GateError {
	return NewError(
		CodeForbidden,
		http.StatusForbidden,
		"The caller is not allowed to perform this operation.",
		message,
	)
}

// ErrNotFound creates a not_found error
func ErrNotFound(resource string) GateError {
	return NewError(
		CodeNotFound,
		http.StatusNotFound,
		"The requested resource does not exist.",
		fmt.Sprintf("%s not found", resource),
	).WithMetadata("resource", resource)
}

// ErrRateLimited creates a rate_limited error carrying retry guidance
func ErrRateLimited(policy string, retryAfter time.Duration, message string) GateError {
	seconds := int(math.Ceil(retryAfter.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return NewError(
		CodeRateLimited,
		http.StatusTooManyRequests,
		"Too many requests. Wait before trying again.",
		message,
	).WithMetadata(MetaPolicy, policy).
		WithMetadata(MetaRetryAfter, seconds)
}

// ErrUpstreamModel creates an upstream_model_error for AI provider failures
func ErrUpstreamModel(cause error) GateError {
	return NewError(
		CodeUpstreamModel,
		http.StatusBadGateway,
		"The recommendation model failed or timed out. You may resubmit the request.",
		"recommendation model call failed",
	).WithCause(cause)
}

// ErrInternal creates an internal_error
func ErrInternal(message string) GateError {
	return NewError(
		CodeInternal,
		http.StatusInternalServerError,
		"The server encountered an unexpected condition.",
		message,
	)
}

// ErrServiceUnavailable creates a service_unavailable error
func ErrServiceUnavailable(message string) GateError {
	return NewError(
		CodeServiceUnavailable,
		http.StatusServiceUnavailable,
		"A required dependency is currently unavailable.",
		message,
	)
}

// Wrap wraps a generic error into a GateError of the given code
func Wrap(err error, code Code, message string) GateError {
	if err == nil {
		return nil
	}
	var status int
	switch code {
	case CodeValidation:
		status = http.StatusBadRequest
	case CodeUnauthorized:
		status = http.StatusUnauthorized
	case CodeForbidden:
		status = http.StatusForbidden
	case CodeNotFound:
		status = http.StatusNotFound
	case CodeRateLimited:
		status = http.StatusTooManyRequests
	case CodeUpstreamModel:
		status = http.StatusBadGateway
	case CodeServiceUnavailable:
		status = http.StatusServiceUnavailable
	default:
		status = http.StatusInternalServerError
	}
	return NewError(code, status, message, message).WithCause(err)
}

// ================================================================================
// Error Inspection Utilities
// ================================================================================

// As finds the first GateError in err's chain
func As(err error) (GateError, bool) {
	var gateErr GateError
	if stderrors.As(err, &gateErr) {
		return gateErr, true
	}
	return nil, false
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// HasCode reports whether err is a GateError with the given code
func HasCode(err error, code Code) bool {
	gateErr, ok := As(err)
	return ok && gateErr.Code() == code
}

// IsRateLimited checks if an error is a rate-limit rejection
func IsRateLimited(err error) bool {
	return HasCode(err, CodeRateLimited)
}

// RetryAfterOf returns the retry-after seconds carried by a rate-limit error
func RetryAfterOf(err error) (int, bool) {
	gateErr, ok := As(err)
	if !ok {
		return 0, false
	}
	seconds, ok := gateErr.Metadata()[MetaRetryAfter].(int)
	return seconds, ok
}

// MessageOf returns the caller-facing message of err
func MessageOf(err error) string {
	if m, ok := err.(interface{ Message() string }); ok {
		return m.Message()
	}
	if gateErr, ok := As(err); ok {
		if m, ok := gateErr.(interface{ Message() string }); ok {
			return m.Message()
		}
		return gateErr.Description()
	}
	return err.Error()
}

// ShouldLog determines if an error should be logged at error level
func ShouldLog(err error) bool {
	if gateErr, ok := As(err); ok {
		status := gateErr.HTTPStatus()
		return status >= 500
	}
	return true
}
