// Package errors provides the hub's structured error taxonomy with context
// propagation and HTTP status code mapping.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category of error for logging and response formatting.
type ErrorType string

const (
	// TypeBind indicates the listening endpoint could not be opened (fatal at start-up)
	TypeBind ErrorType = "bind"
	// TypeProtocol indicates a malformed inbound message (HTTP 400)
	TypeProtocol ErrorType = "protocol"
	// TypeUnknownEntity indicates a command referencing a nonexistent reactor or station (HTTP 404)
	TypeUnknownEntity ErrorType = "unknown_entity"
	// TypeDelivery indicates a send to one connection failed
	TypeDelivery ErrorType = "delivery"
	// TypeCapacity indicates the hub cannot accept more connections right now (HTTP 503)
	TypeCapacity ErrorType = "capacity"
	// TypeInternal indicates server-side error (HTTP 500)
	TypeInternal ErrorType = "internal"
)

// Error represents a structured error with type, message, and context.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the appropriate HTTP status code for this error type.
func (e *Error) HTTPStatus() int {
	switch e.Type {
	case TypeProtocol:
		return http.StatusBadRequest
	case TypeUnknownEntity:
		return http.StatusNotFound
	case TypeCapacity:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func newError(t ErrorType, message string, cause error) *Error {
	return &Error{
		Type:    t,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// BindError reports that addr could not be bound.
func BindError(addr string, cause error) *Error {
	return newError(TypeBind, "failed to bind listening endpoint", cause).WithContext("address", addr)
}

// ProtocolError reports a malformed inbound message. cause may be nil.
func ProtocolError(message string, cause error) *Error {
	return newError(TypeProtocol, message, cause)
}

// UnknownEntityError reports a command for an id that is not on the floor.
// kind is "reactor" or "station".
func UnknownEntityError(kind, id string, cause error) *Error {
	return newError(TypeUnknownEntity, "unknown "+kind, cause).WithContext(kind+"_id", id)
}

// DeliveryError reports a failed send to one connection.
func DeliveryError(connectionID string, cause error) *Error {
	return newError(TypeDelivery, "failed to deliver message", cause).WithContext("connection_id", connectionID)
}

// CapacityError reports that a new connection was refused.
func CapacityError(message string) *Error {
	return newError(TypeCapacity, message, nil)
}

// InternalError creates a new internal error (HTTP 500).
func InternalError(message string, cause error) *Error {
	return newError(TypeInternal, message, cause)
}

// WithContext adds context fields to the error (chainable).
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// ErrorResponse represents the JSON structure sent to clients.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Type    ErrorType      `json:"type"`
	Context map[string]any `json:"context,omitempty"`
}

// ToResponse converts an Error to an ErrorResponse for JSON serialization.
func (e *Error) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error:   e.Message,
		Type:    e.Type,
		Context: e.Context,
	}
}

// IsType reports whether err is, or wraps, a structured error of type t.
func IsType(err error, t ErrorType) bool {
	var structuredErr *Error
	if !errors.As(err, &structuredErr) {
		return false
	}
	return structuredErr.Type == t
}

// AsStructuredError converts any error into a structured Error.
// If err is already an *Error, returns it unchanged.
// Otherwise wraps it as an internal error.
func AsStructuredError(err error) *Error {
	if err == nil {
		return nil
	}

	var structuredErr *Error
	if errors.As(err, &structuredErr) {
		return structuredErr
	}

	return InternalError("internal server error", err)
}
