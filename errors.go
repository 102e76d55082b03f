package sqlgate

import (
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType int

const (
	// ErrorTypeUnknown represents an unknown error
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeTransport represents network failures and non-success HTTP statuses
	ErrorTypeTransport
	// ErrorTypeStatement represents a statement rejected by the gateway
	ErrorTypeStatement
	// ErrorTypeDecode represents a malformed row encoding or value cast failure
	ErrorTypeDecode
	// ErrorTypeProtocol represents a well-formed envelope that violates the protocol
	ErrorTypeProtocol
)

// Error represents a structured error with type information
type Error struct {
	Type       ErrorType
	Message    string
	Code       string // gateway error code, set for statement errors
	StatusCode int    // HTTP status, set for transport errors
	Cause      error
}

// Error implements the error interface
func (e *Error) Error() string {
	switch {
	case e.Code != "":
		return fmt.Sprintf("%s (code %s)", e.Message, e.Code)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	default:
		return e.Message
	}
}

// Unwrap returns the underlying cause error
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsType checks if the error is of a specific type
func (e *Error) IsType(errorType ErrorType) bool {
	return e.Type == errorType
}

// NewError creates a new Error with the specified type and message
func NewError(errorType ErrorType, message string) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
	}
}

// NewErrorWithCause creates a new Error with the specified type, message, and underlying cause
func NewErrorWithCause(errorType ErrorType, message string, cause error) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// NewTransportError creates a transport-related error
func NewTransportError(message string, cause error) *Error {
	return NewErrorWithCause(ErrorTypeTransport, message, cause)
}

// NewStatementError creates an error for a statement the gateway rejected
func NewStatementError(message, code string) *Error {
	return &Error{
		Type:    ErrorTypeStatement,
		Message: message,
		Code:    code,
	}
}

// NewDecodeError creates an error for a malformed result encoding
func NewDecodeError(message string) *Error {
	return NewError(ErrorTypeDecode, message)
}

// NewDecodeErrorWithCause creates a decode error with an underlying cause
func NewDecodeErrorWithCause(message string, cause error) *Error {
	return NewErrorWithCause(ErrorTypeDecode, message, cause)
}

// NewProtocolError creates an error for an envelope that violates the protocol
func NewProtocolError(message string) *Error {
	return NewError(ErrorTypeProtocol, message)
}

// IsTransportError checks if an error is transport-related
func IsTransportError(err error) bool {
	if gErr, ok := err.(*Error); ok {
		return gErr.IsType(ErrorTypeTransport)
	}
	return false
}

// IsStatementError checks if an error is a gateway statement rejection
func IsStatementError(err error) bool {
	if gErr, ok := err.(*Error); ok {
		return gErr.IsType(ErrorTypeStatement)
	}
	return false
}

// IsDecodeError checks if an error is a result decoding failure
func IsDecodeError(err error) bool {
	if gErr, ok := err.(*Error); ok {
		return gErr.IsType(ErrorTypeDecode)
	}
	return false
}

// IsProtocolError checks if an error is a protocol violation
func IsProtocolError(err error) bool {
	if gErr, ok := err.(*Error); ok {
		return gErr.IsType(ErrorTypeProtocol)
	}
	return false
}

// WrapHTTPError wraps a non-success HTTP response into a transport error
func WrapHTTPError(resp *http.Response, message string) *Error {
	return &Error{
		Type:       ErrorTypeTransport,
		Message:    fmt.Sprintf("%s: %s", message, resp.Status),
		StatusCode: resp.StatusCode,
	}
}
