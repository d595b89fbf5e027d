package service

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a service failure. The API layer maps codes to HTTP
// statuses; everything not covered by a code is Unexpected.
type ErrorCode string

const (
	CodeBadRequest   ErrorCode = "BAD_REQUEST"
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeConflict     ErrorCode = "CONFLICT"
	CodeInvalid      ErrorCode = "VALIDATION_FAILED"
	CodeUnexpected   ErrorCode = "UNEXPECTED"
)

// Error is a classified service failure carrying the client-facing message.
type Error struct {
	Code    ErrorCode
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// NewError builds a classified error with a client-facing message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

func badRequest(message string) error {
	return &Error{Code: CodeBadRequest, Message: message}
}

func unauthorized(message string) error {
	return &Error{Code: CodeUnauthorized, Message: message}
}

func notFound(message string) error {
	return &Error{Code: CodeNotFound, Message: message}
}

func conflict(message string) error {
	return &Error{Code: CodeConflict, Message: message}
}

func invalid(message string) error {
	return &Error{Code: CodeInvalid, Message: message}
}

// unexpected wraps an internal failure. The message is what clients may see;
// the cause stays in logs.
func unexpected(cause error, message string) error {
	return &Error{Code: CodeUnexpected, Message: message, cause: cause}
}

func codeOf(err error) ErrorCode {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return CodeUnexpected
}

func IsBadRequest(err error) bool   { return codeOf(err) == CodeBadRequest }
func IsUnauthorized(err error) bool { return codeOf(err) == CodeUnauthorized }
func IsNotFound(err error) bool     { return codeOf(err) == CodeNotFound }
func IsConflict(err error) bool     { return codeOf(err) == CodeConflict }
func IsInvalid(err error) bool      { return codeOf(err) == CodeInvalid }
