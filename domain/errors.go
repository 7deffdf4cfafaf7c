package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error. Field names the input the error is attributed to, if any.
type Error struct {
	Code    ErrorCode
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Invalid builds a validation error attributed to field.
func Invalid(field, message string) *Error {
	return &Error{Code: ErrCodeInvalid, Message: message, Field: field}
}

// Duplicate builds the validation error returned when a natural key is already taken.
func Duplicate(field string) *Error {
	return &Error{Code: ErrCodeConflict, Message: field + " already exists", Field: field}
}

// KeyConflict is a natural key collision detected by storage. It matches ErrDuplicateKey.
type KeyConflict struct {
	Field string
}

func (e *KeyConflict) Error() string { return e.Field + " already exists" }

func (e *KeyConflict) Unwrap() error { return ErrDuplicateKey }

// Common domain errors.
var (
	ErrDocumentNotFound = NewError(ErrCodeNotFound, "document not found")
	ErrVersionNotFound  = NewError(ErrCodeNotFound, "version not found")
	ErrVersionConflict  = NewError(ErrCodeConflict, "version number already recorded")
	ErrDuplicateKey     = NewError(ErrCodeConflict, "natural key already exists")
	ErrUnauthorized     = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrForbidden        = NewError(ErrCodeForbidden, "forbidden")
	ErrInvalidPayload   = NewError(ErrCodeInvalid, "invalid payload")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// IsValidation reports whether err is a user input problem (bad field, malformed JSON, duplicate key).
func IsValidation(err error) bool {
	return IsDomainError(err, ErrCodeInvalid) || IsDomainError(err, ErrCodeConflict)
}

// FieldOf returns the input field an error is attributed to.
func FieldOf(err error) string {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Field
	}
	return ""
}
