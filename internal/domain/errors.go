package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound       = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrValidation     = errors.New("validation error")
	ErrConflict       = errors.New("conflict")
	ErrMalformedInput = errors.New("malformed input")
	ErrPatchApply     = errors.New("patch apply failed")
	ErrStorage        = errors.New("storage unavailable")
)

// ErrOutOfOrder is returned by Submit when the write's transaction time
// precedes the partition head and the order policy rejects such writes.
var ErrOutOfOrder = fmt.Errorf("out-of-order write: %w", ErrConflict)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

// MalformedInputError reports a submitted document that is not valid JSON.
// Offset is the byte offset reported by the parser, or -1 when unknown.
type MalformedInputError struct {
	Offset int64
	Reason string
}

func (e *MalformedInputError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("malformed input at offset %d: %s", e.Offset, e.Reason)
	}
	return "malformed input: " + e.Reason
}

func (e *MalformedInputError) Unwrap() error { return ErrMalformedInput }
