package model

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the store and service layers. Handlers
// map them to HTTP status codes with errors.Is / errors.As.
var (
	// ErrNotFound marks a well-formed reference to a record that does
	// not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidID marks a structurally malformed identifier. Kept
	// distinct from ErrNotFound: a malformed id is a different failure
	// class than a well-formed but absent one.
	ErrInvalidID = errors.New("invalid id")

	// ErrConflict marks an operation that would duplicate existing
	// state, e.g. subscribing an already-active email.
	ErrConflict = errors.New("conflict")
)

// ValidationError reports a missing or malformed required input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("missing required field %q", e.Field)
}

// MissingField builds a ValidationError for an absent required field.
func MissingField(field string) *ValidationError {
	return &ValidationError{Field: field}
}

// InvalidField builds a ValidationError for a malformed field.
func InvalidField(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
