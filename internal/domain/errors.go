package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound marks lookups for records that do not exist. It is distinct
// from storage failures so callers can tell "no such row" from "store
// unavailable".
var ErrNotFound = errors.New("record not found")

// ValidationError reports user input that failed a format or range rule.
// It is always handled at the step that produced it.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Code implements the error-code contract used by handler summary logging.
func (e *ValidationError) Code() string { return "VALIDATION" }

// Invalid builds a ValidationError for the given field.
func Invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// ConflictError reports a uniqueness clash such as a duplicate channel link
// or a promo code owned by another user. The conversation keeps its other
// collected fields and lets the user retry.
type ConflictError struct {
	Resource string
	Reason   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Resource, e.Reason)
}

func (e *ConflictError) Code() string { return "CONFLICT" }

// Conflict builds a ConflictError for the given resource.
func Conflict(resource, reason string) *ConflictError {
	return &ConflictError{Resource: resource, Reason: reason}
}

// StoreError wraps a persistence failure with the operation that produced it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Code() string { return "STORE" }

// Storef wraps err as a StoreError unless it already carries domain meaning.
func Storef(op string, err error) error {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	var ce *ConflictError
	if errors.Is(err, ErrNotFound) || errors.As(err, &ve) || errors.As(err, &ce) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsStore reports whether err is a StoreError.
func IsStore(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
