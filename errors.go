package docstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/docstore/record"
)

var (
	// ErrNotFound is returned by id-based operations on an absent id.
	ErrNotFound = errors.New("record not found")

	// ErrNoMatch is returned by bulk operations that matched zero candidates.
	ErrNoMatch = errors.New("no records matched")

	// ErrClosed is returned when operating on a closed database or collection.
	ErrClosed = errors.New("docstore is closed")
)

// NotReadyError indicates the collection snapshot could not be loaded.
// The load is retried on the next operation.
//
// The original underlying error can be accessed via errors.Unwrap.
type NotReadyError struct {
	cause error
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("collection not ready: %v", e.cause)
}

func (e *NotReadyError) Unwrap() error { return e.cause }

// ValidationError carries the per-field messages from schema validation.
type ValidationError struct {
	Fields []record.FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, fe := range e.Fields {
		msgs[i] = fe.String()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// ConflictError indicates a unique-constraint violation, keyed by the
// offending field.
type ConflictError struct {
	Field string
	Value any
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("unique conflict: field %q already holds value %v", e.Field, e.Value)
}

// IOError indicates a persist or read failure, wrapping the underlying cause.
// Collection state is exactly as before the failing call.
type IOError struct {
	Op    string
	cause error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io failure during %s: %v", e.Op, e.cause)
}

func (e *IOError) Unwrap() error { return e.cause }
