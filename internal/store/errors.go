package store

import (
	"errors"
	"fmt"
)

// NotFoundError reports a missing resource by type and id.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id '%s' not found", e.Resource, e.ID)
}

// ValidationError reports a rejected request. Field, when set, names the
// offending attribute for the error source pointer.
type ValidationError struct {
	Detail string
	Field  string
}

func (e *ValidationError) Error() string {
	return e.Detail
}

// NewNotFound builds a NotFoundError.
func NewNotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// NewValidation builds a ValidationError with a formatted detail.
func NewValidation(format string, args ...any) error {
	return &ValidationError{Detail: fmt.Sprintf(format, args...)}
}

// NewFieldValidation builds a ValidationError bound to an attribute.
func NewFieldValidation(field, format string, args ...any) error {
	return &ValidationError{Detail: fmt.Sprintf(format, args...), Field: field}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
