package model

import (
	"errors"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrIneligibleAccount = errors.New("account is not eligible to request printing")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrValidationFailed  = errors.New("validation failed")
	ErrTransientStore    = errors.New("transient store failure")
	ErrForbidden         = errors.New("admin privileges required")

	// ErrDuplicate is returned by stores on a unique key conflict.
	ErrDuplicate = errors.New("duplicate key")
)

type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationError carries per-field messages and matches ErrValidationFailed.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Error)
	}
	if len(msgs) == 0 {
		return ErrValidationFailed.Error()
	}
	return ErrValidationFailed.Error() + ": " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidationFailed }

func Invalid(field, msg string) error {
	return &ValidationError{Fields: []FieldError{{Field: field, Error: msg}}}
}
