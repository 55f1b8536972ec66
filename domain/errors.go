package domain

import "errors"

// ErrNotFound is returned when the addressed task does not exist.
var ErrNotFound = errors.New("task not found")

// ValidationError reports a field that violates the task schema.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Reason
}
