package services

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks model output that does not match the expected schema.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned by resolvers when a search has no match.
	ErrNotFound = errors.New("not found")
	// ErrSessionNotFound is returned for unknown harvest session ids.
	ErrSessionNotFound = errors.New("harvest session not found")
	// ErrInvalidTransition is returned when a session cannot move to the requested state.
	ErrInvalidTransition = errors.New("invalid state transition")
)

// ValidationError describes why a model response was rejected
type ValidationError struct {
	Field  string
	Reason string
	Raw    string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("model output validation: %s", e.Reason)
	}
	return fmt.Sprintf("model output validation: %s: %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
