package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest marks malformed or missing input.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrStopNotFound means the stop is not in the local store.
	ErrStopNotFound = errors.New("stop not found")
	// ErrNoDeparture means no departure carried both platform and direction.
	ErrNoDeparture = errors.New("no next departure found for this stop")
	// ErrUpstream wraps third-party API failures.
	ErrUpstream = errors.New("upstream error")
	// ErrStorage wraps persistence failures.
	ErrStorage = errors.New("storage error")
	// ErrUnknownField is returned by repositories for fields outside StopField.
	ErrUnknownField = errors.New("unknown stop field")
)

// ValidationError is a client input error with a human-readable message.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Unwrap() error { return ErrInvalidRequest }

// Invalidf builds a ValidationError.
func Invalidf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}
