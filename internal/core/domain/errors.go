package domain

import (
	"errors"
	"fmt"
)

// Common domain errors
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrForbidden      = errors.New("forbidden")
	ErrDuplicateEntry = errors.New("duplicate entry")
	ErrInvalidRole    = errors.New("invalid role")
)

// ErrInvalidStateTransition is matched by every *InvalidStateTransitionError.
var ErrInvalidStateTransition = errors.New("invalid state transition")

// InvalidStateTransitionError names the status a rejected transition was attempted from.
type InvalidStateTransitionError struct {
	Current    Status
	Transition Transition
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("cannot %s payment in status %q", e.Transition, e.Current)
}

func (e *InvalidStateTransitionError) Is(target error) bool {
	return target == ErrInvalidStateTransition
}
