package domain

import "fmt"

// Status is the review state of a payment.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusVerified  Status = "Verified"
	StatusSubmitted Status = "Submitted to SWIFT"
)

// Transition is a named forward move between statuses.
type Transition string

const (
	TransitionVerify Transition = "verify"
	TransitionSubmit Transition = "submit"
)

// ParseStatus accepts only known statuses.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusVerified, StatusSubmitted:
		return Status(s), nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidInput, s)
	}
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return s == StatusSubmitted
}

// Advance returns the status reached by applying t to current.
// Pending -verify-> Verified -submit-> Submitted to SWIFT; nothing else is legal.
func Advance(current Status, t Transition) (Status, error) {
	switch {
	case current == StatusPending && t == TransitionVerify:
		return StatusVerified, nil
	case current == StatusVerified && t == TransitionSubmit:
		return StatusSubmitted, nil
	default:
		return current, &InvalidStateTransitionError{Current: current, Transition: t}
	}
}
