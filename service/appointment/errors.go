package appointment

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("appointment not found")

	// Terminal-state re-entry. Confirm/Decline side effects (room
	// provisioning, emails) are not idempotent, so a second decision
	// is rejected instead of silently succeeding.
	ErrAlreadyConfirmed = errors.New("appointment is already confirmed")
	ErrAlreadyDeclined  = errors.New("appointment is already declined")

	ErrNotConfirmed         = errors.New("appointment is not confirmed yet")
	ErrPaymentNotApplicable = errors.New("payment is only applicable to online consultations")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsIllegalState reports whether err is a rejected lifecycle transition,
// as opposed to a missing record or a dependency failure.
func IsIllegalState(err error) bool {
	return errors.Is(err, ErrAlreadyConfirmed) ||
		errors.Is(err, ErrAlreadyDeclined) ||
		errors.Is(err, ErrNotConfirmed) ||
		errors.Is(err, ErrPaymentNotApplicable)
}
