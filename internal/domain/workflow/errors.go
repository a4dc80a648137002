package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when no legal transition exists for the action
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned when a state is not valid
	ErrInvalidState = errors.New("invalid state")

	// ErrNotFound is returned when a request or a referenced entity does not exist
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when the caller may not perform the action
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation is returned for malformed payloads
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when the request changed since it was read; callers retry
	ErrConflict = errors.New("concurrent modification")
)

// Reason pins down which authorization rule rejected an action
type Reason string

const (
	ReasonWrongRole        Reason = "wrong_role"
	ReasonWrongStatus      Reason = "wrong_status"
	ReasonNotProjectMember Reason = "not_project_member"
	ReasonNotOwner         Reason = "not_owner"
	ReasonNotDeliverer     Reason = "not_deliverer"
)

// ActionError is a classified engine error. It unwraps to one of the sentinels above.
type ActionError struct {
	Kind    error
	Reason  Reason
	Message string
}

func (e *ActionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%v (%s): %s", e.Kind, e.Reason, e.Message)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

func (e *ActionError) Unwrap() error {
	return e.Kind
}

// Deny builds an authorization failure with a specific reason
func Deny(reason Reason, format string, args ...interface{}) error {
	return &ActionError{Kind: ErrUnauthorized, Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// WrongStatus builds an invalid-transition failure; it is reported as an authorization-class error
func WrongStatus(format string, args ...interface{}) error {
	return &ActionError{Kind: ErrInvalidTransition, Reason: ReasonWrongStatus, Message: fmt.Sprintf(format, args...)}
}

// Invalid builds a payload validation failure
func Invalid(format string, args ...interface{}) error {
	return &ActionError{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// Missing builds a not-found failure
func Missing(format string, args ...interface{}) error {
	return &ActionError{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

// ReasonOf extracts the authorization reason from err, if any
func ReasonOf(err error) Reason {
	var ae *ActionError
	if errors.As(err, &ae) {
		return ae.Reason
	}
	return ""
}
