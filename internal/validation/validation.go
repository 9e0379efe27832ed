package validation

import (
	"errors"
	"fmt"
)

// Error is a user-correctable validation failure. Details maps a subject (a
// provider name or field) to rule-keyed messages, so a caller can report the
// complete error set in one round trip.
type Error struct {
	Message string
	Details map[string]map[string]string
}

func (e *Error) Error() string {
	return e.Message
}

func NewValidationFailedError(message string) *Error {
	return &Error{Message: message}
}

func NewValidationFailedErrorWithDetails(message string, details map[string]map[string]string) *Error {
	return &Error{Message: message, Details: details}
}

// AsError returns the *Error wrapped anywhere in err, or nil.
func AsError(err error) *Error {
	var verr *Error
	if errors.As(err, &verr) {
		return verr
	}
	return nil
}

func ValidateBooleanFilter(name, value string) (bool, error) {
	switch value {
	case "0", "false":
		return false, nil
	case "1", "true":
		return true, nil
	default:
		return false, NewValidationFailedError(fmt.Sprintf("filter %v is not a valid boolean", name))
	}
}
