package services

import "errors"

// ErrUnavailable is returned when a backing store was never initialized
// (e.g. Mongo misconfiguration). Every operation checks for this first and
// fails fast rather than proceeding with a nil client.
var ErrUnavailable = errors.New("datastore not available")

// ValidationError is a user-input error. It is surfaced to the caller
// verbatim and never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErr(msg string) error {
	return &ValidationError{Message: msg}
}

// IsValidationError reports whether err is a user-input validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
