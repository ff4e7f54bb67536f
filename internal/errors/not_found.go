package errors

import "errors"

// NotFoundError represents a lookup that found no record at the source,
// as opposed to the source being unreachable.
type NotFoundError struct {
	Subject string
}

func (e *NotFoundError) Error() string {
	return e.Subject + " not found"
}

// NewNotFoundError creates a NotFoundError for the given subject.
func NewNotFoundError(subject string) *NotFoundError {
	return &NotFoundError{Subject: subject}
}

// IsNotFoundError reports whether err is a NotFoundError (even when wrapped).
func IsNotFoundError(err error) bool {
	var nfErr *NotFoundError
	return errors.As(err, &nfErr)
}
