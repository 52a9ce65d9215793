package pipeline

import "errors"

// ErrNotFound means the album or image does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError is returned before any media store call is made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(message string) error {
	return &ValidationError{Message: message}
}

// FailureError is a hard failure of an operation. Warnings carry the partial
// failures collected on the way and must be passed to the caller as they are.
type FailureError struct {
	Message  string
	Warnings []string
	Err      error
}

func (e *FailureError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *FailureError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
