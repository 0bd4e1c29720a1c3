package models

import "errors"

// LinkLimitMessage is shown to owners who hit the link cap.
const LinkLimitMessage = "You have reached the maximum limit of 5 links. Please delete some links before adding more."

var (
	// ErrNotFound covers both missing rows and rows owned by someone else.
	ErrNotFound = errors.New("not found")

	// ErrLinkLimit is returned when a profile already owns MaxLinksPerProfile links.
	ErrLinkLimit = errors.New("link limit exceeded")

	// ErrLinkInactive is returned when a click targets a disabled or expired link.
	ErrLinkInactive = errors.New("link is no longer active")
)

// ValidationError reports bad input in a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
