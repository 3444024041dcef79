package draft

import (
	"errors"
)

const MsgNoteRequired = "Admin note is required to save changes."

var (
	ErrNotEditing = errors.New("draft: not in edit mode")
	ErrValidation = errors.New("validation failed")
)

// ValidationError is a client-side rule violation the admin can correct.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
