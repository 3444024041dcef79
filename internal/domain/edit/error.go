package edit

import (
	"errors"
	"fmt"

	"mincadmin/internal/domain/record"
)

const MsgConflict = "This record was modified by someone else. Please refresh and retry."

var (
	ErrInvalidTransition = errors.New("edit: invalid state transition")
	ErrSaveInFlight      = errors.New("edit: save already in progress")
)

// ConflictError reports a rejected save. The draft has been rebased onto the
// latest revision unless RefreshErr is set, in which case the next Save
// retries the refresh before writing anything.
type ConflictError struct {
	Dropped    []string
	RefreshErr error
}

func (e *ConflictError) Error() string {
	if e.RefreshErr != nil {
		return fmt.Sprintf("%s (refresh failed: %v)", MsgConflict, e.RefreshErr)
	}
	return MsgConflict
}

func (e *ConflictError) Unwrap() []error {
	if e.RefreshErr != nil {
		return []error{record.ErrVersionConflict, e.RefreshErr}
	}
	return []error{record.ErrVersionConflict}
}
