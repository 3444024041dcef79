package record

import (
	"errors"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrVersionConflict = errors.New("record version conflict")
	ErrUnknownKind     = errors.New("unknown record kind")
	ErrUnknownField    = errors.New("unknown field")
	ErrReadOnly        = errors.New("record kind is read-only")
)
