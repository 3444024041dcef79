// Package storage keeps the console's small amount of persisted state: the
// signed-in identity (session scope) and the remembered identifier (local
// scope).
package storage

import (
	"context"
	"errors"
)

type Scope string

const (
	// ScopeSession is cleared on logout.
	ScopeSession Scope = "session"
	// ScopeLocal survives logout.
	ScopeLocal Scope = "local"
)

var ErrNotFound = errors.New("storage: key not found")

type Store interface {
	Get(ctx context.Context, scope Scope, key string) (string, error)
	Set(ctx context.Context, scope Scope, key, value string) error
	Delete(ctx context.Context, scope Scope, key string) error
	ClearScope(ctx context.Context, scope Scope) error
	Close() error
}
