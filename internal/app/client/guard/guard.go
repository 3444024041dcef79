// Package guard stops the admin from leaving a record with unsaved edits
// without confirming.
package guard

import (
	"context"
	"errors"
	"os"
	"sync"

	"golang.org/x/exp/slog"
)

const (
	ConfirmTitle   = "Discard changes?"
	ConfirmMessage = "You have unsaved edits. If you leave now, your changes will be lost."
	UnloadWarning  = "Leave with unsaved changes? Press Ctrl+C again to exit."
)

var ErrNoPending = errors.New("guard: no pending navigation")

// Dirtier is the edit session being protected.
type Dirtier interface {
	IsDirty() bool
	Discard()
}

// Confirmer asks the admin to confirm a discard.
type Confirmer interface {
	Confirm(ctx context.Context, title, message string) (bool, error)
}

type ConfirmFunc func(ctx context.Context, title, message string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, title, message string) (bool, error) {
	return f(ctx, title, message)
}

type Guard struct {
	target  Dirtier
	confirm Confirmer
	log     *slog.Logger

	mu      sync.Mutex
	pending func() error
}

func New(target Dirtier, confirm Confirmer, log *slog.Logger) *Guard {
	if log == nil {
		log = slog.Default()
	}
	return &Guard{
		target:  target,
		confirm: confirm,
		log:     log.With(slog.String("component", "guard")),
	}
}

// Navigate runs proceed when nothing would be lost. With unsaved edits it
// asks first; on confirmation the draft is discarded and proceed runs. It
// reports whether proceed ran.
func (g *Guard) Navigate(ctx context.Context, proceed func() error) (bool, error) {
	if !g.target.IsDirty() {
		return true, proceed()
	}
	ok, err := g.confirm.Confirm(ctx, ConfirmTitle, ConfirmMessage)
	if err != nil {
		return false, err
	}
	if !ok {
		g.log.Debug("navigation cancelled, draft kept")
		return false, nil
	}
	g.target.Discard()
	return true, proceed()
}

// Request is the non-blocking form of Navigate: with unsaved edits the
// navigation is suspended until Resolve. It reports whether proceed ran.
func (g *Guard) Request(proceed func() error) (bool, error) {
	if !g.target.IsDirty() {
		return true, proceed()
	}
	g.mu.Lock()
	g.pending = proceed
	g.mu.Unlock()
	return false, nil
}

// Pending reports whether a suspended navigation awaits Resolve.
func (g *Guard) Pending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending != nil
}

// Resolve completes a suspended navigation. discard=false resumes editing.
func (g *Guard) Resolve(discard bool) error {
	g.mu.Lock()
	proceed := g.pending
	g.pending = nil
	g.mu.Unlock()

	if proceed == nil {
		return ErrNoPending
	}
	if !discard {
		return nil
	}
	g.target.Discard()
	return proceed()
}

// BeforeUnload reports whether the platform's generic leave prompt should
// be shown. No custom dialog is possible at this point.
func (g *Guard) BeforeUnload() bool {
	return g.target.IsDirty()
}

// WatchSignals maps process interrupts to page unload. The returned context
// is cancelled on an interrupt when clean, or on a second interrupt while
// dirty; the first interrupt while dirty only calls warn.
func (g *Guard) WatchSignals(ctx context.Context, signals <-chan os.Signal, warn func(string)) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		defer cancel()
		warned := false
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-signals:
				if !ok {
					return
				}
				if !g.BeforeUnload() || warned {
					return
				}
				warned = true
				warn(UnloadWarning)
			}
		}
	}()
	return ctx
}
