// Package edit drives one record through load, edit and save with
// optimistic concurrency on the server's version token.
package edit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"mincadmin/internal/domain/draft"
	"mincadmin/internal/domain/record"
)

// Gateway is the remote side of the controller.
type Gateway interface {
	Get(ctx context.Context, kind record.Kind, id string) (record.Record, string, error)
	Update(ctx context.Context, kind record.Kind, id, token string, patch draft.Patch) (record.Record, string, error)
}

type SaveResult struct {
	Saved     bool
	NoChanges bool
	Conflict  bool
	Dropped   []string
	Record    record.Record
}

type CancelOutcome int

const (
	CancelDone CancelOutcome = iota
	CancelNeedsConfirm
)

type Option func(*Controller)

// WithTimeout bounds every gateway call made by the controller.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Controller) { c.log = log }
}

type Controller struct {
	mu      sync.Mutex
	gw      Gateway
	kind    record.Kind
	engine  *draft.Engine
	state   State
	rec     record.Record
	token   string
	saveErr error
	busy    bool
	timeout time.Duration
	log     *slog.Logger
}

func New(gw Gateway, engine *draft.Engine, kind record.Kind, opts ...Option) *Controller {
	c := &Controller{
		gw:     gw,
		kind:   kind,
		engine: engine,
		state:  StateIdle,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(slog.String("component", "edit"), slog.String("kind", string(kind)))
	return c
}

// transition must be called with mu held.
func (c *Controller) transition(to State) error {
	if !canTransition(c.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.state, to)
	}
	c.log.Debug("state change", slog.String("from", c.state.String()), slog.String("to", to.String()), slog.String("id", c.rec.ID))
	c.state = to
	return nil
}

func (c *Controller) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

// Load fetches id and shows it read-only. Loading while a draft is open is
// rejected; the caller goes through the unsaved-changes guard first.
func (c *Controller) Load(ctx context.Context, id string) (record.Record, error) {
	c.mu.Lock()
	switch c.state {
	case StateSaving:
		c.mu.Unlock()
		return record.Record{}, ErrSaveInFlight
	case StateEditing, StateConflictRetry:
		from := c.state
		c.mu.Unlock()
		return record.Record{}, fmt.Errorf("%w: load while %s", ErrInvalidTransition, from)
	}
	c.mu.Unlock()

	callCtx, cancel := c.callCtx(ctx)
	rec, token, err := c.gw.Get(callCtx, c.kind, id)
	cancel()
	if err != nil {
		return record.Record{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle && c.state != StateClean {
		return record.Record{}, fmt.Errorf("%w: edit started during load", ErrInvalidTransition)
	}
	if err := c.transition(StateClean); err != nil {
		return record.Record{}, err
	}
	c.rec, c.token, c.saveErr = rec, token, nil
	c.engine.Leave()
	return rec.Clone(), nil
}

func (c *Controller) EnterEdit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateEditing {
		return nil
	}
	if c.state != StateClean {
		return fmt.Errorf("%w: edit while %s", ErrInvalidTransition, c.state)
	}
	if err := c.engine.EnterEdit(c.rec); err != nil {
		return err
	}
	c.saveErr = nil
	return c.transition(StateEditing)
}

func (c *Controller) editing(fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateEditing {
		return fmt.Errorf("%w: not editing (%s)", ErrInvalidTransition, c.state)
	}
	return fn()
}

func (c *Controller) SetField(name, value string) error {
	return c.editing(func() error { return c.engine.SetField(name, value) })
}

func (c *Controller) SetComposite(name, base, detail string) error {
	return c.editing(func() error { return c.engine.SetComposite(name, base, detail) })
}

func (c *Controller) SetNote(note string) error {
	return c.editing(func() error {
		c.engine.SetNote(note)
		return nil
	})
}

// Save commits the draft. At most one save runs at a time; a second call
// while one is in flight returns ErrSaveInFlight.
func (c *Controller) Save(ctx context.Context) (SaveResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy {
		return SaveResult{}, ErrSaveInFlight
	}
	switch c.state {
	case StateSaving:
		return SaveResult{}, ErrSaveInFlight
	case StateConflictRetry:
		return c.refresh(ctx)
	case StateEditing:
	default:
		return SaveResult{}, fmt.Errorf("%w: save while %s", ErrInvalidTransition, c.state)
	}

	patch, err := c.engine.Commit()
	if err != nil {
		c.saveErr = err
		return SaveResult{}, err
	}
	if patch.Empty() {
		c.engine.Leave()
		c.saveErr = nil
		if err := c.transition(StateClean); err != nil {
			return SaveResult{}, err
		}
		return SaveResult{NoChanges: true, Record: c.rec.Clone()}, nil
	}

	if err := c.transition(StateSaving); err != nil {
		return SaveResult{}, err
	}
	id, token := c.rec.ID, c.token

	c.mu.Unlock()
	callCtx, cancel := c.callCtx(ctx)
	updated, newToken, err := c.gw.Update(callCtx, c.kind, id, token, patch)
	cancel()
	c.mu.Lock()

	switch {
	case err == nil:
		if err := c.transition(StateClean); err != nil {
			return SaveResult{}, err
		}
		c.rec, c.token, c.saveErr = updated, newToken, nil
		c.engine.Leave()
		c.log.Info("record saved", slog.String("id", id), slog.Any("fields", patch.Changed()))
		return SaveResult{Saved: true, Record: updated.Clone()}, nil

	case errors.Is(err, record.ErrVersionConflict):
		c.log.Warn("version conflict", slog.String("id", id))
		if err := c.transition(StateConflictRetry); err != nil {
			return SaveResult{}, err
		}
		return c.refresh(ctx)

	default:
		c.saveErr = err
		if terr := c.transition(StateEditing); terr != nil {
			return SaveResult{}, terr
		}
		return SaveResult{}, err
	}
}

// refresh refetches the record after a conflict and re-enters editing with
// the admin's edits rebased onto it. Called with mu held in ConflictRetry.
func (c *Controller) refresh(ctx context.Context) (SaveResult, error) {
	id := c.rec.ID

	c.busy = true
	c.mu.Unlock()
	callCtx, cancel := c.callCtx(ctx)
	fresh, token, err := c.gw.Get(callCtx, c.kind, id)
	cancel()
	c.mu.Lock()
	c.busy = false

	if c.state != StateConflictRetry {
		return SaveResult{}, fmt.Errorf("%w: state changed during refresh (%s)", ErrInvalidTransition, c.state)
	}
	if err != nil {
		cerr := &ConflictError{RefreshErr: err}
		c.saveErr = cerr
		c.log.Warn("refresh after conflict failed", slog.String("id", id), slog.Any("error", err))
		return SaveResult{Conflict: true}, cerr
	}

	if err := c.transition(StateClean); err != nil {
		return SaveResult{}, err
	}
	c.rec, c.token = fresh, token

	dropped, err := c.engine.Rebase(fresh)
	if err != nil {
		return SaveResult{}, err
	}
	if err := c.transition(StateEditing); err != nil {
		return SaveResult{}, err
	}

	cerr := &ConflictError{Dropped: dropped}
	c.saveErr = cerr
	return SaveResult{Conflict: true, Dropped: dropped, Record: fresh.Clone()}, cerr
}

// Cancel leaves edit mode when there is nothing to lose, otherwise asks the
// caller to confirm with ConfirmDiscard or KeepEditing.
func (c *Controller) Cancel() (CancelOutcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateEditing, StateConflictRetry:
	case StateClean:
		return CancelDone, nil
	default:
		return CancelDone, fmt.Errorf("%w: cancel while %s", ErrInvalidTransition, c.state)
	}
	if c.engine.IsDirty() {
		return CancelNeedsConfirm, nil
	}
	return CancelDone, c.leave()
}

// ConfirmDiscard drops the draft and note.
func (c *Controller) ConfirmDiscard() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateEditing, StateConflictRetry:
		c.engine.Discard()
		return c.leave()
	case StateSaving:
		return ErrSaveInFlight
	}
	return nil
}

// KeepEditing resolves a pending cancel by staying in edit mode.
func (c *Controller) KeepEditing() {}

// leave exits edit mode. A record still in ConflictRetry is stale and must be
// reloaded, so the controller drops to Idle.
func (c *Controller) leave() error {
	c.engine.Leave()
	c.saveErr = nil
	if c.state == StateConflictRetry {
		return c.transition(StateIdle)
	}
	return c.transition(StateClean)
}

// Discard satisfies the unsaved-changes guard.
func (c *Controller) Discard() {
	if err := c.ConfirmDiscard(); err != nil {
		c.log.Debug("discard ignored", slog.Any("error", err))
	}
}

func (c *Controller) IsDirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateEditing, StateSaving, StateConflictRetry:
		return c.engine.IsDirty()
	}
	return false
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Kind() record.Kind { return c.kind }

func (c *Controller) Record() record.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rec.Clone()
}

func (c *Controller) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Controller) Draft() record.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Draft()
}

func (c *Controller) Patch() draft.Patch {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.ComputePatch()
}

func (c *Controller) Note() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Note()
}

// SaveError is the last save failure shown inline; nil after a clean save.
func (c *Controller) SaveError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saveErr
}
