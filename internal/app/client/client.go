package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"mincadmin/internal/app/client/config"
	"mincadmin/internal/app/client/gateway"
	"mincadmin/internal/app/client/guard"
	"mincadmin/internal/app/client/session"
	"mincadmin/internal/app/client/storage"
	"mincadmin/internal/app/client/typeahead"
	"mincadmin/internal/domain/draft"
	"mincadmin/internal/domain/edit"
	"mincadmin/internal/domain/login"
	"mincadmin/internal/domain/record"
)

const healthTimeout = 10 * time.Second

var ErrLoginIncomplete = errors.New("sign-in has not finished")

// App wires the console's pieces together for the CLI.
type App struct {
	config  *config.Config
	log     *slog.Logger
	gateway *gateway.Client
	store   storage.Store
	session *session.Manager
	closed  bool
	mu      sync.Mutex
}

func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("client: nil config")
	}
	if cfg.APIBase == "" {
		return nil, errors.New("client: API base is not configured")
	}

	gw := gateway.New(gateway.Config{
		BaseURL: cfg.APIBase,
		APIKey:  cfg.APIKey,
		Timeout: cfg.RequestTimeout,
		Paths:   gateway.DefaultPaths(),
	}, log)

	// SQLite when the data file is usable, memory otherwise.
	store := storage.Open(cfg.DataPath, log)

	app := &App{
		config:  cfg,
		log:     log,
		gateway: gw,
		store:   store,
		session: session.NewManager(store, cfg.SessionTimeout, log),
	}

	log.Debug("client ready",
		slog.String("api", cfg.APIBase),
		slog.String("env", cfg.Env),
		slog.String("data", cfg.DataPath),
	)
	return app, nil
}

func (a *App) Config() *config.Config { return a.config }

func (a *App) Log() *slog.Logger { return a.log }

func (a *App) Gateway() *gateway.Client { return a.gateway }

func (a *App) Session() *session.Manager { return a.session }

// CheckConnection pings the API health endpoint.
func (a *App) CheckConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	return a.gateway.Health(ctx)
}

// NewWizard starts a sign-in flow against the configured API.
func (a *App) NewWizard() *login.Wizard {
	return login.NewWizard(a.gateway, login.Config{
		AllowedDomains: a.config.AllowedDomains,
		RequireOTP:     a.config.RequireOTP,
	})
}

// CompleteLogin stores the identity of a finished wizard. With remember the
// identifier is prefilled next time; without it any remembered one is dropped.
func (a *App) CompleteLogin(ctx context.Context, w *login.Wizard, remember bool) (*session.Identity, error) {
	if w.Step() != login.StepDone {
		return nil, ErrLoginIncomplete
	}
	acct := w.Account()
	id := session.Identity{
		MincID:         acct.MincID,
		Email:          acct.Email,
		DisplayName:    acct.DisplayName,
		FailedAttempts: acct.FailedAttempts,
		LockoutUntil:   acct.LockoutUntil,
	}
	if err := a.session.Save(ctx, id); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	var err error
	if remember {
		err = a.session.Remember(ctx, w.Identifier())
	} else {
		err = a.session.Forget(ctx)
	}
	if err != nil {
		a.log.Warn("remembered identifier not updated", slog.Any("error", err))
	}

	a.log.Info("signed in", slog.String("mincId", id.MincID))
	return a.session.Load(ctx)
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	a.log.Info("signed out")
	return nil
}

// RequireAuth returns the signed-in admin or session.ErrNotSignedIn.
func (a *App) RequireAuth(ctx context.Context) (*session.Identity, error) {
	return a.session.RequireAuth(ctx)
}

// NewEditor returns a controller for one kind whose note stamps carry the
// admin's label.
func (a *App) NewEditor(kind record.Kind, id session.Identity) (*edit.Controller, error) {
	engine, err := draft.New(kind, draft.WithActor(id.Label()))
	if err != nil {
		return nil, err
	}
	return edit.New(a.gateway, engine, kind,
		edit.WithTimeout(a.config.RequestTimeout),
		edit.WithLogger(a.log),
	), nil
}

// NewGuard protects target's unsaved edits with confirm.
func (a *App) NewGuard(target guard.Dirtier, confirm guard.Confirmer) *guard.Guard {
	return guard.New(target, confirm, a.log)
}

// NewSearcher is a debounced typeahead over one kind.
func (a *App) NewSearcher(kind record.Kind) *typeahead.Searcher {
	search := func(ctx context.Context, q string) ([]record.Summary, error) {
		return a.gateway.Search(ctx, kind, q)
	}
	return typeahead.New(search,
		typeahead.WithDebounce(a.config.SearchDebounce),
		typeahead.WithLogger(a.log),
	)
}

func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	return a.store.Close()
}
