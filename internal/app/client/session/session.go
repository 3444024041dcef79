// Package session persists who is signed in. Presence of an identity is the
// only client-side gate; the server enforces access on every call.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/exp/slog"

	"mincadmin/internal/app/client/storage"
)

const (
	KeyUser                 = "mincUser"
	KeyRememberedIdentifier = "mincRememberedIdentifier"
	DefaultActorLabel       = "MinC Admin"
)

var ErrNotSignedIn = errors.New("not signed in, run: mincadmin auth login")

// Identity is the signed-in admin. FailedAttempts and LockoutUntil are the
// account's standing as reported when sign-in started; display only.
type Identity struct {
	MincID         string    `json:"mincId"`
	Email          string    `json:"email"`
	DisplayName    string    `json:"displayName,omitempty"`
	FailedAttempts int       `json:"failedAttempts,omitempty"`
	LockoutUntil   string    `json:"lockoutUntil,omitempty"`
	SignedInAt     time.Time `json:"signedInAt"`
}

// Label is the actor name written into admin note stamps.
func (i Identity) Label() string {
	if n := strings.TrimSpace(i.DisplayName); n != "" {
		return n
	}
	if i.MincID != "" {
		return i.MincID
	}
	return DefaultActorLabel
}

type Manager struct {
	store   storage.Store
	timeout time.Duration
	now     func() time.Time
	log     *slog.Logger
}

// NewManager builds a Manager. A zero timeout keeps identities until logout.
func NewManager(store storage.Store, timeout time.Duration, log *slog.Logger) *Manager {
	return &Manager{
		store:   store,
		timeout: timeout,
		now:     time.Now,
		log:     log.With(slog.String("component", "session")),
	}
}

// Load returns the stored identity, or ErrNotSignedIn when there is none or
// it has expired.
func (m *Manager) Load(ctx context.Context) (*Identity, error) {
	raw, err := m.store.Get(ctx, storage.ScopeSession, KeyUser)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotSignedIn
	}
	if err != nil {
		return nil, err
	}

	var id Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		m.log.Warn("discarding unreadable session", slog.Any("error", err))
		_ = m.Clear(ctx)
		return nil, ErrNotSignedIn
	}

	if m.timeout > 0 && !id.SignedInAt.IsZero() && m.now().Sub(id.SignedInAt) > m.timeout {
		m.log.Info("session expired", slog.String("minc_id", id.MincID))
		_ = m.Clear(ctx)
		return nil, ErrNotSignedIn
	}
	return &id, nil
}

func (m *Manager) Save(ctx context.Context, id Identity) error {
	if id.SignedInAt.IsZero() {
		id.SignedInAt = m.now().UTC()
	}
	raw, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return m.store.Set(ctx, storage.ScopeSession, KeyUser, string(raw))
}

// Clear signs out. The remembered identifier is kept.
func (m *Manager) Clear(ctx context.Context) error {
	return m.store.ClearScope(ctx, storage.ScopeSession)
}

// RequireAuth is the route guard of protected commands.
func (m *Manager) RequireAuth(ctx context.Context) (*Identity, error) {
	return m.Load(ctx)
}

func (m *Manager) RememberedIdentifier(ctx context.Context) string {
	v, err := m.store.Get(ctx, storage.ScopeLocal, KeyRememberedIdentifier)
	if err != nil {
		return ""
	}
	return v
}

func (m *Manager) Remember(ctx context.Context, identifier string) error {
	return m.store.Set(ctx, storage.ScopeLocal, KeyRememberedIdentifier, identifier)
}

func (m *Manager) Forget(ctx context.Context) error {
	return m.store.Delete(ctx, storage.ScopeLocal, KeyRememberedIdentifier)
}
