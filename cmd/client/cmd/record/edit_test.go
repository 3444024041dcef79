package record

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"

	"mincadmin/internal/app/client"
	"mincadmin/internal/app/client/config"
	"mincadmin/internal/app/client/gateway"
	"mincadmin/internal/app/client/session"
	"mincadmin/internal/app/sandbox"
	"mincadmin/internal/app/sandbox/store"
	"mincadmin/internal/domain/draft"
	"mincadmin/internal/domain/edit"
	"mincadmin/internal/domain/record"
)

var admin = session.Identity{MincID: store.SeedAdminID, Email: store.SeedAdminEmail}

func newApp(t *testing.T) (*client.App, *sandbox.Sandbox) {
	t.Helper()
	sb, err := sandbox.New(sandbox.Options{BcryptCost: bcrypt.MinCost}, slog.Default())
	require.NoError(t, err)
	srv := httptest.NewServer(sb.Handler)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	app, err := client.New(&config.Config{
		Env:            config.EnvLocal,
		APIBase:        srv.URL,
		ConfigDir:      dir,
		DataPath:       filepath.Join(dir, "test.db"),
		RequestTimeout: 5 * time.Second,
		SessionTimeout: time.Hour,
		SearchDebounce: time.Millisecond,
		AllowedDomains: []string{"vegu.me"},
	}, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app, sb
}

func sandboxField(t *testing.T, sb *sandbox.Sandbox, kind record.Kind, id, field string) string {
	t.Helper()
	doc, _, err := sb.Records.Get(kind, id)
	require.NoError(t, err)
	return record.Stringify(doc[field])
}

func TestApplyEdits(t *testing.T) {
	tests := []struct {
		name    string
		sets    []string
		note    string
		wantErr string
		wantOut string
	}{
		{name: "saves", sets: []string{"city=Dallas", "status=active"}, note: "verified", wantOut: "Saved institution VG25001055"},
		{name: "camelCase field name", sets: []string{"postalCode=73301"}, note: "zip", wantOut: "Saved"},
		{name: "unchanged value", sets: []string{"city=Austin"}, note: "noop", wantOut: "No changes to save"},
		{name: "note required", sets: []string{"city=Dallas"}, wantErr: draft.MsgNoteRequired},
		{name: "unknown field", sets: []string{"colour=red"}, note: "x", wantErr: "unknown field"},
		{name: "read-only field", sets: []string{"name=Other Co"}, note: "x", wantErr: "name is read-only"},
		{name: "invalid option", sets: []string{"status=gone"}, note: "x", wantErr: `"gone" is not a valid status`},
		{name: "malformed set", sets: []string{"city"}, note: "x", wantErr: "expected field=value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newApp(t)
			ctl, err := app.NewEditor(record.KindInstitution, admin)
			require.NoError(t, err)

			var out bytes.Buffer
			err = applyEdits(context.Background(), ctl, store.SeedInstitutionID, tt.sets, tt.note, false, &out)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out.String(), tt.wantOut)
		})
	}
}

func TestApplyEdits_StampsNote(t *testing.T) {
	app, sb := newApp(t)
	ctl, err := app.NewEditor(record.KindInstitution, admin)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, applyEdits(context.Background(), ctl, store.SeedInstitutionID,
		[]string{"city=Dallas"}, "moved office", false, &out))

	assert.Equal(t, "Dallas", sandboxField(t, sb, record.KindInstitution, store.SeedInstitutionID, "city"))
	assert.Contains(t, sandboxField(t, sb, record.KindInstitution, store.SeedInstitutionID, record.FieldAdminNotes),
		store.SeedAdminID+": moved office")
}

// racingGateway lets another admin save right before our first update.
type racingGateway struct {
	*gateway.Client
	once  sync.Once
	other func()
}

func (g *racingGateway) Update(ctx context.Context, kind record.Kind, id, token string, patch draft.Patch) (record.Record, string, error) {
	g.once.Do(g.other)
	return g.Client.Update(ctx, kind, id, token, patch)
}

func racingEditor(t *testing.T, app *client.App, sb *sandbox.Sandbox) *edit.Controller {
	t.Helper()
	gw := &racingGateway{Client: app.Gateway(), other: func() {
		_, _, err := sb.Records.Update(record.KindInstitution, store.SeedInstitutionID, "",
			map[string]any{"comment": "checked by ops"})
		require.NoError(t, err)
	}}
	engine, err := draft.New(record.KindInstitution, draft.WithActor(admin.Label()))
	require.NoError(t, err)
	return edit.New(gw, engine, record.KindInstitution)
}

func TestApplyEdits_Conflict(t *testing.T) {
	app, sb := newApp(t)
	ctl := racingEditor(t, app, sb)

	var out bytes.Buffer
	err := applyEdits(context.Background(), ctl, store.SeedInstitutionID, []string{"city=Dallas"}, "moved", false, &out)
	require.ErrorIs(t, err, record.ErrVersionConflict)
	assert.Contains(t, out.String(), edit.MsgConflict)
	assert.Equal(t, "Austin", sandboxField(t, sb, record.KindInstitution, store.SeedInstitutionID, "city"))
}

func TestApplyEdits_ConflictRetry(t *testing.T) {
	app, sb := newApp(t)
	ctl := racingEditor(t, app, sb)

	var out bytes.Buffer
	err := applyEdits(context.Background(), ctl, store.SeedInstitutionID, []string{"city=Dallas"}, "moved", true, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), edit.MsgConflict)
	assert.Contains(t, out.String(), "Saved institution")
	assert.Equal(t, "Dallas", sandboxField(t, sb, record.KindInstitution, store.SeedInstitutionID, "city"))
	assert.Equal(t, "checked by ops", sandboxField(t, sb, record.KindInstitution, store.SeedInstitutionID, "comment"))
}

// staleGateway races another admin's save like racingGateway, then fails the
// refresh that follows once.
type staleGateway struct {
	racingGateway
	failGet bool
}

func (g *staleGateway) Get(ctx context.Context, kind record.Kind, id string) (record.Record, string, error) {
	if g.failGet {
		g.failGet = false
		return record.Record{}, "", errors.New("network down")
	}
	return g.Client.Get(ctx, kind, id)
}

func (g *staleGateway) Update(ctx context.Context, kind record.Kind, id, token string, patch draft.Patch) (record.Record, string, error) {
	g.once.Do(func() {
		g.other()
		g.failGet = true
	})
	return g.Client.Update(ctx, kind, id, token, patch)
}

func TestEditSession_RefreshFailed(t *testing.T) {
	app, sb := newApp(t)
	gw := &staleGateway{racingGateway: racingGateway{Client: app.Gateway(), other: func() {
		_, _, err := sb.Records.Update(record.KindInstitution, store.SeedInstitutionID, "",
			map[string]any{"comment": "checked by ops"})
		require.NoError(t, err)
	}}}
	engine, err := draft.New(record.KindInstitution, draft.WithActor(admin.Label()))
	require.NoError(t, err)
	ctl := edit.New(gw, engine, record.KindInstitution)

	script := "set city Dallas\nnote moved\nsave\nset city Houston\nsave\nsave\nquit\n"
	var out bytes.Buffer
	s := newEditSession(context.Background(), app, ctl, strings.NewReader(script), &out)
	require.NoError(t, s.loop(store.SeedInstitutionID, nil))

	assert.Contains(t, out.String(), "refresh failed: network down")
	assert.Contains(t, out.String(), ErrRefreshNeeded.Error())
	assert.Contains(t, out.String(), "Your edits were re-applied")
	assert.Contains(t, out.String(), "Saved institution")
	assert.Equal(t, "Dallas", sandboxField(t, sb, record.KindInstitution, store.SeedInstitutionID, "city"))
	assert.Equal(t, "checked by ops", sandboxField(t, sb, record.KindInstitution, store.SeedInstitutionID, "comment"))
}

func runSession(t *testing.T, app *client.App, id, script string) (string, error) {
	t.Helper()
	ctl, err := app.NewEditor(record.KindInstitution, admin)
	require.NoError(t, err)

	var out bytes.Buffer
	s := newEditSession(context.Background(), app, ctl, strings.NewReader(script), &out)
	err = s.loop(id, nil)
	return out.String(), err
}

func TestEditSession(t *testing.T) {
	tests := []struct {
		name     string
		script   string
		wantErr  error
		wantOut  []string
		wantCity string
	}{
		{
			name:     "edit and save",
			script:   "set city Dallas\nnote moved office\ndiff\nsave\nquit\n",
			wantOut:  []string{`city: "Austin" -> "Dallas"`, "note: moved office", "Saved institution VG25001055"},
			wantCity: "Dallas",
		},
		{
			name:     "quit asks and can be refused",
			script:   "set city Dallas\nquit\nn\nquit\ny\n",
			wantOut:  []string{"Discard changes?", "Still editing"},
			wantCity: "Austin",
		},
		{
			name:     "cancel discards after confirm",
			script:   "set city Dallas\ncancel\nyes\ndiff\nquit\n",
			wantOut:  []string{"Discard changes?", "No changes"},
			wantCity: "Austin",
		},
		{
			name:     "open goes through the guard",
			script:   "set city Dallas\nopen " + store.SeedSchoolID + "\ny\nshow\nquit\n",
			wantOut:  []string{"Riverside High School"},
			wantCity: "Austin",
		},
		{
			name:     "save without note",
			script:   "set city Dallas\nsave\nnote ok\nsave\nquit\n",
			wantOut:  []string{draft.MsgNoteRequired, "Saved institution"},
			wantCity: "Dallas",
		},
		{
			name:     "other detail",
			script:   "other plan_type Pilot programme\ndiff\ncancel\ny\nquit\n",
			wantOut:  []string{`plan_type: "free" -> "Other - Pilot programme"`},
			wantCity: "Austin",
		},
		{
			name:     "unknown command",
			script:   "frobnicate\nquit\n",
			wantOut:  []string{`unknown command "frobnicate"`},
			wantCity: "Austin",
		},
		{
			name:     "input ends with unsaved edits",
			script:   "set city Dallas\n",
			wantErr:  ErrUnsavedExit,
			wantCity: "Austin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, sb := newApp(t)
			out, err := runSession(t, app, store.SeedInstitutionID, tt.script)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			for _, s := range tt.wantOut {
				assert.Contains(t, out, s)
			}
			assert.Equal(t, tt.wantCity, sandboxField(t, sb, record.KindInstitution, store.SeedInstitutionID, "city"))
		})
	}
}

func TestEditSession_UnknownRecord(t *testing.T) {
	app, _ := newApp(t)
	_, err := runSession(t, app, "VG00000000", "quit\n")
	assert.ErrorIs(t, err, record.ErrNotFound)
}

func TestPrintRecord(t *testing.T) {
	rec := record.Record{
		Kind:       record.KindInstitution,
		ID:         "VG25001055",
		Fields:     map[string]string{"name": "Lone Star Logistics", "city": "Austin"},
		AdminNotes: "[2025-09-01 10:00] ops: created",
	}

	var buf bytes.Buffer
	require.NoError(t, printRecord(&buf, rec, "text"))
	assert.Contains(t, buf.String(), "Lone Star Logistics")
	assert.Contains(t, buf.String(), "City*")
	assert.Contains(t, buf.String(), "ops: created")

	buf.Reset()
	require.NoError(t, printRecord(&buf, rec, "json"))
	assert.Contains(t, buf.String(), `"id": "VG25001055"`)

	buf.Reset()
	require.NoError(t, printRecord(&buf, rec, "yaml"))
	assert.Contains(t, buf.String(), "id: VG25001055")
	assert.Contains(t, buf.String(), "city: Austin")

	assert.Error(t, printRecord(&buf, rec, "xml"))
}
