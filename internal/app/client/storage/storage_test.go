package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	sq, err := NewSQLiteStore(filepath.Join(t.TempDir(), "data.db"), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })
	return map[string]Store{
		"sqlite": sq,
		"memory": NewMemoryStore(),
	}
}

func TestStore(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := st.Get(ctx, ScopeSession, "mincUser")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, st.Set(ctx, ScopeSession, "mincUser", `{"mincId":"MM12A34567"}`))
			require.NoError(t, st.Set(ctx, ScopeLocal, "mincRememberedIdentifier", "MM12A34567"))
			require.NoError(t, st.Set(ctx, ScopeSession, "mincUser", `{"mincId":"MM99Z00001"}`))

			v, err := st.Get(ctx, ScopeSession, "mincUser")
			require.NoError(t, err)
			assert.Equal(t, `{"mincId":"MM99Z00001"}`, v)

			require.NoError(t, st.ClearScope(ctx, ScopeSession))
			_, err = st.Get(ctx, ScopeSession, "mincUser")
			assert.ErrorIs(t, err, ErrNotFound)

			v, err = st.Get(ctx, ScopeLocal, "mincRememberedIdentifier")
			require.NoError(t, err)
			assert.Equal(t, "MM12A34567", v)

			require.NoError(t, st.Delete(ctx, ScopeLocal, "mincRememberedIdentifier"))
			_, err = st.Get(ctx, ScopeLocal, "mincRememberedIdentifier")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.db")
	ctx := context.Background()

	st, err := NewSQLiteStore(path, slog.Default())
	require.NoError(t, err)
	require.NoError(t, st.Set(ctx, ScopeLocal, "k", "v"))
	require.NoError(t, st.Close())

	st, err = NewSQLiteStore(path, slog.Default())
	require.NoError(t, err)
	defer st.Close()

	v, err := st.Get(ctx, ScopeLocal, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestOpen_FallsBackToMemory(t *testing.T) {
	st := Open(filepath.Join(t.TempDir(), "missing", "dir", "data.db"), slog.Default())
	defer st.Close()

	_, ok := st.(*MemoryStore)
	assert.True(t, ok)
}
