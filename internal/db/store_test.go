package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open(context.Background(), "   ")
	assert.Error(t, err)
}

func TestStore_SetAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, ScopeSync, map[string]string{
		"users":  `[{"id":"u1","email":"a@x.com"}]`,
		"groups": `[]`,
	}))

	got, err := s.Get(ctx, ScopeSync, "users", "groups", "missing")
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, `[]`, got["groups"])
	_, present := got["missing"]
	assert.False(t, present, "absent keys must be omitted")
}

func TestStore_ScopesAreIsolated(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, ScopeLocal, map[string]string{"lang": "es"}))

	got, err := s.Get(ctx, ScopeSync, "lang")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.Get(ctx, ScopeLocal, "lang")
	require.NoError(t, err)
	assert.Equal(t, "es", got["lang"])
}

func TestStore_Overwrite(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, ScopeSync, map[string]string{"users": "old"}))
	require.NoError(t, s.Set(ctx, ScopeSync, map[string]string{"users": "new"}))

	got, err := s.Get(ctx, ScopeSync, "users")
	require.NoError(t, err)
	assert.Equal(t, "new", got["users"])
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "persist.sqlite3")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, ScopeSync, map[string]string{"users": "[]"}))
	require.NoError(t, s.Close())

	s2, err := Open(ctx, path)
	require.NoError(t, err)
	defer func() { _ = s2.Close() }()

	got, err := s2.Get(ctx, ScopeSync, "users")
	require.NoError(t, err)
	assert.Equal(t, "[]", got["users"])
}

func TestStore_GetNoKeys(t *testing.T) {
	s := openTestStore(t)
	got, err := s.Get(context.Background(), ScopeSync)
	require.NoError(t, err)
	assert.Empty(t, got)
}
