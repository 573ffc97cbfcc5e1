package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStores(t *testing.T) {
	sq, err := OpenSQLite(filepath.Join(t.TempDir(), "termos.db"))
	require.NoError(t, err)

	for name, s := range map[string]Store{"memory": NewMemory(), "sqlite": sq} {
		t.Run(name, func(t *testing.T) {
			defer func() { require.NoError(t, s.Close()) }()
			testStore(t, s)
		})
	}
}

func testStore(t *testing.T, s Store) {
	var ctx = context.Background()

	_, err := s.Get(ctx, "jobs", "a")
	require.Equal(t, ErrNotFound, err)

	keys, err := s.List(ctx, "jobs")
	require.NoError(t, err)
	require.Empty(t, keys)

	require.NoError(t, s.Put(ctx, "jobs", "b", []byte("two")))
	require.NoError(t, s.Put(ctx, "jobs", "a", []byte("one")))
	require.NoError(t, s.Put(ctx, "other", "a", []byte("other")))

	v, err := s.Get(ctx, "jobs", "a")
	require.NoError(t, err)
	require.Equal(t, []byte("one"), v)

	// Overwrite.
	require.NoError(t, s.Put(ctx, "jobs", "a", []byte("uno")))
	v, err = s.Get(ctx, "jobs", "a")
	require.NoError(t, err)
	require.Equal(t, []byte("uno"), v)

	keys, err = s.List(ctx, "jobs")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, keys)

	require.NoError(t, s.Delete(ctx, "jobs", "a"))
	require.Equal(t, ErrNotFound, s.Delete(ctx, "jobs", "a"))

	v, err = s.Get(ctx, "other", "a")
	require.NoError(t, err)
	require.Equal(t, []byte("other"), v)
}

func TestBucket(t *testing.T) {
	var ctx = context.Background()
	b := In(NewMemory(), "notes")

	require.NoError(t, b.Put(ctx, "k", []byte("v")))
	v, err := b.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("v"), v)

	keys, err := b.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"k"}, keys)
	require.NoError(t, b.Delete(ctx, "k"))
}

func TestOpen(t *testing.T) {
	s, err := Open("memory")
	require.NoError(t, err)
	require.IsType(t, &Memory{}, s)

	s, err = Open(filepath.Join(t.TempDir(), "x.db"))
	require.NoError(t, err)
	require.IsType(t, &SQLite{}, s)
	require.NoError(t, s.Close())
}
