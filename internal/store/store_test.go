package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemStoreGetPutDelete(t *testing.T) {
	ctx := context.Background()
	st := NewMemStore()

	_, ok, err := st.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, st.Put(ctx, "k1", "v1"))
	v, ok, err := st.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v1", v)

	require.NoError(t, st.Delete(ctx, "k1"))
	_, ok, err = st.Get(ctx, "k1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFileStoreGetPutDelete(t *testing.T) {
	ctx := context.Background()
	st, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, st.Put(ctx, "tenant-a:event:u1", `{"sequence":1}`))
	v, ok, err := st.Get(ctx, "tenant-a:event:u1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"sequence":1}`, v)

	require.NoError(t, st.Delete(ctx, "tenant-a:event:u1"))
	_, ok, err = st.Get(ctx, "tenant-a:event:u1")
	require.NoError(t, err)
	require.False(t, ok)
}

// TestTenantKeyIsolation exercises property 8: operations scoped to one
// tenant prefix never observe another tenant's keys.
func TestTenantKeyIsolation(t *testing.T) {
	for _, st := range []Store{NewMemStore(), mustFileStore(t)} {
		ctx := context.Background()
		require.NoError(t, st.Put(ctx, "tenant-a:event:u1", "a-value"))
		require.NoError(t, st.Put(ctx, "tenant-b:event:u1", "b-value"))

		keys, _, complete, err := st.List(ctx, "tenant-a:", "")
		require.NoError(t, err)
		require.True(t, complete)
		require.Equal(t, []string{"tenant-a:event:u1"}, keys)

		v, ok, err := st.Get(ctx, "tenant-b:event:u1")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "b-value", v)
	}
}

func TestFileStoreListPrefixOrdering(t *testing.T) {
	ctx := context.Background()
	st := mustFileStore(t)

	require.NoError(t, st.Put(ctx, "t:event:b", "2"))
	require.NoError(t, st.Put(ctx, "t:event:a", "1"))
	require.NoError(t, st.Put(ctx, "other:event:z", "9"))

	keys, _, complete, err := st.List(ctx, "t:", "")
	require.NoError(t, err)
	require.True(t, complete)
	require.Equal(t, []string{"t:event:a", "t:event:b"}, keys)
}

func mustFileStore(t *testing.T) *FileStore {
	t.Helper()
	st, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return st
}
