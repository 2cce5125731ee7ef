package s3

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/rstar/blobstore"
)

func TestDDBMetaStore_Versions(t *testing.T) {
	ctx := context.Background()
	ddb := newMemoryDDB()
	store := NewDDBMetaStore(blobstore.NewMemoryStore(), ddb, "rstar-meta", "s3://bucket/tree")

	_, err := store.Open(ctx, "index/meta")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	for _, v := range []string{"v1", "v2", "v3"} {
		require.NoError(t, store.Put(ctx, "index/meta", []byte(v)))
	}
	assert.Equal(t, uint64(3), store.Version("index/meta"))
	assert.Equal(t, 3, ddb.versions("s3://bucket/tree#index/meta"))

	got, err := blobstore.ReadAll(ctx, store, "index/meta")
	require.NoError(t, err)
	assert.Equal(t, "v3", string(got))
}

func TestDDBMetaStore_DelegatesBlocks(t *testing.T) {
	ctx := context.Background()
	inner := blobstore.NewMemoryStore()
	store := NewDDBMetaStore(inner, newMemoryDDB(), "rstar-meta", "s3://bucket/tree")

	require.NoError(t, store.Put(ctx, "data/000000000001", []byte("block")))
	require.NoError(t, store.Put(ctx, "data/meta", []byte("m")))
	assert.Equal(t, 1, inner.Len())

	names, err := store.List(ctx, "data/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"data/000000000001", "data/meta"}, names)

	require.NoError(t, store.Delete(ctx, "data/meta"))
	_, err = store.Open(ctx, "data/meta")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
	require.NoError(t, store.Delete(ctx, "data/000000000001"))
	assert.Equal(t, 0, inner.Len())
}

func TestDDBMetaStore_StaleWriter(t *testing.T) {
	ctx := context.Background()
	ddb := newMemoryDDB()
	inner := blobstore.NewMemoryStore()
	a := NewDDBMetaStore(inner, ddb, "rstar-meta", "s3://bucket/tree")
	b := NewDDBMetaStore(inner, ddb, "rstar-meta", "s3://bucket/tree")

	require.NoError(t, a.Put(ctx, "index/meta", []byte("a1")))
	_, err := b.Open(ctx, "index/meta")
	require.NoError(t, err)

	require.NoError(t, a.Put(ctx, "index/meta", []byte("a2")))
	err = b.Put(ctx, "index/meta", []byte("b2"))
	assert.ErrorIs(t, err, ErrConcurrentModification)

	got, err := blobstore.ReadAll(ctx, b, "index/meta")
	require.NoError(t, err)
	assert.Equal(t, "a2", string(got))
	require.NoError(t, b.Put(ctx, "index/meta", []byte("b3")))
}

func TestDDBMetaStore_IsolatedTrees(t *testing.T) {
	ctx := context.Background()
	ddb := newMemoryDDB()
	a := NewDDBMetaStore(blobstore.NewMemoryStore(), ddb, "rstar-meta", "s3://bucket/a")
	b := NewDDBMetaStore(blobstore.NewMemoryStore(), ddb, "rstar-meta", "s3://bucket/b")

	require.NoError(t, a.Put(ctx, "index/meta", []byte("A")))
	require.NoError(t, b.Put(ctx, "index/meta", []byte("B")))

	got, err := blobstore.ReadAll(ctx, a, "index/meta")
	require.NoError(t, err)
	assert.Equal(t, "A", string(got))
	got, err = blobstore.ReadAll(ctx, b, "index/meta")
	require.NoError(t, err)
	assert.Equal(t, "B", string(got))
}

func TestIsMetaBlob(t *testing.T) {
	assert.True(t, IsMetaBlob("index/meta"))
	assert.True(t, IsMetaBlob("data/meta"))
	assert.False(t, IsMetaBlob("data/000000000001"))
}
