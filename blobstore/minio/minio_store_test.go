package minio

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/rstar/blobstore"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// TestStore_Integration needs a MinIO server, by default on localhost:9000.
func TestStore_Integration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := New(ctx, Config{
		Endpoint:     envOr("MINIO_ENDPOINT", "localhost:9000"),
		AccessKey:    envOr("MINIO_ACCESS_KEY", "minioadmin"),
		SecretKey:    envOr("MINIO_SECRET_KEY", "minioadmin"),
		Bucket:       "rstar-test",
		Prefix:       fmt.Sprintf("run-%d", time.Now().UnixNano()),
		CreateBucket: true,
	})
	if err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	data := []byte("hello minio block")
	require.NoError(t, store.Put(ctx, "data/000000000001", data))

	b, err := store.Open(ctx, "data/000000000001")
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), b.Size())

	buf := make([]byte, 5)
	n, err := b.ReadAt(ctx, buf, 6)
	require.NoError(t, err)
	assert.Equal(t, "minio", string(buf[:n]))
	require.NoError(t, b.Close())

	got, err := blobstore.ReadAll(ctx, store, "data/000000000001")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"data/000000000001"}, names)

	require.NoError(t, store.Delete(ctx, "data/000000000001"))
	require.NoError(t, store.Delete(ctx, "data/000000000001"))
	_, err = store.Open(ctx, "data/000000000001")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestStore_Key(t *testing.T) {
	assert.Equal(t, "a/b/data/1", NewStore(nil, "bucket", "/a/b/").key("data/1"))
	assert.Equal(t, "data/1", NewStore(nil, "bucket", "").key("data/1"))
}
