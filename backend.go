package rstar

import (
	"context"
	"io"

	"github.com/hupe1980/rstar/blobstore"
	"github.com/hupe1980/rstar/blobstore/sqlite"
)

// Backend locates the blobs of a DB.
type Backend struct {
	name string
	open func(ctx context.Context) (blobstore.BlobStore, error)
	// owned backends are closed with the DB.
	owned bool
}

// String returns the backend kind.
func (b Backend) String() string { return b.name }

// Memory keeps all blocks in memory. The DB is lost on Close.
func Memory() Backend {
	return Backend{
		name: "memory",
		open: func(context.Context) (blobstore.BlobStore, error) {
			return blobstore.NewMemoryStore(), nil
		},
	}
}

// Local stores one file per block under dir.
func Local(dir string) Backend {
	return Backend{
		name: "local",
		open: func(context.Context) (blobstore.BlobStore, error) {
			return blobstore.NewLocalStore(dir), nil
		},
	}
}

// SQLite stores all blocks in one SQLite database file.
func SQLite(path string) Backend {
	return Backend{
		name: "sqlite",
		open: func(ctx context.Context) (blobstore.BlobStore, error) {
			return sqlite.Open(ctx, path)
		},
		owned: true,
	}
}

// Remote stores blocks in a caller-provided blob store, e.g. s3.Store or
// minio.Store. The store is not closed with the DB.
func Remote(store blobstore.BlobStore) Backend {
	return Backend{
		name: "remote",
		open: func(context.Context) (blobstore.BlobStore, error) {
			return store, nil
		},
	}
}

func closeBlobs(b Backend, store blobstore.BlobStore) error {
	if !b.owned {
		return nil
	}
	if c, ok := store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
