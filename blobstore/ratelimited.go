package blobstore

import (
	"context"

	"github.com/hupe1980/rstar/internal/resource"
)

// RateLimitedStore throttles the bytes written by Put and read through Blob
// handles with the IO limit of a resource.Controller.
type RateLimitedStore struct {
	inner BlobStore
	rc    *resource.Controller
}

// NewRateLimitedStore wraps inner. A nil rc or one without IO limit passes
// everything through.
func NewRateLimitedStore(inner BlobStore, rc *resource.Controller) *RateLimitedStore {
	return &RateLimitedStore{inner: inner, rc: rc}
}

func (s *RateLimitedStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &rateLimitedBlob{Blob: b, rc: s.rc}, nil
}

func (s *RateLimitedStore) Put(ctx context.Context, name string, data []byte) error {
	if err := s.rc.AcquireIO(ctx, len(data)); err != nil {
		return err
	}
	return s.inner.Put(ctx, name, data)
}

func (s *RateLimitedStore) Delete(ctx context.Context, name string) error {
	return s.inner.Delete(ctx, name)
}

func (s *RateLimitedStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

type rateLimitedBlob struct {
	Blob
	rc *resource.Controller
}

func (b *rateLimitedBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := b.rc.AcquireIO(ctx, len(p)); err != nil {
		return 0, err
	}
	return b.Blob.ReadAt(ctx, p, off)
}
