package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist. It is os.ErrNotExist so
// that errors from the local file system match without translation.
var ErrNotFound = os.ErrNotExist

// BlobStore stores named byte blobs.
type BlobStore interface {
	// Open opens a blob for reading; ErrNotFound if absent.
	Open(ctx context.Context, name string) (Blob, error)
	// Put creates or atomically replaces a blob.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the names starting with prefix, in no particular order.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a blob.
type Blob interface {
	// ReadAt follows io.ReaderAt semantics, including io.EOF on short reads.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// Size returns the blob length in bytes.
	Size() int64
	io.Closer
}

// ReadAll reads a whole blob.
func ReadAll(ctx context.Context, s BlobStore, name string) ([]byte, error) {
	b, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	buf := make([]byte, b.Size())
	n, err := b.ReadAt(ctx, buf, 0)
	if err != nil && !(errors.Is(err, io.EOF) && n == len(buf)) {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return buf, nil
}

// Item is one blob of a batch write.
type Item struct {
	Name string
	Data []byte
}

// BatchPutter is implemented by stores that write several blobs in one
// transaction.
type BatchPutter interface {
	PutBatch(ctx context.Context, items []Item) error
}

// PutBatch writes items in one call when s is a BatchPutter and one by one
// otherwise.
func PutBatch(ctx context.Context, s BlobStore, items []Item) error {
	if bp, ok := s.(BatchPutter); ok {
		return bp.PutBatch(ctx, items)
	}
	for _, it := range items {
		if err := s.Put(ctx, it.Name, it.Data); err != nil {
			return err
		}
	}
	return nil
}
