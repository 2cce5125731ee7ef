package mmap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
)

var (
	// ErrClosed is returned by reads on a closed mapping.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrTooLarge is returned for files longer than the address space allows.
	ErrTooLarge = errors.New("mmap: file too large to map")
	// ErrNegativeOffset is returned for reads before the start of the file.
	ErrNegativeOffset = errors.New("mmap: negative offset")
)

// Mapping is a blob file mapped read-only. Its method set matches
// blobstore.Blob, so a local store hands mappings out as they are.
type Mapping struct {
	data   []byte
	closed atomic.Bool
	unmap  func([]byte) error
}

// Open maps the file at path for random block reads. An empty file yields an
// empty mapping without a system mapping behind it.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := fi.Size()
	if int64(int(size)) != size {
		return nil, fmt.Errorf("%w: %s holds %d bytes", ErrTooLarge, path, size)
	}
	if size == 0 {
		return &Mapping{}, nil
	}

	data, unmap, err := mapReadOnly(f, int(size))
	if err != nil {
		return nil, fmt.Errorf("map %s: %w", path, err)
	}
	return &Mapping{data: data, unmap: unmap}, nil
}

// ReadAt copies the bytes at off into p. A read reaching past the end returns
// the bytes up to the end together with io.EOF.
func (m *Mapping) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if m.closed.Load() {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, fmt.Errorf("%w: %d", ErrNegativeOffset, off)
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Size returns the file length in bytes.
func (m *Mapping) Size() int64 { return int64(len(m.data)) }

// Close releases the mapping. Only the first call unmaps.
func (m *Mapping) Close() error {
	if m.closed.Swap(true) || m.unmap == nil {
		return nil
	}
	return m.unmap(m.data)
}
