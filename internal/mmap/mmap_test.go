package mmap

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "block")
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestMapping_ReadAt(t *testing.T) {
	ctx := context.Background()
	content := []byte("index block 000001")
	m, err := Open(writeTemp(t, content))
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, int64(len(content)), m.Size())

	buf := make([]byte, 6)
	n, err := m.ReadAt(ctx, buf, 12)
	require.NoError(t, err)
	assert.Equal(t, "000001", string(buf[:n]))

	whole := make([]byte, len(content))
	n, err = m.ReadAt(ctx, whole, 0)
	require.NoError(t, err)
	assert.Equal(t, content, whole[:n])

	n, err = m.ReadAt(ctx, make([]byte, 10), 12)
	assert.Equal(t, 6, n)
	assert.Equal(t, io.EOF, err)

	n, err = m.ReadAt(ctx, buf, 100)
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)

	_, err = m.ReadAt(ctx, buf, -1)
	assert.ErrorIs(t, err, ErrNegativeOffset)
}

func TestMapping_CanceledContext(t *testing.T) {
	m, err := Open(writeTemp(t, []byte("abc")))
	require.NoError(t, err)
	defer m.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.ReadAt(ctx, make([]byte, 1), 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMapping_Close(t *testing.T) {
	m, err := Open(writeTemp(t, []byte("abc")))
	require.NoError(t, err)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	_, err = m.ReadAt(context.Background(), make([]byte, 1), 0)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMapping_EmptyFile(t *testing.T) {
	m, err := Open(writeTemp(t, nil))
	require.NoError(t, err)

	assert.Zero(t, m.Size())
	n, err := m.ReadAt(context.Background(), make([]byte, 1), 0)
	assert.Zero(t, n)
	assert.Equal(t, io.EOF, err)
	require.NoError(t, m.Close())
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
