package storage

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/rstar/geom"
	"github.com/hupe1980/rstar/index"
	"github.com/hupe1980/rstar/model"
)

func TestFrame(t *testing.T) {
	payload := bytes.Repeat([]byte("rstar block payload "), 64)

	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			frame, err := encodeFrame(kindData, payload, c, DefaultBlockSize)
			require.NoError(t, err)
			assert.Len(t, frame, DefaultBlockSize)
			if c != CompressionNone {
				assert.Equal(t, byte(c), frame[5], "repetitive payload compresses")
			}

			got, err := decodeFrame(kindData, frame)
			require.NoError(t, err)
			assert.Equal(t, payload, got)
		})
	}
}

func TestFrame_IncompressibleStoredRaw(t *testing.T) {
	payload := []byte{0x01, 0x9f, 0x33, 0xe2}
	frame, err := encodeFrame(kindNode, payload, CompressionZSTD, minBlockSize)
	require.NoError(t, err)
	assert.Equal(t, byte(CompressionNone), frame[5])
}

func TestFrame_Errors(t *testing.T) {
	payload := []byte("0123456789")
	frame, err := encodeFrame(kindNode, payload, CompressionNone, minBlockSize)
	require.NoError(t, err)

	t.Run("checksum", func(t *testing.T) {
		bad := bytes.Clone(frame)
		bad[frameHeaderSize+3] ^= 0xff
		_, err := decodeFrame(kindNode, bad)
		assert.ErrorIs(t, err, ErrCorrupt)
		assert.ErrorIs(t, err, index.ErrStorage)
	})

	t.Run("kind", func(t *testing.T) {
		_, err := decodeFrame(kindData, frame)
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("magic", func(t *testing.T) {
		bad := bytes.Clone(frame)
		bad[0] = 0
		_, err := decodeFrame(kindNode, bad)
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("short", func(t *testing.T) {
		_, err := decodeFrame(kindNode, frame[:8])
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("overflow", func(t *testing.T) {
		_, err := encodeFrame(kindNode, make([]byte, minBlockSize), CompressionNone, minBlockSize)
		assert.ErrorIs(t, err, ErrBlockOverflow)
		assert.ErrorIs(t, err, index.ErrStorage)
	})
}

func TestParseCompression(t *testing.T) {
	for in, want := range map[string]Compression{"": CompressionNone, "none": CompressionNone, "LZ4": CompressionLZ4, " zstd ": CompressionZSTD} {
		got, err := ParseCompression(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseCompression("snappy")
	assert.Error(t, err)
}

func TestEncodeNode(t *testing.T) {
	n := &index.Node{
		ID:    7,
		Level: 2,
		Entries: []index.Entry{
			index.NewInternalEntry(3, geom.FromPoints([]float64{0, 1}, []float64{2, 3})),
			index.NewInternalEntry(9, geom.FromPoint([]float64{-4, 5.5})),
		},
	}
	buf, err := encodeNode(n, 2)
	require.NoError(t, err)
	assert.Len(t, buf, nodeSize(2, 2))

	got, err := decodeNode(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, n.ID, got.ID)
	assert.Equal(t, n.Level, got.Level)
	require.Len(t, got.Entries, 2)
	for i := range n.Entries {
		assert.Equal(t, n.Entries[i].Kind, got.Entries[i].Kind)
		assert.Equal(t, n.Entries[i].Child, got.Entries[i].Child)
		assert.True(t, n.Entries[i].MBR.Equal(got.Entries[i].MBR))
	}

	_, err = encodeNode(n, 3)
	assert.ErrorIs(t, err, index.ErrInvalidArgument)

	_, err = decodeNode(buf[:nodeHeaderSize+5], 2)
	assert.Error(t, err)
}

func TestEncodeRecords(t *testing.T) {
	recs := []model.Record{
		{ID: 1, Name: "Athens", Coords: []float64{37.98, 23.72}},
		{ID: 42, Name: "", Coords: []float64{0, -1}},
	}
	buf, err := encodeRecords(recs, 2)
	require.NoError(t, err)
	assert.Len(t, buf, recordsSize(recs))

	got, err := decodeRecords(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, recs, got)

	_, err = encodeRecords(recs, 3)
	var dm *index.ErrDimensionMismatch
	assert.ErrorAs(t, err, &dm)

	_, err = decodeRecords(buf[:len(buf)-1], 2)
	assert.Error(t, err)
}
