package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/hupe1980/rstar/internal/hash"
)

const (
	frameMagic      uint32 = 0x52535452 // "RSTR"
	frameHeaderSize        = 20
)

type blockKind uint8

const (
	kindNode blockKind = iota + 1
	kindData
	kindMeta
)

func (k blockKind) String() string {
	switch k {
	case kindNode:
		return "node"
	case kindData:
		return "data"
	case kindMeta:
		return "meta"
	default:
		return fmt.Sprintf("blockKind(%d)", uint8(k))
	}
}

// encodeFrame compresses payload and lays it out in a zero padded block of
// blockSize bytes.
func encodeFrame(kind blockKind, payload []byte, c Compression, blockSize int) ([]byte, error) {
	stored, used, err := compress(payload, c)
	if err != nil {
		return nil, fmt.Errorf("compress %s block: %w", kind, err)
	}
	if frameHeaderSize+len(stored) > blockSize {
		return nil, fmt.Errorf("%w: %s payload of %d bytes exceeds block size %d",
			ErrBlockOverflow, kind, len(stored), blockSize)
	}

	buf := make([]byte, blockSize)
	binary.LittleEndian.PutUint32(buf[0:], frameMagic)
	buf[4] = byte(kind)
	buf[5] = byte(used)
	binary.LittleEndian.PutUint32(buf[8:], uint32(len(stored)))
	binary.LittleEndian.PutUint32(buf[12:], uint32(len(payload)))
	binary.LittleEndian.PutUint32(buf[16:], hash.Sum(stored))
	copy(buf[frameHeaderSize:], stored)
	return buf, nil
}

// decodeFrame verifies a block and returns its uncompressed payload.
func decodeFrame(want blockKind, buf []byte) ([]byte, error) {
	if len(buf) < frameHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the frame header", ErrCorrupt, len(buf))
	}
	if m := binary.LittleEndian.Uint32(buf[0:]); m != frameMagic {
		return nil, fmt.Errorf("%w: bad magic %#x", ErrCorrupt, m)
	}
	if k := blockKind(buf[4]); k != want {
		return nil, fmt.Errorf("%w: %s block where %s was expected", ErrCorrupt, k, want)
	}
	c := Compression(buf[5])
	storedLen := int(binary.LittleEndian.Uint32(buf[8:]))
	rawLen := int(binary.LittleEndian.Uint32(buf[12:]))
	sum := binary.LittleEndian.Uint32(buf[16:])
	if frameHeaderSize+storedLen > len(buf) {
		return nil, fmt.Errorf("%w: payload length %d exceeds block", ErrCorrupt, storedLen)
	}

	stored := buf[frameHeaderSize : frameHeaderSize+storedLen]
	if got := hash.Sum(stored); got != sum {
		return nil, fmt.Errorf("%w: checksum %#x, want %#x", ErrCorrupt, got, sum)
	}
	payload, err := decompress(stored, c, rawLen)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return payload, nil
}

// payloadCapacity is the largest uncompressed payload a block can always hold.
func payloadCapacity(blockSize int) int {
	return blockSize - frameHeaderSize
}
