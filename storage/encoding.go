package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/rstar/geom"
	"github.com/hupe1980/rstar/index"
	"github.com/hupe1980/rstar/model"
)

// Node payload:
//
//	level uint32 | id int64 | count uint32 | count * (kind u8 | ref int64 | dims * (lower, upper) float64)
//
// Data payload:
//
//	count uint32 | count * (id int64 | name length uint16 | name | dims * float64)

const (
	nodeHeaderSize   = 16
	recordHeaderSize = 10
	maxNameLen       = math.MaxUint16
)

var errShortPayload = errors.New("payload truncated")

func nodeEntrySize(dims int) int { return 1 + 8 + dims*16 }

func nodeSize(n int, dims int) int { return nodeHeaderSize + n*nodeEntrySize(dims) }

func recordSize(r model.Record) int { return recordHeaderSize + len(r.Name) + 8*len(r.Coords) }

func recordsSize(records []model.Record) int {
	size := 4
	for _, r := range records {
		size += recordSize(r)
	}
	return size
}

func encodeNode(n *index.Node, dims int) ([]byte, error) {
	buf := make([]byte, nodeSize(len(n.Entries), dims))
	binary.LittleEndian.PutUint32(buf[0:], uint32(n.Level))
	binary.LittleEndian.PutUint64(buf[4:], uint64(n.ID))
	binary.LittleEndian.PutUint32(buf[12:], uint32(len(n.Entries)))

	off := nodeHeaderSize
	for _, e := range n.Entries {
		if e.MBR.Dims() != dims {
			return nil, fmt.Errorf("%w: entry of node %d has %d dimensions, store has %d",
				index.ErrInvalidArgument, n.ID, e.MBR.Dims(), dims)
		}
		buf[off] = byte(e.Kind)
		ref := int64(e.Child)
		if e.IsLeaf() {
			ref = int64(e.Block)
		}
		binary.LittleEndian.PutUint64(buf[off+1:], uint64(ref))
		off += 9
		for d := 0; d < dims; d++ {
			binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(e.MBR.Lower(d)))
			binary.LittleEndian.PutUint64(buf[off+8:], math.Float64bits(e.MBR.Upper(d)))
			off += 16
		}
	}
	return buf, nil
}

func decodeNode(buf []byte, dims int) (*index.Node, error) {
	if len(buf) < nodeHeaderSize {
		return nil, errShortPayload
	}
	n := &index.Node{
		Level: int(binary.LittleEndian.Uint32(buf[0:])),
		ID:    model.NodeID(binary.LittleEndian.Uint64(buf[4:])),
	}
	count := int(binary.LittleEndian.Uint32(buf[12:]))
	if len(buf) < nodeSize(count, dims) {
		return nil, errShortPayload
	}

	n.Entries = make([]index.Entry, count)
	off := nodeHeaderSize
	bounds := make([]geom.Bound, dims)
	for i := range n.Entries {
		kind := index.Kind(buf[off])
		ref := int64(binary.LittleEndian.Uint64(buf[off+1:]))
		off += 9
		for d := range bounds {
			bounds[d] = geom.Bound{
				Lower: math.Float64frombits(binary.LittleEndian.Uint64(buf[off:])),
				Upper: math.Float64frombits(binary.LittleEndian.Uint64(buf[off+8:])),
			}
			off += 16
		}
		mbr, err := geom.New(bounds)
		if err != nil {
			return nil, err
		}
		switch kind {
		case index.KindInternal:
			n.Entries[i] = index.NewInternalEntry(model.NodeID(ref), mbr)
		case index.KindLeaf:
			n.Entries[i] = index.NewLeafEntry(model.BlockID(ref), mbr)
		default:
			return nil, fmt.Errorf("unknown entry kind %d", kind)
		}
	}
	return n, nil
}

func encodeRecords(records []model.Record, dims int) ([]byte, error) {
	buf := make([]byte, recordsSize(records))
	binary.LittleEndian.PutUint32(buf[0:], uint32(len(records)))
	off := 4
	for _, r := range records {
		if len(r.Coords) != dims {
			return nil, &index.ErrDimensionMismatch{Expected: dims, Actual: len(r.Coords)}
		}
		if len(r.Name) > maxNameLen {
			return nil, fmt.Errorf("%w: name of record %d is longer than %d bytes", index.ErrInvalidArgument, r.ID, maxNameLen)
		}
		binary.LittleEndian.PutUint64(buf[off:], uint64(r.ID))
		binary.LittleEndian.PutUint16(buf[off+8:], uint16(len(r.Name)))
		off += recordHeaderSize
		off += copy(buf[off:], r.Name)
		for _, c := range r.Coords {
			binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(c))
			off += 8
		}
	}
	return buf, nil
}

func decodeRecords(buf []byte, dims int) ([]model.Record, error) {
	if len(buf) < 4 {
		return nil, errShortPayload
	}
	count := int(binary.LittleEndian.Uint32(buf[0:]))
	records := make([]model.Record, 0, count)
	off := 4
	for i := 0; i < count; i++ {
		if len(buf) < off+recordHeaderSize {
			return nil, errShortPayload
		}
		id := model.RecordID(binary.LittleEndian.Uint64(buf[off:]))
		nameLen := int(binary.LittleEndian.Uint16(buf[off+8:]))
		off += recordHeaderSize
		if len(buf) < off+nameLen+8*dims {
			return nil, errShortPayload
		}
		name := string(buf[off : off+nameLen])
		off += nameLen
		coords := make([]float64, dims)
		for d := range coords {
			coords[d] = math.Float64frombits(binary.LittleEndian.Uint64(buf[off:]))
			off += 8
		}
		records = append(records, model.Record{ID: id, Name: name, Coords: coords})
	}
	return records, nil
}
