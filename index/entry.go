package index

import (
	"fmt"

	"github.com/hupe1980/rstar/geom"
	"github.com/hupe1980/rstar/model"
)

// Kind tags the Entry variant.
type Kind uint8

const (
	// KindInternal entries reference a child node.
	KindInternal Kind = iota + 1
	// KindLeaf entries reference a data block.
	KindLeaf
)

func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "internal"
	case KindLeaf:
		return "leaf"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Entry is a slot of a node. Child is set for KindInternal and Block for
// KindLeaf; the other reference is zero.
type Entry struct {
	Kind  Kind
	MBR   geom.MBR
	Child model.NodeID
	Block model.BlockID
}

// NewInternalEntry returns an entry pointing at a child node.
func NewInternalEntry(child model.NodeID, mbr geom.MBR) Entry {
	return Entry{Kind: KindInternal, MBR: mbr, Child: child}
}

// NewLeafEntry returns an entry pointing at a data block.
func NewLeafEntry(block model.BlockID, mbr geom.MBR) Entry {
	return Entry{Kind: KindLeaf, MBR: mbr, Block: block}
}

// IsLeaf reports whether the entry references a data block.
func (e Entry) IsLeaf() bool { return e.Kind == KindLeaf }

// AdjustToFit replaces the entry's MBR with the minimum bounds of entries.
func (e *Entry) AdjustToFit(entries []Entry) {
	e.MBR = entriesMBR(entries)
}

// AdjustToInclude grows the entry's MBR to enclose other.
func (e *Entry) AdjustToInclude(other Entry) {
	e.MBR = geom.Union(e.MBR, other.MBR)
}

func (e Entry) String() string {
	if e.Kind == KindLeaf {
		return fmt.Sprintf("leaf(block=%d %s)", e.Block, e.MBR)
	}
	return fmt.Sprintf("internal(child=%d %s)", e.Child, e.MBR)
}

func entriesMBR(entries []Entry) geom.MBR {
	mbrs := make([]geom.MBR, len(entries))
	for i := range entries {
		mbrs[i] = entries[i].MBR
	}
	return geom.MinimumBounds(mbrs...)
}

// RecordsMBR returns the tight bound of the records' coordinates.
func RecordsMBR(records []model.Record) geom.MBR {
	pts := make([][]float64, len(records))
	for i := range records {
		pts[i] = records[i].Coords
	}
	return geom.FromPoints(pts...)
}
