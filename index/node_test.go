package index

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/rstar/geom"
	"github.com/hupe1980/rstar/model"
)

func pointEntries(points ...[]float64) []Entry {
	out := make([]Entry, len(points))
	for i, p := range points {
		out[i] = NewLeafEntry(model.BlockID(i+1), geom.FromPoint(p))
	}
	return out
}

func TestNode_Split(t *testing.T) {
	n := &Node{ID: RootID, Level: LeafLevel, Entries: pointEntries(
		[]float64{0, 0}, []float64{1, 1}, []float64{2, 2}, []float64{3, 3}, []float64{4, 4},
	)}

	left, right, err := n.Split(2)
	require.NoError(t, err)
	assert.Equal(t, LeafLevel, left.Level)
	assert.Equal(t, LeafLevel, right.Level)
	assert.Zero(t, left.ID)
	assert.Len(t, append(left.Entries, right.Entries...), 5)
	assert.GreaterOrEqual(t, len(left.Entries), 2)
	assert.GreaterOrEqual(t, len(right.Entries), 2)
	assert.Zero(t, geom.OverlapVolume(left.MBR(), right.MBR()))
	assert.False(t, geom.Overlaps(left.MBR(), right.MBR()))

	// Both distributions tie on overlap and area; the first one wins.
	assert.Len(t, left.Entries, 2)
	assert.Len(t, n.Entries, 5, "split leaves the input untouched")
}

func TestNode_SplitPicksSeparatingAxis(t *testing.T) {
	// Two clusters separated along y only.
	n := &Node{Level: LeafLevel, Entries: pointEntries(
		[]float64{0, 0}, []float64{5, 0.5}, []float64{9, 0.2},
		[]float64{1, 100}, []float64{6, 100.5},
	)}
	left, right, err := n.Split(2)
	require.NoError(t, err)

	ys := func(nd *Node) (lo, hi float64) {
		m := nd.MBR()
		return m.Lower(1), m.Upper(1)
	}
	_, leftHi := ys(left)
	rightLo, _ := ys(right)
	assert.Less(t, leftHi, rightLo)
}

func TestNode_SplitErrors(t *testing.T) {
	n := &Node{Level: LeafLevel, Entries: pointEntries([]float64{0}, []float64{1}, []float64{2})}
	_, _, err := n.Split(2)
	assert.ErrorIs(t, err, ErrInvariant)

	var ie *InvariantError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "split", ie.Op)

	_, _, err = n.Split(0)
	assert.ErrorIs(t, err, ErrInvariant)
}

func TestEntry_Adjust(t *testing.T) {
	e := NewInternalEntry(2, geom.FromPoint([]float64{0, 0}))
	e.AdjustToInclude(NewLeafEntry(1, geom.FromPoint([]float64{3, -1})))
	assert.Equal(t, 0.0, e.MBR.Lower(0))
	assert.Equal(t, 3.0, e.MBR.Upper(0))
	assert.Equal(t, -1.0, e.MBR.Lower(1))

	e.AdjustToFit(pointEntries([]float64{1, 1}, []float64{2, 2}))
	assert.True(t, e.MBR.Equal(geom.FromPoints([]float64{1, 1}, []float64{2, 2})))

	assert.Equal(t, "internal", KindInternal.String())
	assert.Contains(t, NewLeafEntry(7, geom.FromPoint([]float64{1})).String(), "block=7")
}

func TestRecordIndex(t *testing.T) {
	r := NewRecordIndex()
	r.Set(3, 30)
	r.Set(1, 10)
	r.Set(2, 20)
	r.Set(1, 11)

	b, ok := r.Get(1)
	assert.True(t, ok)
	assert.Equal(t, model.BlockID(11), b)
	assert.Equal(t, 3, r.Len())

	var ids []model.RecordID
	r.Ascend(func(id model.RecordID, _ model.BlockID) bool {
		ids = append(ids, id)
		return id < 2
	})
	assert.Equal(t, []model.RecordID{1, 2}, ids)

	assert.True(t, r.Delete(2))
	assert.False(t, r.Delete(2))
	assert.False(t, r.Has(2))

	r.Reset()
	assert.Equal(t, 0, r.Len())
}

func TestRecordsMBR(t *testing.T) {
	mbr := RecordsMBR([]model.Record{
		{ID: 1, Coords: []float64{1, 5}},
		{ID: 2, Coords: []float64{-2, 3}},
	})
	assert.Equal(t, -2.0, mbr.Lower(0))
	assert.Equal(t, 1.0, mbr.Upper(0))
	assert.Equal(t, 3.0, mbr.Lower(1))
	assert.Equal(t, 5.0, mbr.Upper(1))
}

func TestOptions(t *testing.T) {
	assert.Equal(t, 2, minEntriesFor(4))
	assert.Equal(t, 1, reinsertCountFor(4))
	assert.Equal(t, 3, minEntriesFor(5))
	assert.Equal(t, 15, reinsertCountFor(50))
	assert.Equal(t, 0, reinsertCountFor(3))
}
