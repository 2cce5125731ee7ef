package index

import (
	"context"
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/rstar/geom"
	"github.com/hupe1980/rstar/model"
)

// memStore is a map backed Store that counts the nodes it allocates.
type memStore struct {
	nodes     map[model.NodeID]*Node
	blocks    map[model.BlockID][]model.Record
	height    int
	nextNode  model.NodeID
	nextBlock model.BlockID
	newNodes  int
}

func newMemStore() *memStore {
	return &memStore{
		nodes:     make(map[model.NodeID]*Node),
		blocks:    make(map[model.BlockID][]model.Record),
		nextNode:  RootID + 1,
		nextBlock: 1,
	}
}

func (s *memStore) ReadNode(_ context.Context, id model.NodeID) (*Node, error) {
	n, ok := s.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: node %d", ErrNotFound, id)
	}
	return n.Clone(), nil
}

func (s *memStore) ReadDataBlock(_ context.Context, id model.BlockID) ([]model.Record, error) {
	recs, ok := s.blocks[id]
	if !ok {
		return nil, fmt.Errorf("%w: data block %d", ErrNotFound, id)
	}
	return slices.Clone(recs), nil
}

func (s *memStore) WriteNewNode(_ context.Context, n *Node) (model.NodeID, error) {
	n.ID = s.nextNode
	s.nextNode++
	s.newNodes++
	s.nodes[n.ID] = n.Clone()
	return n.ID, nil
}

func (s *memStore) UpdateNode(_ context.Context, n *Node, height int) error {
	s.nodes[n.ID] = n.Clone()
	s.height = height
	return nil
}

func (s *memStore) Height(context.Context) (int, error) { return s.height, nil }

func (s *memStore) WriteDataBlock(_ context.Context, records []model.Record) (model.BlockID, error) {
	id := s.nextBlock
	s.nextBlock++
	s.blocks[id] = slices.Clone(records)
	return id, nil
}

func (s *memStore) DeleteRecordFromBlock(_ context.Context, block model.BlockID, id model.RecordID) ([]model.Record, error) {
	recs, ok := s.blocks[block]
	if !ok {
		return nil, fmt.Errorf("%w: data block %d", ErrNotFound, block)
	}
	i := slices.IndexFunc(recs, func(r model.Record) bool { return r.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("%w: record %d in data block %d", ErrNotFound, id, block)
	}
	recs = slices.Delete(slices.Clone(recs), i, i+1)
	s.blocks[block] = recs
	return slices.Clone(recs), nil
}

func (s *memStore) Flush(context.Context) error { return nil }

// seed writes a height 2 tree with one leaf per point set, each point in its
// own data block. Leaves get node ids 2, 3, ... and blocks are numbered in
// point order from 1.
func (s *memStore) seed(t *testing.T, leaves ...[][]float64) {
	t.Helper()
	ctx := context.Background()
	root := &Node{ID: RootID, Level: LeafLevel + 1}
	id := model.RecordID(1)
	for _, pts := range leaves {
		leaf := &Node{Level: LeafLevel}
		for _, p := range pts {
			block, err := s.WriteDataBlock(ctx, []model.Record{{ID: id, Coords: p}})
			require.NoError(t, err)
			leaf.Entries = append(leaf.Entries, NewLeafEntry(block, geom.FromPoint(p)))
			id++
		}
		child, err := s.WriteNewNode(ctx, leaf)
		require.NoError(t, err)
		root.Entries = append(root.Entries, NewInternalEntry(child, leaf.MBR()))
	}
	require.NoError(t, s.UpdateNode(ctx, root, root.Level))
	s.newNodes = 0
}

func blocksOf(n *Node) []model.BlockID {
	out := make([]model.BlockID, len(n.Entries))
	for i, e := range n.Entries {
		out[i] = e.Block
	}
	return out
}

func TestInsert_ForcedReinsertionMovesFarthestEntry(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.seed(t,
		[][]float64{{0, 1}, {1, 0}, {1, 1}, {6, 6}},
		[][]float64{{7, 7}, {8, 8}},
	)
	tree, err := New(ctx, s, 2)
	require.NoError(t, err)
	require.Equal(t, 2, tree.Height())

	// The fifth entry overflows leaf 2. (6,6) lies farthest from its center
	// and fits leaf 3 with less enlargement, so nothing has to split.
	require.NoError(t, tree.Insert(ctx, model.Record{ID: 100, Coords: []float64{1.5, 1.5}}))

	assert.Zero(t, s.newNodes, "no node split")
	assert.True(t, tree.reinserted[LeafLevel])
	assert.Empty(t, tree.pending)
	assert.Equal(t, 2, tree.Height())

	assert.ElementsMatch(t, []model.BlockID{1, 2, 3, 7}, blocksOf(s.nodes[2]))
	assert.ElementsMatch(t, []model.BlockID{5, 6, 4}, blocksOf(s.nodes[3]))
	require.Len(t, s.nodes[RootID].Entries, 2)
	require.NoError(t, tree.Validate(ctx))
}

func TestInsert_ForcedReinsertionOncePerLevel(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.seed(t,
		[][]float64{{0, 1}, {1, 0}, {1, 1}, {3, 3}},
		[][]float64{{10, 10}, {11, 11}},
	)
	tree, err := New(ctx, s, 2)
	require.NoError(t, err)

	// (3,3) is reinserted into the same leaf, which then overflows a second
	// time within one insertion and splits.
	require.NoError(t, tree.Insert(ctx, model.Record{ID: 100, Coords: []float64{1.5, 1.5}}))

	assert.Equal(t, 1, s.newNodes, "exactly one split")
	assert.True(t, tree.reinserted[LeafLevel])
	assert.Equal(t, 2, tree.Height())
	assert.Len(t, s.nodes[RootID].Entries, 3)
	require.NoError(t, tree.Validate(ctx))

	// The next insertion starts with fresh flags.
	require.NoError(t, tree.Insert(ctx, model.Record{ID: 101, Coords: []float64{10.5, 10.5}}))
	assert.False(t, tree.reinserted[LeafLevel], "leaf 3 had room")
	require.NoError(t, tree.Validate(ctx))
}

func TestInsert_RootOverflowSplits(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	tree, err := New(ctx, s, 2)
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		require.NoError(t, tree.Insert(ctx, model.Record{ID: model.RecordID(i), Coords: []float64{float64(i), float64(i)}}))
	}
	assert.False(t, tree.reinserted[LeafLevel], "the root never reinserts")
	assert.Equal(t, 2, s.newNodes)
	assert.Equal(t, 2, tree.Height())
	require.NoError(t, tree.Validate(ctx))
}

func TestChooseSubtree_CandidateCut(t *testing.T) {
	// 32 staircase boxes share the corner (1,1) and shadow each other when
	// grown towards the origin, so each has positive overlap enlargement.
	// The far box at index 32 gains no overlap but needs a lot of area.
	node := &Node{ID: RootID, Level: LeafLevel + 1}
	for k := 0; k < ChooseSubtreeCandidates; k++ {
		lower := []float64{0.05 + 0.001*float64(k), 0.05 + 0.001*float64(ChooseSubtreeCandidates-1-k)}
		node.Entries = append(node.Entries, NewInternalEntry(model.NodeID(k+2), geom.FromPoints(lower, []float64{1, 1})))
	}
	far := len(node.Entries)
	node.Entries = append(node.Entries, NewInternalEntry(model.NodeID(far+2), geom.FromPoints([]float64{-100, -0.5}, []float64{-99, 0.5})))
	e := NewLeafEntry(1, geom.FromPoint([]float64{0, 0}))

	large := &Tree{maxEntries: 40}
	idx, err := large.chooseSubtree(node, e, LeafLevel)
	require.NoError(t, err)
	assert.Less(t, idx, far, "far box is not among the least area enlargements")

	small := &Tree{maxEntries: ChooseSubtreeCandidates * 2 / 3}
	idx, err = small.chooseSubtree(node, e, LeafLevel)
	require.NoError(t, err)
	assert.Equal(t, far, idx, "every entry is considered")
}

func TestChooseSubtree_AboveParentOfLeaves(t *testing.T) {
	// Above the parent level of the target only area enlargement counts.
	node := &Node{ID: RootID, Level: LeafLevel + 2, Entries: []Entry{
		NewInternalEntry(2, geom.FromPoints([]float64{0, 0}, []float64{4, 4})),
		NewInternalEntry(3, geom.FromPoints([]float64{5, 0}, []float64{6, 1})),
	}}
	tree := &Tree{maxEntries: DefaultMaxEntries}
	idx, err := tree.chooseSubtree(node, NewLeafEntry(1, geom.FromPoint([]float64{4.5, 0.5})), LeafLevel)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}
