package index

import (
	"context"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/rstar/model"
)

// LevelStats counts nodes and entries on one level.
type LevelStats struct {
	Level   int
	Nodes   int
	Entries int
}

// Stats summarizes the tree shape.
type Stats struct {
	Height int
	// Levels is ordered from the root down to the leaves.
	Levels      []LevelStats
	Nodes       int
	LeafEntries int
	Records     int
}

// Stats walks the tree breadth-first.
func (t *Tree) Stats(ctx context.Context) (Stats, error) {
	s := Stats{Height: t.height, Records: t.records.Len()}
	frontier := []model.NodeID{RootID}
	for len(frontier) > 0 {
		var (
			next []model.NodeID
			ls   LevelStats
		)
		for _, id := range frontier {
			n, err := t.store.ReadNode(ctx, id)
			if err != nil {
				return Stats{}, fmt.Errorf("read node %d: %w", id, err)
			}
			ls.Level = n.Level
			ls.Nodes++
			ls.Entries += len(n.Entries)
			for _, e := range n.Entries {
				if e.IsLeaf() {
					s.LeafEntries++
				} else {
					next = append(next, e.Child)
				}
			}
		}
		s.Levels = append(s.Levels, ls)
		s.Nodes += ls.Nodes
		frontier = next
	}
	return s, nil
}

// Validate checks the structural invariants of the whole tree and returns an
// *InvariantError describing the first violation:
//
//   - the root is at the recorded height and every leaf at LeafLevel
//   - non-root nodes hold between MinEntries and MaxEntries entries
//   - every internal entry's MBR equals the bound of its child
//   - every leaf entry's MBR equals the bound of its data block
//   - no data block is referenced twice
//   - every record index mapping points at a referenced data block
func (t *Tree) Validate(ctx context.Context) error {
	root, err := t.store.ReadNode(ctx, RootID)
	if err != nil {
		return fmt.Errorf("read root: %w", err)
	}
	if root.Level != t.height {
		return invariantf("validate", "root level %d, height %d", root.Level, t.height)
	}
	if len(root.Entries) > t.maxEntries {
		return invariantf("validate", "root holds %d entries", len(root.Entries))
	}
	if !root.IsLeaf() && len(root.Entries) < 2 {
		return invariantf("validate", "internal root holds %d entries", len(root.Entries))
	}

	blocks := roaring64.New()
	var check func(n *Node) error
	check = func(n *Node) error {
		for _, e := range n.Entries {
			if n.IsLeaf() {
				if !e.IsLeaf() {
					return invariantf("validate", "leaf node %d holds %s entry", n.ID, e.Kind)
				}
				if !blocks.CheckedAdd(uint64(e.Block)) {
					return invariantf("validate", "data block %d referenced twice", e.Block)
				}
				recs, err := t.store.ReadDataBlock(ctx, e.Block)
				if err != nil {
					return fmt.Errorf("read data block %d: %w", e.Block, err)
				}
				if len(recs) == 0 {
					return invariantf("validate", "leaf entry references empty data block %d", e.Block)
				}
				if !RecordsMBR(recs).Equal(e.MBR) {
					return invariantf("validate", "leaf entry for block %d is not tight", e.Block)
				}
				continue
			}
			if e.IsLeaf() {
				return invariantf("validate", "internal node %d holds leaf entry", n.ID)
			}
			child, err := t.store.ReadNode(ctx, e.Child)
			if err != nil {
				return fmt.Errorf("read node %d: %w", e.Child, err)
			}
			if child.Level != n.Level-1 {
				return invariantf("validate", "node %d at level %d under level %d", child.ID, child.Level, n.Level)
			}
			if l := len(child.Entries); l < t.minEntries || l > t.maxEntries {
				return invariantf("validate", "node %d holds %d entries, want %d..%d", child.ID, l, t.minEntries, t.maxEntries)
			}
			if !child.MBR().Equal(e.MBR) {
				return invariantf("validate", "entry for node %d is not tight: %s vs %s", child.ID, e.MBR, child.MBR())
			}
			if err := check(child); err != nil {
				return err
			}
		}
		return nil
	}
	if err := check(root); err != nil {
		return err
	}

	var stale error
	t.records.Ascend(func(id model.RecordID, block model.BlockID) bool {
		if !blocks.Contains(uint64(block)) {
			stale = invariantf("validate", "record %d maps to unreferenced data block %d", id, block)
			return false
		}
		return true
	})
	return stale
}
