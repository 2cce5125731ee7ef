package index

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/hupe1980/rstar/geom"
	"github.com/hupe1980/rstar/model"
)

type insertStatus uint8

const (
	insertNoChange insertStatus = iota
	insertSplit
	insertNewRoot
)

// insertResult reports what happened below a node during recursive insertion.
type insertResult struct {
	status insertStatus
	// node is the visited node as written, the left half after a split.
	node *Node
	// sibling is the entry for the new right node of a split.
	sibling Entry
}

// Insert writes rec to a fresh data block and indexes it.
func (t *Tree) Insert(ctx context.Context, rec model.Record) error {
	if err := t.checkDims(rec.Coords); err != nil {
		return err
	}
	if t.records.Has(rec.ID) {
		return fmt.Errorf("%w: duplicate record id %d", ErrInvalidArgument, rec.ID)
	}

	block, err := t.store.WriteDataBlock(ctx, []model.Record{rec})
	if err != nil {
		return fmt.Errorf("write data block: %w", err)
	}
	if err := t.insertTop(ctx, NewLeafEntry(block, geom.FromPoint(rec.Coords)), LeafLevel); err != nil {
		return err
	}
	t.records.Set(rec.ID, block)
	return nil
}

// InsertBlock indexes an existing data block holding records as one leaf entry.
func (t *Tree) InsertBlock(ctx context.Context, block model.BlockID, records []model.Record) error {
	if len(records) == 0 {
		return fmt.Errorf("%w: data block %d is empty", ErrInvalidArgument, block)
	}
	for _, r := range records {
		if err := t.checkDims(r.Coords); err != nil {
			return err
		}
		if t.records.Has(r.ID) {
			return fmt.Errorf("%w: duplicate record id %d", ErrInvalidArgument, r.ID)
		}
	}
	if err := t.insertTop(ctx, NewLeafEntry(block, RecordsMBR(records)), LeafLevel); err != nil {
		return err
	}
	for _, r := range records {
		t.records.Set(r.ID, block)
	}
	return nil
}

// insertTop runs one top-level insertion: it resets the reinsertion flags and
// drains the entries queued by forced reinsertion.
func (t *Tree) insertTop(ctx context.Context, e Entry, level int) error {
	clear(t.reinserted)
	t.pending = append(t.pending[:0], pendingEntry{entry: e, level: level})
	for len(t.pending) > 0 {
		p := t.pending[0]
		t.pending = t.pending[1:]
		if err := t.insertFromRoot(ctx, p.entry, p.level); err != nil {
			t.pending = t.pending[:0]
			return err
		}
	}
	return nil
}

func (t *Tree) insertFromRoot(ctx context.Context, e Entry, level int) error {
	if level < LeafLevel || level > t.height {
		return invariantf("insert", "target level %d outside tree of height %d", level, t.height)
	}
	if (level == LeafLevel) != e.IsLeaf() {
		return invariantf("insert", "%s entry cannot be placed at level %d", e.Kind, level)
	}
	_, err := t.insertAt(ctx, RootID, e, level)
	return err
}

func (t *Tree) insertAt(ctx context.Context, id model.NodeID, e Entry, level int) (insertResult, error) {
	node, err := t.store.ReadNode(ctx, id)
	if err != nil {
		return insertResult{}, fmt.Errorf("read node %d: %w", id, err)
	}
	if node.Level < level {
		return insertResult{}, invariantf("insert", "node %d at level %d is below target level %d", id, node.Level, level)
	}

	if node.Level == level {
		node.Entries = append(node.Entries, e)
	} else {
		idx, err := t.chooseSubtree(node, e, level)
		if err != nil {
			return insertResult{}, err
		}
		res, err := t.insertAt(ctx, node.Entries[idx].Child, e, level)
		if err != nil {
			return insertResult{}, err
		}
		node.Entries[idx].AdjustToFit(res.node.Entries)
		if res.status == insertSplit {
			node.Entries = append(node.Entries, res.sibling)
		}
	}

	if len(node.Entries) <= t.maxEntries {
		if err := t.writeNode(ctx, node); err != nil {
			return insertResult{}, err
		}
		return insertResult{status: insertNoChange, node: node}, nil
	}
	return t.overflow(ctx, node)
}

// chooseSubtree picks the entry of node to descend into for e destined for
// level. Ties on overlap enlargement fall back to area enlargement, then area.
func (t *Tree) chooseSubtree(node *Node, e Entry, level int) (int, error) {
	type candidate struct {
		idx        int
		overlapEnl float64
		areaEnl    float64
		area       float64
	}

	cands := make([]candidate, len(node.Entries))
	grown := make([]geom.MBR, len(node.Entries))
	for i, own := range node.Entries {
		g := own
		g.AdjustToInclude(e)
		grown[i] = g.MBR
		enl := g.MBR.Area() - own.MBR.Area()
		if enl < 0 {
			return 0, invariantf("choose subtree", "negative area enlargement %g", enl)
		}
		cands[i] = candidate{idx: i, areaEnl: enl, area: own.MBR.Area()}
	}
	byArea := func(a, b candidate) int {
		return cmp.Or(cmp.Compare(a.areaEnl, b.areaEnl), cmp.Compare(a.area, b.area))
	}

	if node.Level != level+1 {
		return slices.MinFunc(cands, byArea).idx, nil
	}

	if t.maxEntries > ChooseSubtreeCandidates*2/3 && len(cands) > ChooseSubtreeCandidates {
		slices.SortStableFunc(cands, byArea)
		cands = cands[:ChooseSubtreeCandidates]
	}
	for i := range cands {
		c := &cands[i]
		own := node.Entries[c.idx].MBR
		var before, after float64
		for j, other := range node.Entries {
			if j == c.idx {
				continue
			}
			before += geom.OverlapVolume(own, other.MBR)
			after += geom.OverlapVolume(grown[c.idx], other.MBR)
		}
		c.overlapEnl = after - before
		if c.overlapEnl < 0 {
			return 0, invariantf("choose subtree", "negative overlap enlargement %g", c.overlapEnl)
		}
	}
	best := slices.MinFunc(cands, func(a, b candidate) int {
		return cmp.Or(cmp.Compare(a.overlapEnl, b.overlapEnl), byArea(a, b))
	})
	return best.idx, nil
}

// overflow handles a node holding more than M entries.
func (t *Tree) overflow(ctx context.Context, node *Node) (insertResult, error) {
	if node.ID != RootID && t.reinsertCount > 0 && !t.reinserted[node.Level] {
		t.reinserted[node.Level] = true
		return t.forceReinsert(ctx, node)
	}
	return t.split(ctx, node)
}

// forceReinsert removes the entries farthest from the node's center and
// queues them, farthest first, for reinsertion at the node's level.
func (t *Tree) forceReinsert(ctx context.Context, node *Node) (insertResult, error) {
	if len(node.Entries) != t.maxEntries+1 {
		return insertResult{}, invariantf("reinsert", "node %d holds %d entries, want %d", node.ID, len(node.Entries), t.maxEntries+1)
	}

	nodeMBR := node.MBR()
	slices.SortStableFunc(node.Entries, func(a, b Entry) int {
		return cmp.Compare(geom.CenterDistance(b.MBR, nodeMBR), geom.CenterDistance(a.MBR, nodeMBR))
	})
	removed := slices.Clone(node.Entries[:t.reinsertCount])
	node.Entries = slices.Clone(node.Entries[t.reinsertCount:])

	if err := t.writeNode(ctx, node); err != nil {
		return insertResult{}, err
	}
	for _, e := range removed {
		t.pending = append(t.pending, pendingEntry{entry: e, level: node.Level})
	}
	t.logger.Debug("forced reinsertion", "node", node.ID, "level", node.Level, "entries", len(removed))

	return insertResult{status: insertNoChange, node: node}, nil
}

func (t *Tree) split(ctx context.Context, node *Node) (insertResult, error) {
	left, right, err := node.Split(t.minEntries)
	if err != nil {
		return insertResult{}, err
	}

	if node.ID != RootID {
		left.ID = node.ID
		if err := t.writeNode(ctx, left); err != nil {
			return insertResult{}, err
		}
		rightID, err := t.store.WriteNewNode(ctx, right)
		if err != nil {
			return insertResult{}, fmt.Errorf("write split node: %w", err)
		}
		return insertResult{
			status:  insertSplit,
			node:    left,
			sibling: NewInternalEntry(rightID, right.MBR()),
		}, nil
	}

	leftID, err := t.store.WriteNewNode(ctx, left)
	if err != nil {
		return insertResult{}, fmt.Errorf("write split node: %w", err)
	}
	rightID, err := t.store.WriteNewNode(ctx, right)
	if err != nil {
		return insertResult{}, fmt.Errorf("write split node: %w", err)
	}
	root := &Node{
		ID:    RootID,
		Level: node.Level + 1,
		Entries: []Entry{
			NewInternalEntry(leftID, left.MBR()),
			NewInternalEntry(rightID, right.MBR()),
		},
	}
	t.height = root.Level
	if err := t.writeNode(ctx, root); err != nil {
		return insertResult{}, err
	}
	t.logger.Debug("root split", "height", t.height, "left", leftID, "right", rightID)

	return insertResult{status: insertNewRoot, node: root}, nil
}
