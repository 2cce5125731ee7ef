package index

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/hupe1980/rstar/model"
)

// pathStep is one node on a root-to-leaf path together with the position of
// the entry leading to the next step (or of the leaf entry at the end).
type pathStep struct {
	node *Node
	idx  int
}

// Delete removes a record from its data block and from the tree. When the
// block becomes empty its leaf entry is removed and underfull nodes are
// condensed; otherwise the leaf entry shrinks to the remaining records.
func (t *Tree) Delete(ctx context.Context, id model.RecordID) error {
	block, ok := t.records.Get(id)
	if !ok {
		return fmt.Errorf("%w: record %d is not indexed", ErrNotFound, id)
	}

	records, err := t.store.ReadDataBlock(ctx, block)
	if err != nil {
		return fmt.Errorf("read data block %d: %w", block, err)
	}
	i := slices.IndexFunc(records, func(r model.Record) bool { return r.ID == id })
	if i < 0 {
		return fmt.Errorf("%w: record %d not in data block %d", ErrNotFound, id, block)
	}
	point := records[i].Coords

	path, err := t.findLeaf(ctx, RootID, block, point)
	if err != nil {
		return err
	}
	if path == nil {
		return fmt.Errorf("%w: no leaf entry for data block %d", ErrNotFound, block)
	}

	remaining, err := t.store.DeleteRecordFromBlock(ctx, block, id)
	if err != nil {
		return fmt.Errorf("delete record %d from block %d: %w", id, block, err)
	}

	leaf := path[len(path)-1]
	if len(remaining) > 0 {
		leaf.node.Entries[leaf.idx].MBR = RecordsMBR(remaining)
	} else {
		leaf.node.Entries = slices.Delete(leaf.node.Entries, leaf.idx, leaf.idx+1)
	}

	if err := t.condense(ctx, path); err != nil {
		return err
	}
	t.records.Delete(id)
	return nil
}

// findLeaf searches depth-first, following only entries that contain point,
// for the leaf entry referencing block.
func (t *Tree) findLeaf(ctx context.Context, id model.NodeID, block model.BlockID, point []float64) ([]pathStep, error) {
	node, err := t.store.ReadNode(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: child node %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("read node %d: %w", id, err)
	}

	if node.IsLeaf() {
		for i, e := range node.Entries {
			if e.IsLeaf() && e.Block == block {
				return []pathStep{{node: node, idx: i}}, nil
			}
		}
		return nil, nil
	}

	for i, e := range node.Entries {
		if !e.MBR.ContainsPoint(point) {
			continue
		}
		sub, err := t.findLeaf(ctx, e.Child, block, point)
		if err != nil {
			return nil, err
		}
		if sub != nil {
			return append([]pathStep{{node: node, idx: i}}, sub...), nil
		}
	}
	return nil, nil
}

// condense walks the path bottom-up after a removal. Underfull non-root nodes
// are detached and their entries reinserted at the node's level; the others
// are written back and tighten their parent entry.
func (t *Tree) condense(ctx context.Context, path []pathStep) error {
	var orphans []pendingEntry

	for i := len(path) - 1; i > 0; i-- {
		n := path[i].node
		parent := path[i-1]
		if len(n.Entries) < t.minEntries {
			parent.node.Entries = slices.Delete(parent.node.Entries, parent.idx, parent.idx+1)
			for _, e := range n.Entries {
				orphans = append(orphans, pendingEntry{entry: e, level: n.Level})
			}
			continue
		}
		if err := t.writeNode(ctx, n); err != nil {
			return err
		}
		parent.node.Entries[parent.idx].AdjustToFit(n.Entries)
	}

	if err := t.compactRoot(ctx, path[0].node); err != nil {
		return err
	}

	for _, o := range orphans {
		if err := t.insertTop(ctx, o.entry, o.level); err != nil {
			return fmt.Errorf("reinsert orphan: %w", err)
		}
	}
	if len(orphans) > 0 {
		t.logger.Debug("condensed tree", "orphans", len(orphans), "height", t.height)
	}
	return nil
}

// compactRoot replaces an internal root holding a single entry by its child
// until the root is a leaf or has at least two entries, then writes it.
func (t *Tree) compactRoot(ctx context.Context, root *Node) error {
	for root.Level > LeafLevel && len(root.Entries) == 1 {
		child, err := t.store.ReadNode(ctx, root.Entries[0].Child)
		if err != nil {
			return fmt.Errorf("read node %d: %w", root.Entries[0].Child, err)
		}
		root = &Node{ID: RootID, Level: child.Level, Entries: child.Entries}
		t.logger.Debug("root compacted", "height", root.Level)
	}
	if root.Level > LeafLevel && len(root.Entries) == 0 {
		root = &Node{ID: RootID, Level: LeafLevel}
	}
	t.height = root.Level
	return t.writeNode(ctx, root)
}
