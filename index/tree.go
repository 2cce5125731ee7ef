package index

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hupe1980/rstar/geom"
	"github.com/hupe1980/rstar/model"
)

// Tree is an R*-tree over a Store. It holds the index-wide state: height,
// per-insertion reinsertion flags and the record index.
//
// A Tree is not safe for concurrent use; callers serialize mutations.
type Tree struct {
	store  Store
	dims   int
	logger *slog.Logger

	maxEntries    int
	minEntries    int
	reinsertCount int

	height  int
	records *RecordIndex

	// reinserted marks levels that already performed forced reinsertion during
	// the current top-level insertion.
	reinserted map[int]bool
	// pending holds entries removed by forced reinsertion, in far-to-near order.
	pending []pendingEntry
}

type pendingEntry struct {
	entry Entry
	level int
}

// New opens the tree stored in store. An empty store gets an empty leaf root.
// The record index starts empty; call RebuildRecordIndex to enable deletion of
// records indexed by a previous process.
func New(ctx context.Context, store Store, dims int, optFns ...Option) (*Tree, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive, got %d", ErrInvalidArgument, dims)
	}
	opts := applyOptions(optFns)
	if opts.maxEntries < 3 {
		return nil, fmt.Errorf("%w: max entries must be at least 3, got %d", ErrInvalidArgument, opts.maxEntries)
	}

	t := &Tree{
		store:         store,
		dims:          dims,
		logger:        opts.logger,
		maxEntries:    opts.maxEntries,
		minEntries:    minEntriesFor(opts.maxEntries),
		reinsertCount: reinsertCountFor(opts.maxEntries),
		records:       NewRecordIndex(),
		reinserted:    make(map[int]bool),
	}

	h, err := store.Height(ctx)
	if err != nil {
		return nil, fmt.Errorf("read height: %w", err)
	}
	if h == 0 {
		if err := t.resetRoot(ctx); err != nil {
			return nil, err
		}
		return t, nil
	}

	root, err := store.ReadNode(ctx, RootID)
	if err != nil {
		return nil, fmt.Errorf("read root: %w", err)
	}
	if root.Level != h {
		return nil, invariantf("open", "root level %d does not match height %d", root.Level, h)
	}
	t.height = h
	return t, nil
}

func (t *Tree) resetRoot(ctx context.Context) error {
	root := &Node{ID: RootID, Level: LeafLevel}
	t.height = LeafLevel
	if err := t.store.UpdateNode(ctx, root, t.height); err != nil {
		return fmt.Errorf("write root: %w", err)
	}
	return nil
}

// Dims returns the dimensionality of the indexed records.
func (t *Tree) Dims() int { return t.dims }

// Height returns the level of the root.
func (t *Tree) Height() int { return t.height }

// MaxEntries returns the node capacity M.
func (t *Tree) MaxEntries() int { return t.maxEntries }

// MinEntries returns the minimum fill m of non-root nodes.
func (t *Tree) MinEntries() int { return t.minEntries }

// Records returns the record index.
func (t *Tree) Records() *RecordIndex { return t.records }

// Store returns the underlying store.
func (t *Tree) Store() Store { return t.store }

// Root reads the root node.
func (t *Tree) Root(ctx context.Context) (*Node, error) {
	return t.store.ReadNode(ctx, RootID)
}

// Flush commits buffered node writes.
func (t *Tree) Flush(ctx context.Context) error {
	return t.store.Flush(ctx)
}

func (t *Tree) writeNode(ctx context.Context, n *Node) error {
	if err := t.store.UpdateNode(ctx, n, t.height); err != nil {
		return fmt.Errorf("update node %d: %w", n.ID, err)
	}
	return nil
}

func (t *Tree) checkDims(coords []float64) error {
	if len(coords) != t.dims {
		return &ErrDimensionMismatch{Expected: t.dims, Actual: len(coords)}
	}
	if i := geom.NonFinite(coords); i >= 0 {
		return fmt.Errorf("%w: coordinate %d is %g", ErrInvalidArgument, i, coords[i])
	}
	return nil
}

// RebuildRecordIndex replaces the record index by scanning every leaf entry
// and its data block.
func (t *Tree) RebuildRecordIndex(ctx context.Context) error {
	t.records.Reset()
	return t.walkLeafEntries(ctx, func(e Entry) error {
		recs, err := t.store.ReadDataBlock(ctx, e.Block)
		if err != nil {
			return fmt.Errorf("read data block %d: %w", e.Block, err)
		}
		for _, r := range recs {
			t.records.Set(r.ID, e.Block)
		}
		return nil
	})
}

// walkLeafEntries visits every leaf entry depth-first.
func (t *Tree) walkLeafEntries(ctx context.Context, fn func(Entry) error) error {
	var walk func(id model.NodeID) error
	walk = func(id model.NodeID) error {
		n, err := t.store.ReadNode(ctx, id)
		if err != nil {
			return fmt.Errorf("read node %d: %w", id, err)
		}
		for _, e := range n.Entries {
			if e.IsLeaf() {
				if err := fn(e); err != nil {
					return err
				}
				continue
			}
			if err := walk(e.Child); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(RootID)
}
