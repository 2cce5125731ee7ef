package query

import (
	"context"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/rstar/geom"
	"github.com/hupe1980/rstar/index"
	"github.com/hupe1980/rstar/model"
)

// Range returns every record whose coordinates lie inside box on every
// dimension, in traversal order.
func Range(ctx context.Context, r Reader, box geom.MBR) ([]model.Record, Stats, error) {
	var st Stats
	if box.Dims() != r.Dims() {
		return nil, st, &index.ErrDimensionMismatch{Expected: r.Dims(), Actual: box.Dims()}
	}

	var (
		out  []model.Record
		seen = roaring64.New()
	)
	var visit func(id model.NodeID) error
	visit = func(id model.NodeID) error {
		n, err := r.ReadNode(ctx, id)
		if err != nil {
			return fmt.Errorf("read node %d: %w", id, err)
		}
		st.NodesRead++
		for _, e := range n.Entries {
			if !geom.Overlaps(e.MBR, box) {
				continue
			}
			if !e.IsLeaf() {
				if err := visit(e.Child); err != nil {
					return err
				}
				continue
			}
			recs, err := r.ReadDataBlock(ctx, e.Block)
			if err != nil {
				return fmt.Errorf("read data block %d: %w", e.Block, err)
			}
			st.BlocksRead++
			for _, rec := range recs {
				if box.ContainsPoint(rec.Coords) && seen.CheckedAdd(uint64(rec.ID)) {
					out = append(out, rec)
				}
			}
		}
		return nil
	}
	if err := visit(index.RootID); err != nil {
		return nil, st, err
	}
	return out, st, nil
}

// LinearRange answers Range by scanning every data block.
func LinearRange(ctx context.Context, s Scanner, box geom.MBR) ([]model.Record, error) {
	if box.Dims() != s.Dims() {
		return nil, &index.ErrDimensionMismatch{Expected: s.Dims(), Actual: box.Dims()}
	}
	var out []model.Record
	err := s.ScanDataBlocks(ctx, func(_ model.BlockID, recs []model.Record) error {
		for _, rec := range recs {
			if box.ContainsPoint(rec.Coords) {
				out = append(out, rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
