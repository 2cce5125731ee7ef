package query

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/hupe1980/rstar/geom"
	"github.com/hupe1980/rstar/index"
	"github.com/hupe1980/rstar/internal/queue"
	"github.com/hupe1980/rstar/model"
)

// KNN returns the k records nearest to point in ascending distance. Fewer are
// returned when the index holds fewer than k records.
//
// Entries are expanded best-first by MINDIST. Once k candidates are known the
// search stops at the first entry farther away than the k-th candidate.
func KNN(ctx context.Context, r Reader, point []float64, k int) ([]Neighbor, Stats, error) {
	var st Stats
	if err := checkK(k); err != nil {
		return nil, st, err
	}
	if err := checkDims(r.Dims(), point); err != nil {
		return nil, st, err
	}
	if k == 0 {
		return nil, st, nil
	}

	root, err := r.ReadNode(ctx, index.RootID)
	if err != nil {
		return nil, st, fmt.Errorf("read root: %w", err)
	}
	st.NodesRead++

	pending := queue.NewMin[index.Entry](len(root.Entries))
	for _, e := range root.Entries {
		pending.Push(e, geom.MinDistance(e.MBR, point))
	}
	cands := queue.NewMax[model.Record](min(k, maxPrealloc) + 1)
	radius := func() float64 {
		if cands.Len() < k {
			return math.Inf(1)
		}
		top, _ := cands.TopItem()
		return top.Priority
	}

	for pending.Len() > 0 {
		item, _ := pending.PopItem()
		if item.Priority > radius() {
			break
		}
		e := item.Value
		if !e.IsLeaf() {
			n, err := r.ReadNode(ctx, e.Child)
			if err != nil {
				return nil, st, fmt.Errorf("read node %d: %w", e.Child, err)
			}
			st.NodesRead++
			for _, c := range n.Entries {
				pending.Push(c, geom.MinDistance(c.MBR, point))
			}
			continue
		}

		recs, err := r.ReadDataBlock(ctx, e.Block)
		if err != nil {
			return nil, st, fmt.Errorf("read data block %d: %w", e.Block, err)
		}
		st.BlocksRead++
		for _, rec := range recs {
			d := geom.Distance(rec.Coords, point)
			if cands.Len() < k {
				cands.Push(rec, d)
			} else if d < radius() {
				cands.Push(rec, d)
				cands.PopItem()
			}
		}
	}

	out := make([]Neighbor, 0, cands.Len())
	for _, it := range cands.Drain() {
		out = append(out, Neighbor{Record: it.Value, Distance: it.Priority})
	}
	slices.SortStableFunc(out, compareNeighbors)
	return out, st, nil
}

// LinearKNN answers KNN by sorting every record by distance.
func LinearKNN(ctx context.Context, s Scanner, point []float64, k int) ([]Neighbor, error) {
	if err := checkK(k); err != nil {
		return nil, err
	}
	if err := checkDims(s.Dims(), point); err != nil {
		return nil, err
	}
	var all []Neighbor
	err := s.ScanDataBlocks(ctx, func(_ model.BlockID, recs []model.Record) error {
		for _, rec := range recs {
			all = append(all, Neighbor{Record: rec, Distance: geom.Distance(rec.Coords, point)})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(all, compareNeighbors)
	return all[:min(k, len(all))], nil
}
