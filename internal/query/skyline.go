package query

import (
	"context"
	"fmt"
	"slices"

	"github.com/hupe1980/rstar/geom"
	"github.com/hupe1980/rstar/index"
	"github.com/hupe1980/rstar/internal/queue"
	"github.com/hupe1980/rstar/model"
)

// Skyline returns the records not dominated by any other record, minimizing
// every dimension. Records with identical coordinates do not dominate each
// other and are all returned.
//
// Entries are expanded in ascending order of the sum of their lower bounds.
// That key only orders the search; the queue is always drained. An entry is
// skipped when a skyline record dominates its lower corner, since every point
// inside it is then dominated as well.
func Skyline(ctx context.Context, r Reader) ([]model.Record, Stats, error) {
	var st Stats
	root, err := r.ReadNode(ctx, index.RootID)
	if err != nil {
		return nil, st, fmt.Errorf("read root: %w", err)
	}
	st.NodesRead++

	pending := queue.NewMin[index.Entry](len(root.Entries))
	for _, e := range root.Entries {
		pending.Push(e, e.MBR.LowerSum())
	}

	var sky []model.Record
	for pending.Len() > 0 {
		item, _ := pending.PopItem()
		e := item.Value
		if dominatedBy(sky, e.MBR.Corner()) {
			continue
		}
		if !e.IsLeaf() {
			n, err := r.ReadNode(ctx, e.Child)
			if err != nil {
				return nil, st, fmt.Errorf("read node %d: %w", e.Child, err)
			}
			st.NodesRead++
			for _, c := range n.Entries {
				pending.Push(c, c.MBR.LowerSum())
			}
			continue
		}

		recs, err := r.ReadDataBlock(ctx, e.Block)
		if err != nil {
			return nil, st, fmt.Errorf("read data block %d: %w", e.Block, err)
		}
		st.BlocksRead++
		for _, rec := range recs {
			sky = addToSkyline(sky, rec)
		}
	}
	return sky, st, nil
}

func dominatedBy(sky []model.Record, p []float64) bool {
	for _, s := range sky {
		if geom.Dominates(s.Coords, p) {
			return true
		}
	}
	return false
}

// addToSkyline adds rec unless it is dominated and drops the members rec
// dominates.
func addToSkyline(sky []model.Record, rec model.Record) []model.Record {
	if dominatedBy(sky, rec.Coords) {
		return sky
	}
	sky = slices.DeleteFunc(sky, func(s model.Record) bool {
		return geom.Dominates(rec.Coords, s.Coords)
	})
	return append(sky, rec)
}

// LinearSkyline answers Skyline by comparing every pair of records.
func LinearSkyline(ctx context.Context, s Scanner) ([]model.Record, error) {
	var all []model.Record
	err := s.ScanDataBlocks(ctx, func(_ model.BlockID, recs []model.Record) error {
		all = append(all, recs...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var out []model.Record
	for i, a := range all {
		dominated := false
		for j, b := range all {
			if i != j && geom.Dominates(b.Coords, a.Coords) {
				dominated = true
				break
			}
		}
		if !dominated {
			out = append(out, a)
		}
	}
	return out, nil
}
