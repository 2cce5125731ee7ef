package index

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/hupe1980/rstar/model"
)

// BlockRecord pairs a record with the data block it is stored in.
type BlockRecord struct {
	Record model.Record
	Block  model.BlockID
}

// BulkLoad replaces the tree with one packed bottom-up by Sort-Tile-Recursive.
// Records sharing a data block become one leaf entry. Nodes of the previous
// tree are abandoned and the record index is replaced by the loaded pairs.
func (t *Tree) BulkLoad(ctx context.Context, pairs []BlockRecord) error {
	seen := make(map[model.RecordID]struct{}, len(pairs))
	var (
		order  []model.BlockID
		blocks = make(map[model.BlockID][]model.Record)
	)
	for _, p := range pairs {
		if err := t.checkDims(p.Record.Coords); err != nil {
			return err
		}
		if _, dup := seen[p.Record.ID]; dup {
			return fmt.Errorf("%w: duplicate record id %d", ErrInvalidArgument, p.Record.ID)
		}
		seen[p.Record.ID] = struct{}{}
		if _, ok := blocks[p.Block]; !ok {
			order = append(order, p.Block)
		}
		blocks[p.Block] = append(blocks[p.Block], p.Record)
	}

	entries := make([]Entry, 0, len(order))
	for _, b := range order {
		entries = append(entries, NewLeafEntry(b, RecordsMBR(blocks[b])))
	}

	level := LeafLevel
	for {
		groups := t.strPartition(entries, 0)
		if len(groups) == 1 {
			root := &Node{ID: RootID, Level: level, Entries: groups[0]}
			t.height = level
			if err := t.writeNode(ctx, root); err != nil {
				return err
			}
			break
		}

		next := make([]Entry, 0, len(groups))
		for _, g := range groups {
			n := &Node{Level: level, Entries: g}
			id, err := t.store.WriteNewNode(ctx, n)
			if err != nil {
				return fmt.Errorf("write node at level %d: %w", level, err)
			}
			next = append(next, NewInternalEntry(id, n.MBR()))
		}
		entries = next
		level++
	}

	t.records.Reset()
	for _, p := range pairs {
		t.records.Set(p.Record.ID, p.Block)
	}
	t.logger.Info("bulk load completed", "records", len(pairs), "blocks", len(order), "height", t.height)
	return nil
}

// strPartition sorts entries by center on dimension d and tiles them into
// slices of ceil(n^(1/dims)) entries, recursing on the next dimension until
// every group fits into one node. Groups of a multi-group result never hold
// fewer than the minimum fill.
func (t *Tree) strPartition(entries []Entry, d int) [][]Entry {
	n := len(entries)
	if n <= t.maxEntries {
		return [][]Entry{entries}
	}

	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b Entry) int {
		return cmp.Compare(a.MBR.Center()[d], b.MBR.Center()[d])
	})

	sliceSize := int(math.Ceil(math.Pow(float64(n), 1/float64(t.dims))))
	sliceSize = max(sliceSize, t.minEntries)
	count := n / sliceSize
	if count < 2 {
		// Tiling would not shrink the input; pack directly into nodes.
		return balancedChunks(sorted, (n+t.maxEntries-1)/t.maxEntries)
	}

	var out [][]Entry
	next := (d + 1) % t.dims
	for _, slice := range balancedChunks(sorted, count) {
		out = append(out, t.strPartition(slice, next)...)
	}
	return out
}

// balancedChunks splits entries into count consecutive chunks whose sizes
// differ by at most one.
func balancedChunks(entries []Entry, count int) [][]Entry {
	out := make([][]Entry, 0, count)
	base, extra := len(entries)/count, len(entries)%count
	start := 0
	for i := 0; i < count; i++ {
		size := base
		if i < extra {
			size++
		}
		out = append(out, slices.Clone(entries[start:start+size]))
		start += size
	}
	return out
}
