package query

import (
	"cmp"
	"context"
	"fmt"

	"github.com/hupe1980/rstar/geom"
	"github.com/hupe1980/rstar/index"
	"github.com/hupe1980/rstar/model"
)

// Reader is the tree storage the indexed queries descend through.
type Reader interface {
	index.NodeReader
	Dims() int
}

// Scanner is the full scan source of the linear baselines.
type Scanner interface {
	Dims() int
	ScanDataBlocks(ctx context.Context, fn func(model.BlockID, []model.Record) error) error
}

// Neighbor is a k-NN result.
type Neighbor struct {
	Record   model.Record
	Distance float64
}

// Stats counts the blocks a query touched.
type Stats struct {
	NodesRead  int
	BlocksRead int
}

func checkDims(want int, got []float64) error {
	if len(got) != want {
		return &index.ErrDimensionMismatch{Expected: want, Actual: len(got)}
	}
	if i := geom.NonFinite(got); i >= 0 {
		return fmt.Errorf("%w: coordinate %d is %g", index.ErrInvalidArgument, i, got[i])
	}
	return nil
}

// maxPrealloc caps the candidate heap capacity reserved up front; k may
// exceed the number of indexed records by any amount.
const maxPrealloc = 1024

func checkK(k int) error {
	if k < 0 {
		return fmt.Errorf("%w: k must not be negative, got %d", index.ErrInvalidArgument, k)
	}
	return nil
}

// compareNeighbors orders by distance, then record id.
func compareNeighbors(a, b Neighbor) int {
	return cmp.Or(cmp.Compare(a.Distance, b.Distance), cmp.Compare(a.Record.ID, b.Record.ID))
}

// BoxFromCorners builds a query box from its lower and upper corner.
func BoxFromCorners(lower, upper []float64) (geom.MBR, error) {
	if len(lower) != len(upper) {
		return geom.MBR{}, &index.ErrDimensionMismatch{Expected: len(lower), Actual: len(upper)}
	}
	bounds := make([]geom.Bound, len(lower))
	for i := range lower {
		b, err := geom.NewBound(lower[i], upper[i])
		if err != nil {
			return geom.MBR{}, fmt.Errorf("%w: dimension %d: %w", index.ErrInvalidArgument, i, err)
		}
		bounds[i] = b
	}
	return geom.New(bounds)
}
