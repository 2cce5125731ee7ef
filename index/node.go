package index

import (
	"cmp"
	"math"
	"slices"

	"github.com/hupe1980/rstar/geom"
	"github.com/hupe1980/rstar/model"
)

// Node is one tree node. Level 1 nodes are leaves and hold leaf entries.
type Node struct {
	ID      model.NodeID
	Level   int
	Entries []Entry
}

// IsLeaf reports whether the node is at LeafLevel.
func (n *Node) IsLeaf() bool { return n.Level == LeafLevel }

// MBR returns the tight bound of all entries.
func (n *Node) MBR() geom.MBR { return entriesMBR(n.Entries) }

// Clone returns a copy that shares no entry storage with n.
func (n *Node) Clone() *Node {
	return &Node{ID: n.ID, Level: n.Level, Entries: slices.Clone(n.Entries)}
}

// Split divides an overflowing node into two nodes of the same level using
// the R* split: the axis is chosen by the minimum sum of margins over all
// distributions, the distribution by minimum overlap and then minimum area.
// Each group receives at least minEntries entries. The returned nodes carry
// no id.
func (n *Node) Split(minEntries int) (*Node, *Node, error) {
	total := len(n.Entries)
	dists := total - 2*minEntries + 1
	if minEntries < 1 || dists < 1 {
		return nil, nil, invariantf("split", "cannot split %d entries with minimum %d", total, minEntries)
	}
	dims := n.Entries[0].MBR.Dims()

	var (
		bestMargin = math.Inf(1)
		bestSorts  [2][]Entry
	)
	for d := 0; d < dims; d++ {
		byLower := sortedOnAxis(n.Entries, d, false)
		byUpper := sortedOnAxis(n.Entries, d, true)
		margin := marginSum(byLower, minEntries, dists) + marginSum(byUpper, minEntries, dists)
		if margin < bestMargin {
			bestMargin = margin
			bestSorts = [2][]Entry{byLower, byUpper}
		}
	}
	if bestSorts[0] == nil {
		return nil, nil, invariantf("split", "no split axis among %d dimensions", dims)
	}

	var (
		bestOverlap = math.Inf(1)
		bestArea    = math.Inf(1)
		bestGroup   []Entry
		bestAt      int
	)
	for _, sorted := range bestSorts {
		prefix, suffix := prefixSuffix(sorted)
		for k := 1; k <= dists; k++ {
			at := minEntries - 1 + k
			a, b := prefix[at], suffix[at]
			overlap := geom.OverlapVolume(a, b)
			area := a.Area() + b.Area()
			if overlap < bestOverlap || (overlap == bestOverlap && area < bestArea) {
				bestOverlap, bestArea = overlap, area
				bestGroup, bestAt = sorted, at
			}
		}
	}

	left := &Node{Level: n.Level, Entries: slices.Clone(bestGroup[:bestAt])}
	right := &Node{Level: n.Level, Entries: slices.Clone(bestGroup[bestAt:])}
	if len(left.Entries) == 0 || len(right.Entries) == 0 {
		return nil, nil, invariantf("split", "split produced an empty group")
	}
	return left, right, nil
}

// sortedOnAxis sorts a copy of entries by lower (or upper) bound on axis d,
// breaking ties with the other bound.
func sortedOnAxis(entries []Entry, d int, byUpper bool) []Entry {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, func(a, b Entry) int {
		if byUpper {
			return cmp.Or(cmp.Compare(a.MBR.Upper(d), b.MBR.Upper(d)), cmp.Compare(a.MBR.Lower(d), b.MBR.Lower(d)))
		}
		return cmp.Or(cmp.Compare(a.MBR.Lower(d), b.MBR.Lower(d)), cmp.Compare(a.MBR.Upper(d), b.MBR.Upper(d)))
	})
	return out
}

// prefixSuffix returns prefix[i] = MBR(sorted[:i]) and suffix[i] = MBR(sorted[i:]).
func prefixSuffix(sorted []Entry) (prefix, suffix []geom.MBR) {
	n := len(sorted)
	prefix = make([]geom.MBR, n+1)
	suffix = make([]geom.MBR, n+1)
	for i := 1; i <= n; i++ {
		prefix[i] = geom.Union(prefix[i-1], sorted[i-1].MBR)
	}
	for i := n - 1; i >= 0; i-- {
		suffix[i] = geom.Union(suffix[i+1], sorted[i].MBR)
	}
	return prefix, suffix
}

func marginSum(sorted []Entry, minEntries, dists int) float64 {
	prefix, suffix := prefixSuffix(sorted)
	var sum float64
	for k := 1; k <= dists; k++ {
		at := minEntries - 1 + k
		sum += prefix[at].Margin() + suffix[at].Margin()
	}
	return sum
}
