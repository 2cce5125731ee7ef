// Package geom provides the n-dimensional geometry used by the R*-tree.
//
// # Types
//
//   - Bound: closed interval [Lower, Upper] on one dimension
//   - MBR: minimum bounding rectangle, one Bound per dimension
//
// An MBR is an immutable value. Area, margin and center are computed when the
// MBR is constructed and can therefore never disagree with its bounds.
//
// # Usage
//
//	a := geom.FromPoint([]float64{1, 2})
//	b := geom.FromPoint([]float64{3, 0})
//	box := geom.MinimumBounds(a, b)  // [1,3]x[0,2]
//	box.Area()                         // 4
//	geom.MinDistance(box, []float64{5, 5})
//
// Degenerate MBRs (points or lines) are legal and have zero area.
package geom
