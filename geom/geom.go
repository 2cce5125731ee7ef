package geom

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidBound is returned when a bound has Lower > Upper or a NaN endpoint.
var ErrInvalidBound = errors.New("invalid bound")

// Bound is a closed interval on a single dimension.
type Bound struct {
	Lower float64
	Upper float64
}

// NewBound validates and returns a Bound.
func NewBound(lower, upper float64) (Bound, error) {
	b := Bound{Lower: lower, Upper: upper}
	if err := b.Validate(); err != nil {
		return Bound{}, err
	}
	return b, nil
}

// Validate reports whether the bound is well formed.
func (b Bound) Validate() error {
	if math.IsNaN(b.Lower) || math.IsNaN(b.Upper) || b.Lower > b.Upper {
		return fmt.Errorf("%w: [%g, %g]", ErrInvalidBound, b.Lower, b.Upper)
	}
	return nil
}

// Extent returns Upper - Lower.
func (b Bound) Extent() float64 {
	return b.Upper - b.Lower
}

// MBR is an n-dimensional minimum bounding rectangle.
// The zero value is an MBR with no dimensions.
type MBR struct {
	bounds []Bound
	center []float64
	area   float64
	margin float64
}

// New builds an MBR from bounds. The bounds slice is copied.
func New(bounds []Bound) (MBR, error) {
	for i, b := range bounds {
		if err := b.Validate(); err != nil {
			return MBR{}, fmt.Errorf("dimension %d: %w", i, err)
		}
	}
	cp := make([]Bound, len(bounds))
	copy(cp, bounds)
	return build(cp), nil
}

// FromPoint returns the degenerate MBR of a single point.
func FromPoint(p []float64) MBR {
	bounds := make([]Bound, len(p))
	for i, v := range p {
		bounds[i] = Bound{Lower: v, Upper: v}
	}
	return build(bounds)
}

// FromPoints returns the MBR of a set of points. All points must share the
// same dimensionality. Returns the zero MBR when points is empty.
func FromPoints(points ...[]float64) MBR {
	if len(points) == 0 {
		return MBR{}
	}
	bounds := make([]Bound, len(points[0]))
	for i, v := range points[0] {
		bounds[i] = Bound{Lower: v, Upper: v}
	}
	for _, p := range points[1:] {
		for i, v := range p {
			if v < bounds[i].Lower {
				bounds[i].Lower = v
			}
			if v > bounds[i].Upper {
				bounds[i].Upper = v
			}
		}
	}
	return build(bounds)
}

// build takes ownership of bounds.
func build(bounds []Bound) MBR {
	m := MBR{bounds: bounds, center: make([]float64, len(bounds))}
	if len(bounds) == 0 {
		return m
	}
	m.area = 1
	for i, b := range bounds {
		ext := b.Extent()
		m.area *= ext
		m.margin += ext
		m.center[i] = (b.Lower + b.Upper) / 2
	}
	return m
}

// Dims returns the number of dimensions.
func (m MBR) Dims() int { return len(m.bounds) }

// IsZero reports whether the MBR has no dimensions.
func (m MBR) IsZero() bool { return len(m.bounds) == 0 }

// Bound returns the bound on dimension i.
func (m MBR) Bound(i int) Bound { return m.bounds[i] }

// Lower returns the lower bound on dimension i.
func (m MBR) Lower(i int) float64 { return m.bounds[i].Lower }

// Upper returns the upper bound on dimension i.
func (m MBR) Upper(i int) float64 { return m.bounds[i].Upper }

// Bounds returns a copy of the bounds.
func (m MBR) Bounds() []Bound {
	cp := make([]Bound, len(m.bounds))
	copy(cp, m.bounds)
	return cp
}

// Area is the product of the extents (the hyper-volume).
func (m MBR) Area() float64 { return m.area }

// Margin is the sum of the extents.
func (m MBR) Margin() float64 { return m.margin }

// Center returns the midpoint on every dimension.
// The returned slice must not be modified.
func (m MBR) Center() []float64 { return m.center }

// Corner returns the lower corner of the MBR.
func (m MBR) Corner() []float64 {
	c := make([]float64, len(m.bounds))
	for i, b := range m.bounds {
		c[i] = b.Lower
	}
	return c
}

// LowerSum returns the sum of the lower bounds. It is the L1 distance of the
// lower corner from the origin and orders entries for skyline evaluation.
func (m MBR) LowerSum() float64 {
	var s float64
	for _, b := range m.bounds {
		s += b.Lower
	}
	return s
}

// ContainsPoint reports whether p lies inside m (bounds inclusive).
func (m MBR) ContainsPoint(p []float64) bool {
	if len(p) != len(m.bounds) {
		return false
	}
	for i, b := range m.bounds {
		if p[i] < b.Lower || p[i] > b.Upper {
			return false
		}
	}
	return true
}

// Contains reports whether o lies completely inside m.
func (m MBR) Contains(o MBR) bool {
	if len(o.bounds) != len(m.bounds) {
		return false
	}
	for i, b := range m.bounds {
		if o.bounds[i].Lower < b.Lower || o.bounds[i].Upper > b.Upper {
			return false
		}
	}
	return true
}

// Equal reports whether both MBRs have identical bounds.
func (m MBR) Equal(o MBR) bool {
	if len(o.bounds) != len(m.bounds) {
		return false
	}
	for i, b := range m.bounds {
		if o.bounds[i] != b {
			return false
		}
	}
	return true
}

func (m MBR) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, b := range m.bounds {
		if i > 0 {
			sb.WriteString(" x ")
		}
		fmt.Fprintf(&sb, "%g..%g", b.Lower, b.Upper)
	}
	sb.WriteByte(']')
	return sb.String()
}

// MinimumBounds returns the smallest MBR enclosing all given MBRs.
// Zero MBRs are ignored; the result is the zero MBR if nothing remains.
func MinimumBounds(mbrs ...MBR) MBR {
	var bounds []Bound
	for _, m := range mbrs {
		if m.IsZero() {
			continue
		}
		if bounds == nil {
			bounds = make([]Bound, len(m.bounds))
			copy(bounds, m.bounds)
			continue
		}
		for i, b := range m.bounds {
			if b.Lower < bounds[i].Lower {
				bounds[i].Lower = b.Lower
			}
			if b.Upper > bounds[i].Upper {
				bounds[i].Upper = b.Upper
			}
		}
	}
	if bounds == nil {
		return MBR{}
	}
	return build(bounds)
}

// Union returns the MBR enclosing a and b.
func Union(a, b MBR) MBR {
	return MinimumBounds(a, b)
}

// Overlaps reports whether the closed boxes a and b intersect on every dimension.
func Overlaps(a, b MBR) bool {
	if len(a.bounds) != len(b.bounds) {
		return false
	}
	for i := range a.bounds {
		if a.bounds[i].Lower > b.bounds[i].Upper || b.bounds[i].Lower > a.bounds[i].Upper {
			return false
		}
	}
	return true
}

// OverlapVolume returns the volume of the intersection of a and b.
// It is 0 as soon as the overlap on any dimension is not positive.
func OverlapVolume(a, b MBR) float64 {
	if len(a.bounds) != len(b.bounds) || len(a.bounds) == 0 {
		return 0
	}
	vol := 1.0
	for i := range a.bounds {
		lo := math.Max(a.bounds[i].Lower, b.bounds[i].Lower)
		hi := math.Min(a.bounds[i].Upper, b.bounds[i].Upper)
		ext := hi - lo
		if ext <= 0 {
			return 0
		}
		vol *= ext
	}
	return vol
}

// MinDistance returns MINDIST, the Euclidean distance from point p to the
// nearest point of m. It is 0 when p lies inside m.
func MinDistance(m MBR, p []float64) float64 {
	var sum float64
	for i, b := range m.bounds {
		var d float64
		switch {
		case p[i] < b.Lower:
			d = b.Lower - p[i]
		case p[i] > b.Upper:
			d = p[i] - b.Upper
		}
		sum += d * d
	}
	return math.Sqrt(sum)
}

// CenterDistance returns the Euclidean distance between the centers of a and b.
func CenterDistance(a, b MBR) float64 {
	return Distance(a.center, b.center)
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Dominates reports whether a dominates b when minimizing every dimension:
// a is no larger than b everywhere and strictly smaller somewhere.
func Dominates(a, b []float64) bool {
	strict := false
	for i := range a {
		if a[i] > b[i] {
			return false
		}
		if a[i] < b[i] {
			strict = true
		}
	}
	return strict
}

// NonFinite returns the index of the first NaN or infinite coordinate of p,
// or -1 when every coordinate is finite.
func NonFinite(p []float64) int {
	for i, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return i
		}
	}
	return -1
}
