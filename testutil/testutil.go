package testutil

import (
	"fmt"
	"math"
	"math/rand"
	"slices"
	"sync"

	"github.com/hupe1980/rstar/model"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Perm returns a pseudo-random permutation of [0,n).
func (r *RNG) Perm(n int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Perm(n)
}

// Point returns a point with coordinates uniform in [minVal, maxVal).
func (r *RNG) Point(dims int, minVal, maxVal float64) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := make([]float64, dims)
	for i := range p {
		p[i] = minVal + r.rand.Float64()*(maxVal-minVal)
	}
	return p
}

// Box returns lower and upper corners of a random box inside
// [minVal, maxVal)^dims.
func (r *RNG) Box(dims int, minVal, maxVal float64) (lower, upper []float64) {
	a := r.Point(dims, minVal, maxVal)
	b := r.Point(dims, minVal, maxVal)
	lower = make([]float64, dims)
	upper = make([]float64, dims)
	for i := range a {
		lower[i], upper[i] = math.Min(a[i], b[i]), math.Max(a[i], b[i])
	}
	return lower, upper
}

// UniformRecords returns num records with ids 1..num and coordinates
// uniform in [minVal, maxVal).
func (r *RNG) UniformRecords(num, dims int, minVal, maxVal float64) []model.Record {
	recs := make([]model.Record, num)
	for i := range recs {
		recs[i] = model.Record{
			ID:     model.RecordID(i + 1),
			Name:   fmt.Sprintf("r%d", i+1),
			Coords: r.Point(dims, minVal, maxVal),
		}
	}
	return recs
}

// IntegerRecords returns num records whose coordinates are integers in
// [0, span). Small spans produce many duplicate coordinates, which
// exercises ties in splits and dominance.
func (r *RNG) IntegerRecords(num, dims, span int) []model.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	recs := make([]model.Record, num)
	for i := range recs {
		c := make([]float64, dims)
		for d := range c {
			c[d] = float64(r.rand.Intn(span))
		}
		recs[i] = model.Record{ID: model.RecordID(i + 1), Name: fmt.Sprintf("r%d", i+1), Coords: c}
	}
	return recs
}

// ClusteredRecords returns num records drawn from Gaussian clusters with the
// given spread around centers uniform in [0, 100).
func (r *RNG) ClusteredRecords(num, dims, clusters int, spread float64) []model.Record {
	centers := make([][]float64, clusters)
	for i := range centers {
		centers[i] = r.Point(dims, 0, 100)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	recs := make([]model.Record, num)
	for i := range recs {
		c := centers[r.rand.Intn(clusters)]
		p := make([]float64, dims)
		for d := range p {
			p[d] = c[d] + r.rand.NormFloat64()*spread
		}
		recs[i] = model.Record{ID: model.RecordID(i + 1), Name: fmt.Sprintf("r%d", i+1), Coords: p}
	}
	return recs
}

// Shuffle returns a shuffled copy of recs.
func (r *RNG) Shuffle(recs []model.Record) []model.Record {
	out := slices.Clone(recs)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// IDs returns the record ids in input order.
func IDs(recs []model.Record) []model.RecordID {
	ids := make([]model.RecordID, len(recs))
	for i, rec := range recs {
		ids[i] = rec.ID
	}
	return ids
}

// SortedIDs returns the record ids sorted ascending.
func SortedIDs(recs []model.Record) []model.RecordID {
	ids := IDs(recs)
	slices.Sort(ids)
	return ids
}
