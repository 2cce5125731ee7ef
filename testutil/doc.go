// Package testutil provides testing utilities for rstar.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded, thread-safe RNG and generators for random point
// records.
//
// # Random Records
//
//	rng := testutil.NewRNG(seed)
//	recs := rng.UniformRecords(1000, 2, 0, 100) // ids 1..1000 in [0,100)^2
//	recs = rng.ClusteredRecords(1000, 3, 5, 2.5)
//
// Generators are deterministic for a given seed, so failing randomized tests
// can be reproduced from the seed they print.
package testutil
