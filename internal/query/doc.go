// Package query implements the index accelerated query families of the
// R*-tree and their full scan baselines.
//
//   - Range: every record inside a box, bounds inclusive
//   - KNN: the k records closest to a point by Euclidean distance, best-first
//   - Skyline: the records not dominated by any other record when every
//     dimension is minimized
//
// The Linear* functions answer the same queries from a scan of all data
// blocks. They serve as ground truth in tests and as the baseline the command
// line reports next to the indexed timing.
package query
