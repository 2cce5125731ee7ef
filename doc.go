// Package rstar is a disk-block R*-tree over named points in n-dimensional
// space.
//
// Records live in fixed-size data blocks; the tree lives in fixed-size index
// blocks. Both are kept in a blob store: memory, a local directory, SQLite,
// S3 or MinIO.
//
// # Quick Start
//
//	ctx := context.Background()
//	db, _ := rstar.Open(ctx, rstar.Local("./cities"), 2)
//	defer db.Close(ctx)
//
//	_ = db.Insert(ctx, rstar.Record{ID: 1, Name: "Athens", Coords: []float64{37.98, 23.72}})
//
// Load a CSV file of id,name,coord... lines and pack the tree with
// Sort-Tile-Recursive:
//
//	f, _ := os.Open("cities.csv")
//	res, _ := db.Load(ctx, f, rstar.LoadOptions{SkipHeader: true, Bulk: true})
//
// # Queries
//
//	in, _ := db.Range(ctx, []float64{35, 20}, []float64{40, 25}) // inclusive box
//	nn, _ := db.KNN(ctx, []float64{38, 23}, 5)                   // nearest first
//	sky, _ := db.Skyline(ctx)                                     // minimal in every dimension
//
// Every query has a Linear counterpart that scans all data blocks and returns
// the same answer.
//
// # Durability
//
// Data blocks are written on insert. Index blocks are buffered and written
// by Flush and Close; WithMaxBufferedNodes bounds the buffer. A failed write
// leaves the DB possibly inconsistent.
package rstar
