// Package sqlite stores blobs in a single SQLite database file using the
// pure-Go modernc.org/sqlite driver.
//
//	store, err := sqlite.Open(ctx, "cities.db")
//	if err != nil { ... }
//	defer store.Close()
//
// Blobs live in one table, blobs(name TEXT PRIMARY KEY, data BLOB). The
// database runs in WAL mode; batch writes share one transaction.
package sqlite
