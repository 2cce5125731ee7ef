// Package index implements a disk-block oriented R*-tree over point records.
//
// # Structure
//
// Nodes live in fixed-size index blocks addressed by model.NodeID; the root is
// always RootID and leaves sit at LeafLevel. A leaf entry references a data
// block rather than a single record: its MBR covers every record stored in
// that block, so a node holds at most MaxEntries block references.
//
// # Operations
//
//   - Insert / InsertBlock: ChooseSubtree descent, forced reinsertion once per
//     level per insertion, R* split (axis by margin, index by overlap)
//   - Delete: locate the leaf through the record index, remove, condense,
//     compact the root, reinsert orphans
//   - BulkLoad: Sort-Tile-Recursive packing of all records
//   - Stats / Validate: per-level statistics and structural checks
//
// # Storage
//
// The tree never touches bytes. All node and data block I/O goes through the
// Store interface; see package storage for the block implementation.
//
// # Record Index
//
// Deletion needs to map a record id to its data block. That mapping is held in
// memory only (RecordIndex) and is rebuilt with RebuildRecordIndex after a
// persisted tree is reopened.
package index
