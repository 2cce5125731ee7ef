package index

import (
	"context"

	"github.com/hupe1980/rstar/model"
)

const (
	// RootID is the fixed id of the root node.
	RootID model.NodeID = 1

	// LeafLevel is the level of leaf nodes.
	LeafLevel = 1

	// DefaultMaxEntries is M, the node capacity.
	DefaultMaxEntries = 4

	// ChooseSubtreeCandidates bounds the overlap-enlargement search for large nodes.
	ChooseSubtreeCandidates = 32
)

// NodeReader is the read side of Store used by the query engines.
type NodeReader interface {
	// ReadNode returns a copy of the node; ErrNotFound if it does not exist.
	ReadNode(ctx context.Context, id model.NodeID) (*Node, error)
	// ReadDataBlock returns the records of a data block; ErrNotFound if absent.
	ReadDataBlock(ctx context.Context, id model.BlockID) ([]model.Record, error)
}

// Store is the block storage collaborator of the tree.
//
// Implementations wrap I/O failures in ErrStorage. Nodes passed in are owned by
// the caller; implementations must copy what they retain.
type Store interface {
	NodeReader

	// WriteNewNode appends a node, assigns a fresh id to n.ID and returns it.
	WriteNewNode(ctx context.Context, n *Node) (model.NodeID, error)
	// UpdateNode persists n in place under n.ID and records the tree height.
	UpdateNode(ctx context.Context, n *Node, height int) error
	// Height returns the recorded tree height, 0 for an empty store.
	Height(ctx context.Context) (int, error)

	// WriteDataBlock stores records in a fresh data block.
	WriteDataBlock(ctx context.Context, records []model.Record) (model.BlockID, error)
	// DeleteRecordFromBlock removes one record from a data block and returns
	// the remaining records; ErrNotFound if the record is not in the block.
	DeleteRecordFromBlock(ctx context.Context, block model.BlockID, id model.RecordID) ([]model.Record, error)

	// Flush commits all buffered writes.
	Flush(ctx context.Context) error
}
