package index

import (
	"github.com/google/btree"

	"github.com/hupe1980/rstar/model"
)

type recordRef struct {
	id    model.RecordID
	block model.BlockID
}

func lessRecordRef(a, b recordRef) bool { return a.id < b.id }

// RecordIndex maps record ids to the data block holding them.
// It is not safe for concurrent use.
type RecordIndex struct {
	tree *btree.BTreeG[recordRef]
}

// NewRecordIndex returns an empty record index.
func NewRecordIndex() *RecordIndex {
	return &RecordIndex{tree: btree.NewG(32, lessRecordRef)}
}

// Set maps id to block, replacing an existing mapping.
func (r *RecordIndex) Set(id model.RecordID, block model.BlockID) {
	r.tree.ReplaceOrInsert(recordRef{id: id, block: block})
}

// Get returns the block holding id.
func (r *RecordIndex) Get(id model.RecordID) (model.BlockID, bool) {
	ref, ok := r.tree.Get(recordRef{id: id})
	return ref.block, ok
}

// Has reports whether id is indexed.
func (r *RecordIndex) Has(id model.RecordID) bool {
	return r.tree.Has(recordRef{id: id})
}

// Delete removes id and reports whether it was present.
func (r *RecordIndex) Delete(id model.RecordID) bool {
	_, ok := r.tree.Delete(recordRef{id: id})
	return ok
}

// Len returns the number of indexed records.
func (r *RecordIndex) Len() int { return r.tree.Len() }

// Reset removes every mapping.
func (r *RecordIndex) Reset() { r.tree.Clear(false) }

// Ascend calls fn for every mapping in increasing id order until fn returns false.
func (r *RecordIndex) Ascend(fn func(id model.RecordID, block model.BlockID) bool) {
	r.tree.Ascend(func(ref recordRef) bool {
		return fn(ref.id, ref.block)
	})
}
