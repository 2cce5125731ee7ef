// Package model defines the record and identifier types shared by the index,
// the storage layer and the query engines.
//
// # Identity Types
//
//   - RecordID: user supplied record identifier
//   - BlockID: data block holding one or more records
//   - NodeID: index block holding one tree node
//
// # Record Text Format
//
// Records are exchanged as delimited text lines:
//
//	record_id<delim>name<delim>coord_1<delim>...<delim>coord_d
//
// ParseRecord rejects lines with the wrong field count or unparsable numbers
// with an error that satisfies errors.Is(err, ErrParse).
package model
