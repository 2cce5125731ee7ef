// Package storage implements the block storage collaborator of the R*-tree
// on top of a blobstore.BlobStore.
//
// # Layout
//
// A store holds two namespaces of fixed size blocks:
//
//	index/meta            index metadata (dims, block size, node count, height)
//	index/000000000001    root node
//	index/000000000002..  further nodes
//	data/meta             data metadata (dims, block size, block and record count)
//	data/000000000001..   data blocks
//
// Every block is a frame of BlockSize bytes:
//
//	+--------+------+-------------+----------+---------+--------+---------+---------+
//	| magic  | kind | compression | reserved | stored  | raw    | crc32c  | payload |
//	| uint32 | u8   | u8          | uint16   | uint32  | uint32 | uint32  | ...pad  |
//	+--------+------+-------------+----------+---------+--------+---------+---------+
//
// The checksum covers the stored (possibly compressed) payload. Payloads that
// do not fit fail with ErrBlockOverflow, damaged frames with ErrCorrupt; both
// match index.ErrStorage.
//
// # Buffering
//
// Node writes go to a write-back buffer that is read through and written out
// by Flush together with both metadata blocks. Data blocks are written through
// and cached decoded in an LRU cache.
package storage
