// Package blobstore is the byte storage beneath the block store.
//
// A BlobStore maps names such as "index/000000000001" to immutable byte
// blobs that are replaced as a whole by Put. Implementations must be safe
// for concurrent use.
//
// # Implementations
//
//   - MemoryStore: in-process map, used by tests and the memory backend
//   - LocalStore: one file per blob, atomic replace, mmap reads
//   - RateLimitedStore: throttles the bytes moved through another store
//   - s3.Store, s3.DDBMetaStore: Amazon S3, optional DynamoDB metadata
//   - minio.Store: MinIO and other S3-compatible servers
//   - sqlite.Store: a single SQLite database file
package blobstore
