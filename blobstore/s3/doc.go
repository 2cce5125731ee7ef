// Package s3 stores blobs in Amazon S3 and, optionally, metadata blobs in
// DynamoDB.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket", s3.WithPrefix("trees/cities"))
//	if err != nil { ... }
//	bs, err := storage.Open(ctx, store, 2)
//
// Blob names map to keys below the prefix. Reads issue ranged GetObject
// calls; Put uploads small blobs with a single PutObject carrying a CRC32C
// checksum and larger ones through the multipart uploader.
//
// S3 offers no compare-and-swap, so two processes writing the same tree
// silently overwrite each other's metadata. Wrap the store in a
// DDBMetaStore to detect that.
package s3
