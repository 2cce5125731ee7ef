// Package hash provides the CRC32-Castagnoli checksum of block frames and
// S3 uploads.
//
//	sum := hash.Sum(payload)
//
// Go's hash/crc32 uses SSE4.2 or the ARM CRC extension when available.
package hash
