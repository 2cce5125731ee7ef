package hash

import (
	"encoding/base64"
	"encoding/binary"
	"hash/crc32"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Sum returns the CRC32-Castagnoli checksum of data as stored in block
// frame headers.
func Sum(data []byte) uint32 {
	return crc32.Checksum(data, castagnoli)
}

// Base64 returns Sum(data) big-endian and base64 encoded, the form S3 takes
// in the x-amz-checksum-crc32c header.
func Base64(data []byte) string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], Sum(data))
	return base64.StdEncoding.EncodeToString(b[:])
}
