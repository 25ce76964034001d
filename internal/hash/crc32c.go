package hash

import (
	"hash"
	"hash/crc32"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// CRC32C returns the Castagnoli checksum of data. Compressed blocks and
// S3 part uploads are checked with it.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, castagnoli)
}

// NewCRC32C returns a streaming Castagnoli hash, used for published
// model blobs whose bytes are never held in memory at once.
func NewCRC32C() hash.Hash32 {
	return crc32.New(castagnoli)
}
