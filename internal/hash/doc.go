// Package hash provides the hashing primitives of the vocabulary and the
// artifact envelope.
//
// # Token hashing
//
// Token uses 32-bit xxHash with seed 0. The value addresses the dictionary's
// open-addressing slot table and, reduced modulo the bucket count, the shared
// feature space of character and word n-grams.
//
//	h := hash.Token("<where>")
//	bucket := h % uint32(cfg.Bucket)
//
// # CRC32-Castagnoli (CRC32C)
//
// Artifact envelopes and S3 uploads carry a CRC32C checksum:
//
//	checksum := hash.CRC32C(data)
//
// Go's crc32 package uses hardware instructions (SSE4.2, ARM CRC) when
// available.
package hash
