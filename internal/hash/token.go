package hash

import "github.com/OneOfOne/xxhash"

// Token returns the 32-bit xxHash (seed 0) of s.
//
// Token ids, character n-gram buckets and word n-gram buckets are all derived
// from this value, so changing it invalidates every persisted dictionary.
func Token(s string) uint32 {
	return xxhash.ChecksumString32S(s, 0)
}

// WordNgramMix is the multiplier used to fold consecutive token hashes into a
// word n-gram hash.
const WordNgramMix = 116049371

// MixWordNgram folds the token hash next into the running n-gram hash h.
//
// Token hashes are carried as int32 and sign-extended before mixing.
func MixWordNgram(h uint64, next int32) uint64 {
	return h*WordNgramMix + uint64(int64(next))
}
