// Package dictionary maps tokens to dense integer ids and expands words into
// hashed character n-gram features.
//
// Entries live in a slice whose index is the entry id: words occupy
// [0, NWords) ordered by descending weight, labels follow in
// [NWords, Size). The text index is an open-addressing table with linear
// probing. It has no tombstones and is rebuilt wholesale whenever entries
// are reordered or removed.
//
// Feature ids above NWords address hash buckets shared by character
// n-grams and word n-grams. After Prune only the retained buckets remain
// addressable, remapped to a compact range.
package dictionary
