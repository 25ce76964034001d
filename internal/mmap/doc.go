// Package mmap maps training corpora and model files read-only into
// memory.
//
// A Mapping implements io.ReaderAt, so a corpus can be split into
// line-aligned partitions and scanned by many workers without sharing a
// file offset:
//
//	m, err := mmap.Open("corpus.txt")
//	if err != nil { ... }
//	defer m.Close()
//	_ = m.Advise(mmap.AccessSequential)
//	parts, err := corpus.Partitions(m, int64(m.Size()), threads)
//
// On Unix the file is mapped with mmap(2) and hints go through
// madvise(2). On Windows CreateFileMapping/MapViewOfFile are used and
// hints are ignored.
//
// Close is idempotent. Slices returned by Bytes must not be used after
// Close.
package mmap
