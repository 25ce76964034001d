// Package persistence provides the little-endian binary encoding shared by
// every persisted structure: dictionaries, matrices, quantizers and the
// model framing that wraps them.
//
// Writer and Reader carry a sticky error so a sequence of fields can be
// written or read and checked once. Float32 slices are copied as raw bytes
// on little-endian hosts and encoded element by element elsewhere.
//
// Nested structures share one Reader: NewReader returns r unchanged when it
// already is a *Reader, so no bytes are lost to read-ahead buffering.
package persistence
