// Package mem provides memory allocation utilities.
//
// # Aligned Allocation
//
// Matrix and vector buffers start on 64-byte boundaries and matrix rows are
// padded to a multiple of 64 bytes, so every row is cache-line aligned.
package mem
