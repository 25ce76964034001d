// Package linalg provides the dense float32 primitives used for training and
// inference: a Kernels capability with interchangeable backends, an aligned
// Vector and a row-padded Matrix.
//
// # Backends
//
// Two backends implement Kernels:
//
//   - Generic: portable Go loops.
//   - BLAS: gonum's blas32 routines, which use assembly kernels on amd64/arm64.
//
// The backend is chosen once at package init from the CPU features reported by
// golang.org/x/sys/cpu. Set SUBWORD_LINALG=generic or SUBWORD_LINALG=blas to
// force a backend.
//
// # Layout
//
// Matrix rows are padded so that every row starts on a 64-byte boundary. The
// persisted form writes the padded stride, not just the logical columns.
package linalg
