// Package quantization compresses embedding matrices with product
// quantization.
//
// A ProductQuantizer splits each row into nsubq sub-vectors of dsub
// dimensions (the last one may be shorter) and learns a 256-entry k-means
// codebook per sub-space, so each sub-vector is stored as one byte:
//
//	pq := quantization.NewProductQuantizer(dim, 2)
//	err := pq.Train(ctx, matrix)
//	pq.ComputeCode(row, code)
//
// QMatrix wraps the codes of a whole matrix and, optionally, a second
// one-dimensional quantizer for the row norms. It answers DotRow and
// AddRowTo directly from the codebooks without decoding rows.
package quantization
