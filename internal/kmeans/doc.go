// Package kmeans implements the k-means clustering used to learn product
// quantization codebooks.
//
// Centroids start from a random permutation of the points. Each iteration
// assigns every point to its nearest centroid (E step) and moves every
// centroid to the mean of its points (M step). An empty cluster is split
// off a non-empty one chosen with probability proportional to its size,
// and the two copies are pushed apart by a small epsilon. Training runs a
// fixed number of iterations.
package kmeans
