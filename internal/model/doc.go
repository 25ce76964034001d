// Package model implements the shallow network trained on dictionary
// features: an input embedding matrix averaged into a hidden vector and an
// output layer scored by full softmax, hierarchical softmax over a Huffman
// tree, or negative sampling.
//
// A Model holds the shared, read-mostly parts: both matrices, the tree, the
// negative table and the lookup tables. Every worker owns a State with its
// scratch vectors, random stream and running loss. Workers update the
// shared matrices without locks; concurrent writes to the same row race and
// the last writer wins, which stochastic gradient descent tolerates.
package model
