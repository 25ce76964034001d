// Package testutil provides testing utilities for subword.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded RNG, random vectors for quantizer tests and small
// synthetic corpora for training tests.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	vecs := rng.GaussianVectors(1024, 16)
//
// # Synthetic Corpora
//
//	text := rng.SupervisedCorpus(testutil.CorpusSpec{Lines: 500, Labels: 3})
//	path := testutil.WriteCorpus(t, text)
package testutil
