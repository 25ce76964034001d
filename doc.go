// Package subword trains and serves fastText-style models: word vectors
// that carry character n-gram (subword) information, and linear text
// classifiers.
//
// # Quick Start
//
// Text classification:
//
//	ctx := context.Background()
//	m, _ := subword.Supervised().Dim(50).Epoch(25).WordNgrams(2).Train(ctx, "train.txt")
//	defer m.Close()
//
//	preds, _ := m.Predict("which baking dish is best for banana bread", 3, 0)
//	for _, p := range preds {
//	    fmt.Println(p.Label, p.Probability)
//	}
//
// Word vectors:
//
//	m, _ := subword.SkipGram().Dim(100).Ngrams(3, 6).Train(ctx, "corpus.txt")
//	vec, _ := m.WordVector("unseenword") // built from subwords
//	nn, _ := m.Nearest("king", 10)
//
// Training lines are whitespace-separated tokens. Tokens starting with the
// label prefix ("__label__" by default) are labels. With weighted input
// every line starts with a float weight.
//
// # Losses
//
// Hierarchical softmax walks a Huffman tree built from class frequencies,
// negative sampling draws negatives from a unigram^0.5 table, and softmax
// scores every class. Prediction on hierarchical softmax models uses a
// pruned best-first search over the tree instead of a full softmax.
//
// # Concurrency
//
// Training runs Config.Thread workers on line-aligned partitions of the
// corpus. Workers update the shared matrices without locks (Hogwild);
// concurrent writes to one row may lose updates, which costs a little
// accuracy and never corrupts memory layout. Canceling the context stops
// training.
//
// Trained models are safe for concurrent reads (Predict, WordVector,
// Nearest, ...). Quantize and Close need exclusive access.
//
// # Quantization
//
// Quantize compresses a supervised model with product quantization,
// optionally pruning the input matrix to the rows of largest norm first:
//
//	err := m.Quantize(ctx, subword.QuantizeOptions{DSub: 2, QNorm: true, Cutoff: 100000})
//
// # Persistence
//
// WriteTo and Read use a little-endian binary framing (magic, version,
// config, dictionary, matrices). SaveFile and LoadFile write files
// atomically. Publish uploads a compressed, checksummed model to any
// blobstore.BlobStore (local disk, memory, S3, MinIO) and commits a
// CURRENT pointer; OpenPublished loads the live version.
package subword
