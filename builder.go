package subword

import (
	"context"
	"io"

	"github.com/hupe1980/subword/config"
)

// =============================================================================
// Trainer Builder (Immutable)
// =============================================================================

// Supervised creates a builder for a text classifier with the supervised
// defaults (softmax loss, minCount 1, no character n-grams, lr 0.1).
//
// The builder is immutable - each method returns a new builder with the updated configuration.
// This ensures thread-safety and prevents accidental state sharing.
//
// Example:
//
//	m, err := subword.Supervised().
//	    Dim(50).
//	    Epoch(25).
//	    WordNgrams(2).
//	    Train(ctx, "train.txt")
func Supervised() Builder {
	return Builder{cfg: config.DefaultSupervised()}
}

// SkipGram creates a builder for skipgram word vectors.
func SkipGram() Builder {
	return Builder{cfg: config.Default()}
}

// CBOW creates a builder for continuous bag-of-words word vectors.
func CBOW() Builder {
	cfg := config.Default()
	cfg.Model = config.CBOW
	return Builder{cfg: cfg}
}

// FromConfig creates a builder that starts from cfg.
func FromConfig(cfg config.Config) Builder {
	return Builder{cfg: cfg}
}

// Builder is an immutable fluent builder for training runs.
// Each method returns a new builder with the updated configuration.
type Builder struct {
	cfg  config.Config
	opts []Option
}

// Dim sets the embedding dimension.
// Default: 100.
func (b Builder) Dim(d int) Builder {
	b.cfg.Dim = d
	return b
}

// Epoch sets the number of passes over the corpus.
// Default: 5.
func (b Builder) Epoch(n int) Builder {
	b.cfg.Epoch = n
	return b
}

// LR sets the initial learning rate. It decays linearly to zero.
func (b Builder) LR(lr float64) Builder {
	b.cfg.LR = lr
	return b
}

// Window sets the maximum context window of cbow and skipgram.
// Default: 5.
func (b Builder) Window(ws int) Builder {
	b.cfg.WindowSize = ws
	return b
}

// WordNgrams sets the maximum length of word n-grams.
// Default: 1 (unigrams only).
func (b Builder) WordNgrams(n int) Builder {
	b.cfg.WordNgrams = n
	return b
}

// MinCount sets the minimum number of occurrences of a word.
func (b Builder) MinCount(n int) Builder {
	b.cfg.MinCount = n
	return b
}

// Ngrams sets the character n-gram length range. Pass maxn 0 to disable
// subwords.
func (b Builder) Ngrams(minn, maxn int) Builder {
	b.cfg.Minn = minn
	b.cfg.Maxn = maxn
	return b
}

// Bucket sets the number of hash buckets shared by word and character
// n-grams.
// Default: 2000000.
func (b Builder) Bucket(n int) Builder {
	b.cfg.Bucket = n
	return b
}

// HS selects hierarchical softmax.
func (b Builder) HS() Builder {
	b.cfg.Loss = config.HierarchicalSoftmax
	return b
}

// NS selects negative sampling with neg negatives per positive.
func (b Builder) NS(neg int) Builder {
	b.cfg.Loss = config.NegativeSampling
	b.cfg.Neg = neg
	return b
}

// Softmax selects the full softmax.
func (b Builder) Softmax() Builder {
	b.cfg.Loss = config.Softmax
	return b
}

// Label sets the label prefix.
// Default: "__label__".
func (b Builder) Label(prefix string) Builder {
	b.cfg.Label = prefix
	return b
}

// Weighted makes every line start with a float weight.
func (b Builder) Weighted() Builder {
	b.cfg.HasWeight = true
	return b
}

// Threads sets the number of training workers.
func (b Builder) Threads(n int) Builder {
	b.cfg.Thread = n
	return b
}

// Seed sets the seed of matrix initialization and worker random streams.
func (b Builder) Seed(seed uint64) Builder {
	b.cfg.Seed = seed
	return b
}

// Logger sets the structured logger for operation tracing.
func (b Builder) Logger(l *Logger) Builder {
	return b.with(WithLogger(l))
}

// Metrics sets the metrics collector for monitoring.
func (b Builder) Metrics(mc MetricsCollector) Builder {
	return b.with(WithMetricsCollector(mc))
}

// Resources draws memory, job slots and IO from rc.
func (b Builder) Resources(rc *ResourceController) Builder {
	return b.with(WithResourceController(rc))
}

// Options appends arbitrary options.
func (b Builder) Options(opts ...Option) Builder {
	return b.with(opts...)
}

func (b Builder) with(opts ...Option) Builder {
	// Copy so sibling builders never share a backing array.
	next := make([]Option, 0, len(b.opts)+len(opts))
	next = append(next, b.opts...)
	b.opts = append(next, opts...)
	return b
}

// Config returns the configuration the builder would train with.
func (b Builder) Config() config.Config { return b.cfg }

// Train trains on the corpus file at path.
func (b Builder) Train(ctx context.Context, path string) (*Model, error) {
	return TrainFile(ctx, b.cfg, path, b.opts...)
}

// TrainReader trains on the first size bytes of r.
func (b Builder) TrainReader(ctx context.Context, r io.ReaderAt, size int64) (*Model, error) {
	return Train(ctx, b.cfg, r, size, b.opts...)
}
