package testutil

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), //nolint:gosec // test data
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// FillUniform fills dst with random values in range [0, 1).
func (r *RNG) FillUniform(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float32()
	}
}

// UniformVectors generates random vectors with values in range [0, 1).
// Uses a single backing array.
func (r *RNG) UniformVectors(num int, dimensions int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dimensions)
	vectors := make([][]float32, num)
	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = r.rand.Float32()
		}
		vectors[i] = vec
	}
	return vectors
}

// GaussianVectors generates random vectors with values from a standard normal distribution.
func (r *RNG) GaussianVectors(num int, dimensions int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dimensions)
	vectors := make([][]float32, num)
	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = float32(r.rand.NormFloat64())
		}
		vectors[i] = vec
	}
	return vectors
}

// ClusteredVectors generates vectors around clusters random centroids
// with gaussian noise of the given spread.
func (r *RNG) ClusteredVectors(num, dim, clusters int, spread float32) [][]float32 {
	centroids := r.GaussianVectors(clusters, dim)

	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dim)
	vectors := make([][]float32, num)
	for i := range num {
		centroid := centroids[i%clusters]
		vec := data[i*dim : (i+1)*dim]
		for j := range dim {
			vec[j] = centroid[j] + float32(r.rand.NormFloat64())*spread
		}
		vectors[i] = vec
	}
	return vectors
}

// Flatten copies vectors into one row-major slice.
func Flatten(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}
	out := make([]float32, 0, len(vectors)*len(vectors[0]))
	for _, v := range vectors {
		out = append(out, v...)
	}
	return out
}

// Zipf returns a Zipfian-distributed value in [0, n).
// P(k) is proportional to 1/k^s, so s=1 gives the word frequency
// curve of natural text.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipfLocked(n, s)
}

// zipfLocked is the internal implementation (caller must hold lock).
func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	// Inverse transform sampling.
	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}
	return n - 1
}

// CorpusSpec describes a synthetic corpus.
type CorpusSpec struct {
	// Lines is the number of lines.
	Lines int
	// Labels is the number of classes of a supervised corpus.
	Labels int
	// Vocab is the number of distinct words per class (or in total for an
	// unsupervised corpus). Defaults to 20.
	Vocab int
	// LineLen is the number of words per line. Defaults to 8.
	LineLen int
	// Noise is the share of words drawn from a vocabulary shared by all
	// classes.
	Noise float64
	// Weighted prefixes every line with a weight in [0.5, 1.5).
	Weighted bool
}

func (s CorpusSpec) withDefaults() CorpusSpec {
	if s.Vocab <= 0 {
		s.Vocab = 20
	}
	if s.LineLen <= 0 {
		s.LineLen = 8
	}
	if s.Labels <= 0 {
		s.Labels = 1
	}
	return s
}

// ClassWord returns the j-th word that only appears in lines of class c.
func ClassWord(c, j int) string {
	return fmt.Sprintf("c%dw%d", c, j)
}

// LabelName returns the label token of class c under the default prefix.
func LabelName(c int) string {
	return fmt.Sprintf("__label__c%d", c)
}

// SupervisedCorpus generates lines "__label__cK w w w ..." where every
// class draws its words from its own Zipfian vocabulary.
func (r *RNG) SupervisedCorpus(spec CorpusSpec) string {
	spec = spec.withDefaults()

	r.mu.Lock()
	defer r.mu.Unlock()

	var sb strings.Builder
	for i := range spec.Lines {
		c := i % spec.Labels
		if spec.Weighted {
			fmt.Fprintf(&sb, "%.3f ", 0.5+r.rand.Float64())
		}
		sb.WriteString(LabelName(c))
		for range spec.LineLen {
			sb.WriteByte(' ')
			if spec.Noise > 0 && r.rand.Float64() < spec.Noise {
				fmt.Fprintf(&sb, "common%d", r.zipfLocked(spec.Vocab, 1))
				continue
			}
			sb.WriteString(ClassWord(c, r.zipfLocked(spec.Vocab, 1)))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// UnsupervisedCorpus generates lines of Zipfian words "w0 w17 w3 ...".
// Words i and i+1 (i even) always appear next to each other, which gives
// skipgram and cbow a co-occurrence signal to learn.
func (r *RNG) UnsupervisedCorpus(spec CorpusSpec) string {
	spec = spec.withDefaults()

	r.mu.Lock()
	defer r.mu.Unlock()

	var sb strings.Builder
	for range spec.Lines {
		for j := 0; j < spec.LineLen; j += 2 {
			if j > 0 {
				sb.WriteByte(' ')
			}
			w := r.zipfLocked(spec.Vocab/2, 1) * 2
			fmt.Fprintf(&sb, "w%d w%d", w, w+1)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// WriteCorpus writes text to a file in a test temp directory and returns
// its path.
func WriteCorpus(tb testing.TB, text string) string {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), "corpus.txt")
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		tb.Fatalf("write corpus: %v", err)
	}
	return path
}
