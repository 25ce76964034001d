package subword

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/subword/config"
	"github.com/hupe1980/subword/internal/cache"
	"github.com/hupe1980/subword/internal/dictionary"
	"github.com/hupe1980/subword/internal/linalg"
	"github.com/hupe1980/subword/internal/mem"
	"github.com/hupe1980/subword/internal/model"
	"github.com/hupe1980/subword/internal/quantization"
)

// Model is a trained or loaded model. Read methods (Predict, WordVector,
// SentenceVector, Nearest, ...) are safe for concurrent use. Quantize
// and Close must not run concurrently with anything else.
type Model struct {
	cfg  config.Config
	dict *dictionary.Dictionary
	net  *model.Model
	kern linalg.Kernels
	opts options

	// Dense matrices; input is nil once quantized, output is nil when
	// the output layer is quantized too.
	input  *linalg.Matrix
	output *linalg.Matrix

	qinput  *quantization.QMatrix
	qoutput *quantization.QMatrix

	states sync.Pool

	reserved atomic.Int64
	closed   atomic.Bool

	vecCache *cache.ShardedLRU

	nnOnce sync.Once
	nnVecs *linalg.Matrix
	nnErr  error
}

func matrixBytes(rows, cols int) int64 {
	return int64(rows) * int64(mem.PaddedStride(cols)) * 4
}

// outputCounts returns the frequencies of the output classes.
func outputCounts(cfg config.Config, dict *dictionary.Dictionary) []float64 {
	if cfg.Model == config.Supervised {
		return dict.Counts(dictionary.Label)
	}
	return dict.Counts(dictionary.Word)
}

// newModel wires the network over the given matrices. Either input or
// qinput must be set, and either output or qoutput.
func newModel(cfg config.Config, dict *dictionary.Dictionary, input, output *linalg.Matrix,
	qinput, qoutput *quantization.QMatrix, o options) (*Model, error) {
	net, err := model.New(input, output, cfg, outputCounts(cfg, dict))
	if err != nil {
		return nil, err
	}
	if qinput != nil {
		var out model.Rows
		if qoutput != nil {
			out = qoutput
		}
		net.SetQuantized(qinput, out)
	}

	m := &Model{
		cfg:     cfg,
		dict:    dict,
		net:     net,
		kern:    o.kernels(),
		opts:    o,
		input:   input,
		output:  output,
		qinput:  qinput,
		qoutput: qoutput,
	}
	m.states.New = func() any { return m.net.NewState(cfg.Seed) }
	if o.vectorCacheBytes > 0 {
		m.vecCache = cache.NewShardedLRU(o.vectorCacheBytes, o.resources)
	}
	return m, nil
}

// reserve charges bytes of matrix memory to the resource controller.
func (m *Model) reserve(bytes int64) error {
	if err := m.opts.resources.AcquireMemory(bytes); err != nil {
		return err
	}
	m.reserved.Add(bytes)
	return nil
}

func (m *Model) release(bytes int64) {
	m.opts.resources.ReleaseMemory(bytes)
	m.reserved.Add(-bytes)
}

func (m *Model) state() *model.State { return m.states.Get().(*model.State) }

func (m *Model) putState(s *model.State) { m.states.Put(s) }

// Close releases the memory reserved with the resource controller. The
// model must not be used afterwards.
func (m *Model) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	if m.vecCache != nil {
		m.vecCache.Purge()
	}
	m.release(m.reserved.Load())
	return nil
}

func (m *Model) checkOpen() error {
	if m.closed.Load() {
		return ErrClosed
	}
	return nil
}

// Config returns the configuration of the model.
func (m *Model) Config() config.Config { return m.cfg }

// Dimension returns the embedding dimension.
func (m *Model) Dimension() int { return m.cfg.Dim }

// IsSupervised reports whether the model is a classifier.
func (m *Model) IsSupervised() bool { return m.cfg.Model == config.Supervised }

// IsQuantized reports whether the input matrix is product-quantized.
func (m *Model) IsQuantized() bool { return m.qinput != nil }

// NWords returns the number of words in the vocabulary.
func (m *Model) NWords() int { return int(m.dict.NWords()) }

// NLabels returns the number of labels.
func (m *Model) NLabels() int { return int(m.dict.NLabels()) }

// NTokens returns the number of tokens seen by the vocabulary pass.
func (m *Model) NTokens() int64 { return m.dict.NTokens() }

// Words returns the vocabulary words ordered by descending frequency.
func (m *Model) Words() []string {
	out := make([]string, m.dict.NWords())
	for i := range out {
		out[i] = m.dict.Word(int32(i))
	}
	return out
}

// Labels returns the labels ordered by descending frequency.
func (m *Model) Labels() []string {
	out := make([]string, m.dict.NLabels())
	for i := range out {
		out[i] = m.dict.Word(m.dict.NWords() + int32(i))
	}
	return out
}

// DumpDictionary writes the entry count and one "text weight kind" line
// per vocabulary entry.
func (m *Model) DumpDictionary(w io.Writer) error {
	return m.dict.Dump(w)
}

// SizeBytes returns the memory held by the model matrices.
func (m *Model) SizeBytes() int64 {
	var n int64
	if m.input != nil {
		n += m.input.SizeBytes()
	}
	if m.output != nil {
		n += m.output.SizeBytes()
	}
	if m.qinput != nil {
		n += m.qinput.SizeBytes()
	}
	if m.qoutput != nil {
		n += m.qoutput.SizeBytes()
	}
	return n
}

func (m *Model) String() string {
	return fmt.Sprintf("subword.Model(%s, %s, dim=%d, words=%d, labels=%d, quantized=%t)",
		m.cfg.Model, m.cfg.Loss, m.cfg.Dim, m.dict.NWords(), m.dict.NLabels(), m.IsQuantized())
}
