package subword

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/hupe1980/subword/config"
	"github.com/hupe1980/subword/internal/dictionary"
	"github.com/hupe1980/subword/internal/linalg"
	"github.com/hupe1980/subword/internal/model"
	"github.com/hupe1980/subword/internal/quantization"
)

// OutputDSub is the sub-vector size used when the output matrix is
// quantized.
const OutputDSub = 2

// QuantizeOptions configures Model.Quantize.
type QuantizeOptions struct {
	// DSub is the sub-vector size of the input quantizer. Zero uses the
	// model configuration (default 2).
	DSub int
	// QNorm quantizes row norms with a separate one-dimensional quantizer.
	QNorm bool
	// QOut quantizes the output matrix too.
	QOut bool
	// Cutoff keeps only the Cutoff input rows with the largest norms and
	// prunes the vocabulary to match. Zero keeps every row.
	Cutoff int
	// Retrain fine-tunes the pruned input matrix on Corpus before
	// quantizing. Needs Cutoff.
	Retrain bool

	// Corpus and CorpusSize provide the retraining data.
	Corpus     io.ReaderAt
	CorpusSize int64
	// Epoch, LR and Thread override the model configuration for
	// retraining when positive.
	Epoch  int
	LR     float64
	Thread int
}

// Quantize compresses the input matrix (and optionally the output
// matrix) with product quantization. Only supervised models can be
// quantized. Quantization cannot be undone.
func (m *Model) Quantize(ctx context.Context, qo QuantizeOptions) (err error) {
	start := time.Now()
	rows := 0
	defer func() {
		err = translateError(err)
		m.opts.metricsCollector.RecordQuantize(time.Since(start), err)
		m.opts.logger.LogQuantize(ctx, rows, m.SizeBytes(), time.Since(start), err)
	}()

	if err := m.checkOpen(); err != nil {
		return err
	}
	if !m.IsSupervised() {
		return ErrNotSupervised
	}
	if m.IsQuantized() {
		return ErrQuantized
	}
	if qo.DSub <= 0 {
		qo.DSub = m.cfg.DSub
	}
	if qo.Retrain && qo.Corpus == nil {
		return errors.New("retrain needs a corpus")
	}

	if err := m.opts.resources.AcquireJob(ctx); err != nil {
		return err
	}
	defer m.opts.resources.ReleaseJob()

	cfg := m.cfg
	dict := m.dict
	input := m.input
	output := m.output

	if qo.Cutoff > 0 && qo.Cutoff < input.Rows() {
		dict, input, err = m.prune(qo.Cutoff)
		if err != nil {
			return err
		}
		tmp := matrixBytes(input.Rows(), cfg.Dim)
		if err := m.opts.resources.AcquireMemory(tmp); err != nil {
			return err
		}
		defer m.opts.resources.ReleaseMemory(tmp)

		if qo.Retrain {
			if err := m.opts.resources.AcquireMemory(output.SizeBytes()); err != nil {
				return err
			}
			defer m.opts.resources.ReleaseMemory(output.SizeBytes())
			if output, err = m.retrain(ctx, qo, cfg, dict, input); err != nil {
				return err
			}
		}
	}
	rows = input.Rows()

	qin, err := quantization.Quantize(ctx, input, qo.DSub, qo.QNorm)
	if err != nil {
		return err
	}
	var qout *quantization.QMatrix
	if qo.QOut {
		qout, err = quantization.Quantize(ctx, output, OutputDSub, qo.QNorm)
		if err != nil {
			return err
		}
		output = nil
	}

	cfg.DSub = qo.DSub
	cfg.QNorm = qo.QNorm
	cfg.QOut = qo.QOut
	cfg.Cutoff = qo.Cutoff
	cfg.Retrain = qo.Retrain

	next, err := newModel(cfg, dict, nil, output, qin, qout, m.opts)
	if err != nil {
		return err
	}
	if err := m.resize(next.SizeBytes()); err != nil {
		return err
	}

	m.cfg = cfg
	m.dict = dict
	m.net = next.net
	m.input, m.output = nil, output
	m.qinput, m.qoutput = qin, qout
	m.states = sync.Pool{New: func() any { return m.net.NewState(cfg.Seed) }}
	m.nnOnce = sync.Once{}
	m.nnVecs, m.nnErr = nil, nil
	if m.vecCache != nil {
		m.vecCache.Purge()
	}
	return nil
}

// resize adjusts the memory reservation of the model to bytes.
func (m *Model) resize(bytes int64) error {
	switch cur := m.reserved.Load(); {
	case bytes > cur:
		return m.reserve(bytes - cur)
	case bytes < cur:
		m.release(cur - bytes)
	}
	return nil
}

// selectEmbeddings returns the cutoff input rows with the largest L2
// norms. The EOS row, when present, is always kept.
func (m *Model) selectEmbeddings(cutoff int) ([]int32, error) {
	norms := make([]float32, m.input.Rows())
	if err := m.input.L2NormRows(norms); err != nil {
		return nil, err
	}

	idx := make([]int32, len(norms))
	for i := range idx {
		idx[i] = int32(i)
	}
	eos := m.dict.ID(dictionary.EOS)
	slices.SortStableFunc(idx, func(a, b int32) int {
		switch {
		case a == eos:
			return -1
		case b == eos:
			return 1
		}
		return cmp.Compare(norms[b], norms[a])
	})
	return idx[:cutoff], nil
}

// prune returns a pruned copy of the dictionary and the matching input
// rows. The model itself is left unchanged.
func (m *Model) prune(cutoff int) (*dictionary.Dictionary, *linalg.Matrix, error) {
	idx, err := m.selectEmbeddings(cutoff)
	if err != nil {
		return nil, nil, err
	}

	var buf bytes.Buffer
	if _, err := m.dict.WriteTo(&buf); err != nil {
		return nil, nil, err
	}
	dict, err := dictionary.Read(&buf, m.cfg)
	if err != nil {
		return nil, nil, err
	}

	rows := dict.Prune(idx)
	input := linalg.NewMatrixWith(len(rows), m.cfg.Dim, m.kern)
	for i, r := range rows {
		copy(input.Row(i), m.input.Row(int(r)))
	}
	return dict, input, nil
}

// retrain fine-tunes a pruned input matrix against a copy of the dense
// output matrix of m and returns the trained copy. m is left untouched.
func (m *Model) retrain(ctx context.Context, qo QuantizeOptions, cfg config.Config,
	dict *dictionary.Dictionary, input *linalg.Matrix) (*linalg.Matrix, error) {
	if qo.Epoch > 0 {
		cfg.Epoch = qo.Epoch
	}
	if qo.LR > 0 {
		cfg.LR = qo.LR
	}
	if qo.Thread > 0 {
		cfg.Thread = qo.Thread
	}

	output := m.output.Clone()

	net, err := model.New(input, output, cfg, outputCounts(cfg, dict))
	if err != nil {
		return nil, err
	}
	tmp := &Model{cfg: cfg, dict: dict, net: net, kern: m.kern, opts: m.opts}
	log := m.opts.logger.WithModel(cfg.Model.String(), cfg.Dim)
	if err := tmp.train(ctx, qo.Corpus, qo.CorpusSize, cfg, log); err != nil {
		return nil, err
	}
	return output, nil
}
