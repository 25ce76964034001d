package subword

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/hupe1980/subword/config"
	"github.com/hupe1980/subword/internal/compress"
	"github.com/hupe1980/subword/internal/dictionary"
	"github.com/hupe1980/subword/internal/linalg"
	"github.com/hupe1980/subword/internal/model"
	"github.com/hupe1980/subword/internal/quantization"
	"github.com/hupe1980/subword/internal/resource"
	"github.com/hupe1980/subword/persistence"
)

const (
	// Magic identifies a model stream.
	Magic int32 = 793712314
	// Version is the model stream version written by WriteTo.
	Version int32 = 12
)

// WriteTo writes the model: magic and version (int32), the config, the
// dictionary, a quantized-input flag, the input matrix, a
// quantized-output flag and the output matrix. All fields are
// little-endian.
func (m *Model) WriteTo(w io.Writer) (int64, error) {
	if err := m.checkOpen(); err != nil {
		return 0, err
	}
	pw := persistence.NewWriter(w)
	start := pw.N()
	pw.Int32(Magic)
	pw.Int32(Version)

	sections := []io.WriterTo{&m.cfg, m.dict}
	for _, s := range sections {
		if _, err := s.WriteTo(pw); err != nil {
			return pw.N() - start, err
		}
	}

	pw.Bool(m.qinput != nil)
	var in io.WriterTo = m.input
	if m.qinput != nil {
		in = m.qinput
	}
	if _, err := in.WriteTo(pw); err != nil {
		return pw.N() - start, err
	}

	pw.Bool(m.qoutput != nil)
	var out io.WriterTo = m.output
	if m.qoutput != nil {
		out = m.qoutput
	}
	if _, err := out.WriteTo(pw); err != nil {
		return pw.N() - start, err
	}
	return pw.N() - start, pw.Err()
}

// Read reads a model written by WriteTo. Compressed streams produced by
// Publish are not accepted here; use OpenPublished for those.
func Read(r io.Reader, opts ...Option) (*Model, error) {
	o := applyOptions(opts)
	m, err := readModel(r, o)
	if err != nil {
		return nil, translateError(err)
	}
	return m, nil
}

func readModel(r io.Reader, o options) (*Model, error) {
	pr := persistence.NewReader(r)
	magic := pr.Int32()
	version := pr.Int32()
	if err := pr.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}
	if magic != Magic {
		return nil, fmt.Errorf("%w: bad magic %d", ErrInvalidModel, magic)
	}
	if version != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidModel, version)
	}

	cfg := config.Default()
	if _, err := cfg.ReadFrom(pr); err != nil {
		return nil, fmt.Errorf("%w: config: %w", ErrInvalidModel, err)
	}
	if cfg.Dim <= 0 || cfg.Model < config.CBOW || cfg.Model > config.Supervised ||
		cfg.Loss < config.HierarchicalSoftmax || cfg.Loss > config.Softmax {
		return nil, fmt.Errorf("%w: config out of range (dim %d, model %d, loss %d)",
			ErrInvalidModel, cfg.Dim, cfg.Model, cfg.Loss)
	}

	dict, err := dictionary.Read(pr, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}

	k := o.kernels()
	var (
		input, output   *linalg.Matrix
		qinput, qoutput *quantization.QMatrix
	)

	quant := pr.Bool()
	if err := pr.Err(); err != nil {
		return nil, err
	}
	if !quant && dict.IsPruned() {
		return nil, fmt.Errorf("%w: pruned dictionary requires a quantized input matrix", ErrInvalidModel)
	}
	if quant {
		qinput, err = quantization.ReadQMatrix(pr)
	} else {
		input, err = linalg.ReadMatrix(pr, k)
	}
	if err != nil {
		return nil, err
	}

	qout := pr.Bool()
	if err := pr.Err(); err != nil {
		return nil, err
	}
	if qout && !quant {
		return nil, fmt.Errorf("%w: quantized output without quantized input", ErrInvalidModel)
	}
	if qout {
		qoutput, err = quantization.ReadQMatrix(pr)
	} else {
		output, err = linalg.ReadMatrix(pr, k)
	}
	if err != nil {
		return nil, err
	}

	if err := checkShapes(cfg, dict, input, output, qinput, qoutput); err != nil {
		return nil, err
	}

	var reserved int64
	if input != nil {
		reserved += input.SizeBytes()
	}
	if output != nil {
		reserved += output.SizeBytes()
	}
	if qinput != nil {
		reserved += qinput.SizeBytes()
	}
	if qoutput != nil {
		reserved += qoutput.SizeBytes()
	}
	if err := o.resources.AcquireMemory(reserved); err != nil {
		return nil, err
	}

	m, err := newModel(cfg, dict, input, output, qinput, qoutput, o)
	if err != nil {
		o.resources.ReleaseMemory(reserved)
		return nil, err
	}
	m.reserved.Store(reserved)
	return m, nil
}

// checkShapes verifies that the matrices agree with the config and the
// dictionary. Nil matrices are skipped.
func checkShapes(cfg config.Config, dict *dictionary.Dictionary, input, output *linalg.Matrix,
	qinput, qoutput *quantization.QMatrix) error {
	inRows := int(dict.NWords()) + cfg.Bucket
	if dict.IsPruned() {
		inRows = int(dict.NWords()) + len(dict.Retained())
	}
	outRows := model.OutputRows(cfg.Loss, len(outputCounts(cfg, dict)))

	type shape struct {
		name       string
		rows, cols int
		wantRows   int
	}
	var shapes []shape
	if input != nil {
		shapes = append(shapes, shape{"input", input.Rows(), input.Cols(), inRows})
	}
	if qinput != nil {
		shapes = append(shapes, shape{"input", qinput.Rows(), qinput.Cols(), inRows})
	}
	if output != nil {
		shapes = append(shapes, shape{"output", output.Rows(), output.Cols(), outRows})
	}
	if qoutput != nil {
		shapes = append(shapes, shape{"output", qoutput.Rows(), qoutput.Cols(), outRows})
	}
	for _, s := range shapes {
		if s.cols != cfg.Dim {
			return &ErrDimensionMismatch{Expected: cfg.Dim, Actual: s.cols}
		}
		if s.rows != s.wantRows {
			return fmt.Errorf("%w: %s matrix has %d rows, want %d", ErrInvalidModel, s.name, s.rows, s.wantRows)
		}
	}
	return nil
}

// SaveFile writes the model to path atomically. Writes draw from the IO
// budget of the resource controller, if any.
func (m *Model) SaveFile(ctx context.Context, path string) error {
	err := persistence.SaveToFile(path, func(w io.Writer) error {
		_, err := m.WriteTo(resource.NewRateLimitedWriter(ctx, w, m.opts.resources))
		return err
	})
	m.opts.logger.LogSave(ctx, "save", path, err)
	return translateError(err)
}

// LoadFile reads a model from path. Both plain model files and the
// compressed form written by Publish are accepted.
func LoadFile(ctx context.Context, path string, opts ...Option) (*Model, error) {
	o := applyOptions(opts)
	var m *Model
	err := persistence.LoadFromFile(path, func(r io.Reader) error {
		var err error
		m, err = readMaybeCompressed(resource.NewRateLimitedReader(ctx, r, o.resources), o)
		return err
	})
	o.logger.LogSave(ctx, "load", path, err)
	if err != nil {
		return nil, translateError(err)
	}
	return m, nil
}

// readMaybeCompressed reads a model, decompressing the stream first when
// it starts with the block compression header.
func readMaybeCompressed(r io.Reader, o options) (*Model, error) {
	br := bufio.NewReader(r)
	prefix, _ := br.Peek(5)
	if !compress.IsCompressed(prefix) {
		return readModel(br, o)
	}
	cr, err := compress.NewReader(br)
	if err != nil {
		return nil, err
	}
	return readModel(bufio.NewReaderSize(cr, 256*1024), o)
}
