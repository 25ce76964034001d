package quantization

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/subword/internal/linalg"
	"github.com/hupe1980/subword/persistence"
)

// QMatrix is a product-quantized matrix. With qnorm set, rows are
// normalized before quantization and their norms are quantized
// separately.
type QMatrix struct {
	qnorm     bool
	rows      int
	cols      int
	codes     []uint8
	pq        *ProductQuantizer
	normCodes []uint8
	npq       *ProductQuantizer
}

type flatRows struct {
	data []float32
	dim  int
}

func (f flatRows) Rows() int           { return len(f.data) / f.dim }
func (f flatRows) Row(i int) []float32 { return f.data[i*f.dim : (i+1)*f.dim] }

// Quantize builds a QMatrix from m using sub-vectors of dsub dimensions.
// m is left unchanged.
func Quantize(ctx context.Context, m *linalg.Matrix, dsub int, qnorm bool) (*QMatrix, error) {
	q := &QMatrix{
		qnorm: qnorm,
		rows:  m.Rows(),
		cols:  m.Cols(),
		pq:    NewProductQuantizer(m.Cols(), dsub),
	}
	q.codes = make([]uint8, q.rows*q.pq.NSubQ())

	src := m
	if qnorm {
		tmp := linalg.NewMatrixWith(m.Rows(), m.Cols(), m.Kernels())
		for i := 0; i < m.Rows(); i++ {
			copy(tmp.Row(i), m.Row(i))
		}
		norms := make([]float32, m.Rows())
		if err := tmp.L2NormRows(norms); err != nil {
			return nil, err
		}
		tmp.DivideRow(norms, 0, -1)

		q.npq = NewProductQuantizer(1, 1)
		q.normCodes = make([]uint8, q.rows)
		nr := flatRows{data: norms, dim: 1}
		if err := q.npq.Train(ctx, nr); err != nil {
			return nil, err
		}
		q.npq.ComputeCodes(nr, q.normCodes)
		src = tmp
	}

	if err := q.pq.Train(ctx, src); err != nil {
		return nil, err
	}
	q.pq.ComputeCodes(src, q.codes)
	return q, nil
}

// Rows returns the number of rows.
func (q *QMatrix) Rows() int { return q.rows }

// Cols returns the number of columns.
func (q *QMatrix) Cols() int { return q.cols }

// QNorm reports whether row norms are quantized separately.
func (q *QMatrix) QNorm() bool { return q.qnorm }

// SizeBytes returns the size of the codes and codebooks.
func (q *QMatrix) SizeBytes() int64 {
	n := int64(len(q.codes)) + int64(len(q.pq.centroids))*4
	if q.qnorm {
		n += int64(len(q.normCodes)) + int64(len(q.npq.centroids))*4
	}
	return n
}

func (q *QMatrix) norm(i int) float32 {
	if !q.qnorm {
		return 1
	}
	return q.npq.Centroid(0, q.normCodes[i])[0]
}

// DotRow returns dot(row i, vec).
func (q *QMatrix) DotRow(vec []float32, i int) (float32, error) {
	d := q.pq.MulCode(vec, q.codes, i, q.norm(i))
	if math.IsNaN(float64(d)) {
		return 0, linalg.ErrNaN
	}
	return d, nil
}

// AddRowTo computes dst += a*row i.
func (q *QMatrix) AddRowTo(dst []float32, i int, a float32) {
	q.pq.AddCode(dst, q.codes, i, a*q.norm(i))
}

// WriteTo writes the qnorm flag, the shape, the codes and the quantizers.
func (q *QMatrix) WriteTo(w io.Writer) (int64, error) {
	pw := persistence.NewWriter(w)
	start := pw.N()
	pw.Bool(q.qnorm)
	pw.Int64(int64(q.rows))
	pw.Int64(int64(q.cols))
	pw.Int32(int32(len(q.codes)))
	pw.Bytes(q.codes)
	if _, err := q.pq.WriteTo(pw); err != nil {
		return pw.N() - start, err
	}
	if q.qnorm {
		pw.Bytes(q.normCodes)
		if _, err := q.npq.WriteTo(pw); err != nil {
			return pw.N() - start, err
		}
	}
	return pw.N() - start, pw.Err()
}

// ReadQMatrix reads a matrix written by WriteTo.
func ReadQMatrix(r io.Reader) (*QMatrix, error) {
	pr := persistence.NewReader(r)
	q := &QMatrix{qnorm: pr.Bool()}
	rows := pr.Int64()
	cols := pr.Int64()
	codesize := pr.Int32()
	if err := pr.Err(); err != nil {
		return nil, err
	}
	if rows < 0 || cols <= 0 || rows > math.MaxInt32 || cols > math.MaxInt32 || codesize < 0 {
		return nil, fmt.Errorf("quantization: invalid matrix header %dx%d codesize=%d", rows, cols, codesize)
	}
	q.rows, q.cols = int(rows), int(cols)
	q.codes = make([]uint8, codesize)
	pr.Bytes(q.codes)
	if err := pr.Err(); err != nil {
		return nil, err
	}

	var err error
	if q.pq, err = ReadProductQuantizer(pr); err != nil {
		return nil, err
	}
	if q.pq.Dim() != q.cols || len(q.codes) != q.rows*q.pq.NSubQ() {
		return nil, fmt.Errorf("%w: codes do not match %dx%d", ErrDimensionMismatch, q.rows, q.cols)
	}

	if q.qnorm {
		q.normCodes = make([]uint8, q.rows)
		pr.Bytes(q.normCodes)
		if err := pr.Err(); err != nil {
			return nil, err
		}
		if q.npq, err = ReadProductQuantizer(pr); err != nil {
			return nil, err
		}
		if q.npq.Dim() != 1 {
			return nil, fmt.Errorf("%w: norm quantizer has dimension %d", ErrDimensionMismatch, q.npq.Dim())
		}
	}
	return q, nil
}
