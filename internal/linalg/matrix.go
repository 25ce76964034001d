package linalg

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"

	"github.com/hupe1980/subword/internal/mem"
	"github.com/hupe1980/subword/persistence"
)

// ErrNaN is returned when a dot product or norm evaluates to NaN.
var ErrNaN = errors.New("linalg: encountered NaN")

// Matrix is a dense row-major float32 matrix whose rows are padded to a
// 64-byte stride.
//
// Concurrent AddRow calls on the same row race. Training relies on this
// being tolerated; callers that need exact results must serialize access.
type Matrix struct {
	rows   int
	cols   int
	stride int
	data   []float32
	k      Kernels
}

// NewMatrix allocates a zeroed rows x cols matrix backed by the active kernels.
func NewMatrix(rows, cols int) *Matrix {
	return NewMatrixWith(rows, cols, Default())
}

// NewMatrixWith allocates a zeroed rows x cols matrix backed by k.
func NewMatrixWith(rows, cols int, k Kernels) *Matrix {
	stride := mem.PaddedStride(cols)
	return &Matrix{
		rows:   rows,
		cols:   cols,
		stride: stride,
		data:   mem.AllocAlignedFloat32(rows * stride),
		k:      k,
	}
}

// Clone returns a deep copy of m sharing its kernels.
func (m *Matrix) Clone() *Matrix {
	c := NewMatrixWith(m.rows, m.cols, m.k)
	copy(c.data, m.data)
	return c
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the logical number of columns.
func (m *Matrix) Cols() int { return m.cols }

// Stride returns the padded row length in elements.
func (m *Matrix) Stride() int { return m.stride }

// Kernels returns the kernels used by the matrix.
func (m *Matrix) Kernels() Kernels { return m.k }

// SizeBytes returns the size of the backing buffer.
func (m *Matrix) SizeBytes() int64 { return int64(len(m.data)) * 4 }

// Row returns row i without padding. The slice aliases the matrix.
func (m *Matrix) Row(i int) []float32 {
	off := i * m.stride
	return m.data[off : off+m.cols : off+m.cols]
}

// At returns element (i, j).
func (m *Matrix) At(i, j int) float32 { return m.Row(i)[j] }

// Set assigns element (i, j).
func (m *Matrix) Set(i, j int, x float32) { m.Row(i)[j] = x }

// Zero sets every element to 0.
func (m *Matrix) Zero() { clear(m.data) }

// Uniform fills the matrix with values drawn uniformly from [-a, a).
func (m *Matrix) Uniform(a float32, seed uint64) {
	rng := rand.New(rand.NewPCG(seed, 0)) //nolint:gosec // deterministic init
	for i := 0; i < m.rows; i++ {
		row := m.Row(i)
		for j := range row {
			row[j] = (rng.Float32()*2 - 1) * a
		}
	}
}

// DotRow returns dot(m[i], vec). vec must have Cols elements.
func (m *Matrix) DotRow(vec []float32, i int) (float32, error) {
	d := m.k.Dot(m.Row(i), vec)
	if math.IsNaN(float64(d)) {
		return 0, fmt.Errorf("dot row %d: %w", i, ErrNaN)
	}
	return d, nil
}

// AddRow computes m[i] += a*vec.
func (m *Matrix) AddRow(vec []float32, i int, a float32) {
	m.k.Axpy(a, vec, m.Row(i))
}

// AddRowTo computes dst += a*m[i].
func (m *Matrix) AddRowTo(dst []float32, i int, a float32) {
	m.k.Axpy(a, m.Row(i), dst)
}

// MultiplyRow scales each row r in [ib, ie) by nums[r-ib].
// ie == -1 means all rows.
func (m *Matrix) MultiplyRow(nums []float32, ib, ie int) {
	if ie == -1 {
		ie = m.rows
	}
	for i := ib; i < ie; i++ {
		n := nums[i-ib]
		if n != 0 {
			m.k.Scale(n, m.Row(i))
		}
	}
}

// DivideRow divides each row r in [ib, ie) by denoms[r-ib]. Zero
// denominators leave the row unchanged. ie == -1 means all rows.
func (m *Matrix) DivideRow(denoms []float32, ib, ie int) {
	if ie == -1 {
		ie = m.rows
	}
	for i := ib; i < ie; i++ {
		n := denoms[i-ib]
		if n != 0 {
			m.k.Scale(1/n, m.Row(i))
		}
	}
}

// L2NormRow returns the L2 norm of row i.
func (m *Matrix) L2NormRow(i int) (float32, error) {
	n := m.k.Norm(m.Row(i))
	if math.IsNaN(float64(n)) {
		return 0, fmt.Errorf("norm row %d: %w", i, ErrNaN)
	}
	return n, nil
}

// L2NormRows writes the norm of every row into norms.
func (m *Matrix) L2NormRows(norms []float32) error {
	for i := 0; i < m.rows; i++ {
		n, err := m.L2NormRow(i)
		if err != nil {
			return err
		}
		norms[i] = n
	}
	return nil
}

// WriteTo writes rows (int64), cols (int64) and the padded row data.
func (m *Matrix) WriteTo(w io.Writer) (int64, error) {
	pw := persistence.NewWriter(w)
	start := pw.N()
	pw.Int64(int64(m.rows))
	pw.Int64(int64(m.cols))
	pw.Float32Slice(m.data)
	return pw.N() - start, pw.Err()
}

// ReadMatrix reads a matrix written by WriteTo.
func ReadMatrix(r io.Reader, k Kernels) (*Matrix, error) {
	pr := persistence.NewReader(r)
	rows := pr.Int64()
	cols := pr.Int64()
	if err := pr.Err(); err != nil {
		return nil, err
	}
	if rows < 0 || cols < 0 || rows > math.MaxInt32 || cols > math.MaxInt32 {
		return nil, fmt.Errorf("linalg: invalid matrix shape %dx%d", rows, cols)
	}
	m := NewMatrixWith(int(rows), int(cols), k)
	pr.Float32Slice(m.data)
	if err := pr.Err(); err != nil {
		return nil, err
	}
	return m, nil
}
