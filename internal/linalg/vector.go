package linalg

import (
	"github.com/hupe1980/subword/internal/mem"
)

// Vector is an owned, 64-byte aligned float32 buffer.
type Vector struct {
	data []float32
	k    Kernels
}

// NewVector allocates a zeroed vector of length n backed by the active kernels.
func NewVector(n int) *Vector {
	return NewVectorWith(n, Default())
}

// NewVectorWith allocates a zeroed vector of length n backed by k.
func NewVectorWith(n int, k Kernels) *Vector {
	return &Vector{data: mem.AllocAlignedFloat32(n), k: k}
}

// Len returns the number of elements.
func (v *Vector) Len() int { return len(v.data) }

// Data returns the underlying slice. The slice aliases the vector.
func (v *Vector) Data() []float32 { return v.data }

// At returns element i.
func (v *Vector) At(i int) float32 { return v.data[i] }

// Set assigns element i.
func (v *Vector) Set(i int, x float32) { v.data[i] = x }

// Zero sets every element to 0.
func (v *Vector) Zero() { clear(v.data) }

// Mul scales the vector by a.
func (v *Vector) Mul(a float32) { v.k.Scale(a, v.data) }

// Norm returns the L2 norm.
func (v *Vector) Norm() float32 { return v.k.Norm(v.data) }

// AddVector computes v += s*src.
func (v *Vector) AddVector(src *Vector, s float32) { v.k.Axpy(s, src.data, v.data) }

// AddSlice computes v += s*src for a raw slice of the same length.
func (v *Vector) AddSlice(src []float32, s float32) { v.k.Axpy(s, src, v.data) }

// AddRow computes v += a*m[i].
func (v *Vector) AddRow(m *Matrix, i int, a float32) { m.AddRowTo(v.data, i, a) }

// MulMatrix sets v[i] = dot(m[i], src) for every row of m.
// It returns ErrNaN if any product is NaN.
func (v *Vector) MulMatrix(m *Matrix, src *Vector) error {
	for i := range v.data {
		d, err := m.DotRow(src.data, i)
		if err != nil {
			return err
		}
		v.data[i] = d
	}
	return nil
}

// Argmax returns the index of the largest element, or -1 when empty.
func (v *Vector) Argmax() int {
	if len(v.data) == 0 {
		return -1
	}
	best, arg := v.data[0], 0
	for i, x := range v.data[1:] {
		if x > best {
			best, arg = x, i+1
		}
	}
	return arg
}
