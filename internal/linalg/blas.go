package linalg

import "gonum.org/v1/gonum/blas/blas32"

type blasKernels struct{}

func (blasKernels) Backend() Backend { return BLAS }

func vec(x []float32) blas32.Vector {
	return blas32.Vector{N: len(x), Inc: 1, Data: x}
}

func (blasKernels) Dot(a, b []float32) float32 {
	if len(a) == 0 {
		return 0
	}
	return blas32.Dot(vec(a), vec(b[:len(a)]))
}

func (blasKernels) Axpy(alpha float32, x, y []float32) {
	if len(x) == 0 {
		return
	}
	blas32.Axpy(alpha, vec(x), vec(y[:len(x)]))
}

func (blasKernels) Scale(alpha float32, x []float32) {
	if len(x) == 0 {
		return
	}
	blas32.Scal(alpha, vec(x))
}

func (blasKernels) Norm(x []float32) float32 {
	if len(x) == 0 {
		return 0
	}
	return blas32.Nrm2(vec(x))
}

// SquaredL2 has no BLAS level-1 equivalent; it uses the portable loop.
func (blasKernels) SquaredL2(a, b []float32) float32 {
	return genericKernels{}.SquaredL2(a, b)
}
