package linalg

import "math"

type genericKernels struct{}

func (genericKernels) Backend() Backend { return Generic }

func (genericKernels) Dot(a, b []float32) float32 {
	var s0, s1, s2, s3 float32
	n := len(a)
	i := 0
	for ; i+4 <= n; i += 4 {
		s0 += a[i] * b[i]
		s1 += a[i+1] * b[i+1]
		s2 += a[i+2] * b[i+2]
		s3 += a[i+3] * b[i+3]
	}
	for ; i < n; i++ {
		s0 += a[i] * b[i]
	}
	return s0 + s1 + s2 + s3
}

func (genericKernels) Axpy(alpha float32, x, y []float32) {
	y = y[:len(x)]
	for i, v := range x {
		y[i] += alpha * v
	}
}

func (genericKernels) Scale(alpha float32, x []float32) {
	for i := range x {
		x[i] *= alpha
	}
}

func (k genericKernels) Norm(x []float32) float32 {
	return float32(math.Sqrt(float64(k.Dot(x, x))))
}

func (genericKernels) SquaredL2(a, b []float32) float32 {
	var d float32
	b = b[:len(a)]
	for i := range a {
		t := a[i] - b[i]
		d += t * t
	}
	return d
}
