package model

import "math"

// maxSigmoid bounds the domain of the sigmoid table to [-8, 8].
const maxSigmoid = 8

// Tables holds lookup approximations of sigmoid and log.
type Tables struct {
	sigmoid []float32
	log     []float32
}

// NewTables precomputes tables with sigmoidSize and logSize steps.
func NewTables(sigmoidSize, logSize int) *Tables {
	t := &Tables{
		sigmoid: make([]float32, sigmoidSize+1),
		log:     make([]float32, logSize+1),
	}
	for i := range t.sigmoid {
		x := float64(i*2*maxSigmoid)/float64(sigmoidSize) - maxSigmoid
		t.sigmoid[i] = float32(1 / (1 + math.Exp(-x)))
	}
	for i := range t.log {
		x := (float64(i) + 1e-5) / float64(logSize)
		t.log[i] = float32(math.Log(x))
	}
	return t
}

// Sigmoid approximates 1/(1+exp(-x)) inside [-8, 8] and computes it
// exactly outside.
func (t *Tables) Sigmoid(x float32) float32 {
	if x < -maxSigmoid || x > maxSigmoid {
		return float32(1 / (1 + math.Exp(-float64(x))))
	}
	size := len(t.sigmoid) - 1
	i := int((x + maxSigmoid) * float32(size) / maxSigmoid / 2)
	return t.sigmoid[i]
}

// Log approximates log(x) for x in [0, 1] and computes it exactly above 1.
func (t *Tables) Log(x float32) float32 {
	if x > 1 {
		return float32(math.Log(float64(x)))
	}
	if x < 0 {
		return float32(math.NaN())
	}
	size := len(t.log) - 1
	return t.log[int(x*float32(size))]
}

// stdLog is log(x + 1e-5), used for scores reported to callers.
func stdLog(x float32) float32 {
	return float32(math.Log(float64(x) + 1e-5))
}
