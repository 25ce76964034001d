package model

import (
	"math"
)

// binaryLogistic applies one logistic update against output row row.
func (m *Model) binaryLogistic(s *State, row int32, label bool, lr float32) (float32, error) {
	hidden := s.hidden.Data()
	d, err := m.wo.DotRow(hidden, int(row))
	if err != nil {
		return 0, err
	}
	score := m.tables.Sigmoid(d)

	var y float32
	if label {
		y = 1
	}
	alpha := lr * (y - score)
	s.grad.AddRow(m.wo, int(row), alpha)
	m.wo.AddRow(hidden, int(row), alpha)

	if label {
		return -m.tables.Log(score), nil
	}
	return -m.tables.Log(1 - score), nil
}

func (m *Model) negativeSampling(s *State, target int32, lr float32) (float32, error) {
	l, err := m.binaryLogistic(s, target, true, lr)
	if err != nil {
		return 0, err
	}
	for n := 0; n < m.neg; n++ {
		neg := m.sampler.Next(target, &s.negPos)
		nl, err := m.binaryLogistic(s, neg, false, lr)
		if err != nil {
			return 0, err
		}
		l += nl
	}
	return l, nil
}

func (m *Model) hierarchicalSoftmax(s *State, target int32, lr float32) (float32, error) {
	var l float32
	path, code := m.tree.Path(target), m.tree.Code(target)
	for i, row := range path {
		bl, err := m.binaryLogistic(s, row, code[i], lr)
		if err != nil {
			return 0, err
		}
		l += bl
	}
	return l, nil
}

// computeOutputSoftmax sets output to the softmax of the output scores of
// hidden.
func (m *Model) computeOutputSoftmax(hidden, output []float32) error {
	maxScore := float32(math.Inf(-1))
	for i := range output {
		d, err := m.out.DotRow(hidden, i)
		if err != nil {
			return err
		}
		output[i] = d
		maxScore = max(maxScore, d)
	}
	var z float32
	for i, v := range output {
		e := float32(math.Exp(float64(v - maxScore)))
		output[i] = e
		z += e
	}
	for i := range output {
		output[i] /= z
	}
	return nil
}

func (m *Model) softmax(s *State, target int32, lr float32) (float32, error) {
	hidden, output := s.hidden.Data(), s.output.Data()
	if err := m.computeOutputSoftmax(hidden, output); err != nil {
		return 0, err
	}
	for i, p := range output {
		var y float32
		if int32(i) == target {
			y = 1
		}
		alpha := lr * (y - p)
		s.grad.AddRow(m.wo, i, alpha)
		m.wo.AddRow(hidden, i, alpha)
	}
	return -m.tables.Log(output[target]), nil
}
