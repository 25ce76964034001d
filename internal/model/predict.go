package model

import (
	"math"

	"github.com/hupe1980/subword/config"
	"github.com/hupe1980/subword/internal/queue"
)

// Prediction is a class with its log probability.
type Prediction struct {
	LogProb float32
	ID      int32
}

// Predict returns up to k classes for ids ordered by descending
// probability. Classes below probability threshold are dropped.
func (m *Model) Predict(s *State, ids []int32, k int, threshold float32) ([]Prediction, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	if m.osz == 0 {
		return nil, nil
	}

	m.ComputeHidden(ids, s.hidden)
	heap := queue.NewMin(k + 1)

	var err error
	if m.loss == config.HierarchicalSoftmax {
		err = m.dfs(s.hidden.Data(), k, threshold, heap)
	} else {
		err = m.findKBest(s.hidden.Data(), s.output.Data(), k, threshold, heap)
	}
	if err != nil {
		return nil, err
	}

	items := heap.SortedDesc()
	out := make([]Prediction, len(items))
	for i, it := range items {
		out[i] = Prediction{LogProb: it.Score, ID: it.ID}
	}
	return out, nil
}

func (m *Model) findKBest(hidden, output []float32, k int, threshold float32, heap *queue.PriorityQueue) error {
	if err := m.computeOutputSoftmax(hidden, output); err != nil {
		return err
	}
	for i, p := range output {
		if p < threshold {
			continue
		}
		score := stdLog(p)
		if top, ok := heap.TopItem(); ok && heap.Len() == k && score < top.Score {
			continue
		}
		heap.PushBounded(queue.Item{ID: int32(i), Score: score}, k)
	}
	return nil
}

type frame struct {
	node  int32
	score float32
}

// dfs walks the softmax tree from the root, pruning subtrees whose score
// falls below log(threshold) or below the k-th best leaf found so far.
func (m *Model) dfs(hidden []float32, k int, threshold float32, heap *queue.PriorityQueue) error {
	t := m.tree
	floor := stdLog(threshold)
	stack := []frame{{node: t.Root()}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.score < floor {
			continue
		}
		if top, ok := heap.TopItem(); ok && heap.Len() == k && f.score < top.Score {
			continue
		}

		if t.isLeaf(f.node) {
			heap.PushBounded(queue.Item{ID: f.node, Score: f.score}, k)
			continue
		}

		d, err := m.out.DotRow(hidden, int(f.node-t.osz))
		if err != nil {
			return err
		}
		p := float32(1 / (1 + math.Exp(-float64(d))))

		n := t.nodes[f.node]
		stack = append(stack,
			frame{node: n.right, score: f.score + stdLog(p)},
			frame{node: n.left, score: f.score + stdLog(1-p)},
		)
	}
	return nil
}
