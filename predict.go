package subword

import (
	"context"
	"io"
	"math"
	"time"

	"github.com/hupe1980/subword/internal/corpus"
)

// Prediction is a label with its probability.
type Prediction struct {
	Label       string
	Probability float32
}

// Predict returns up to k labels for line, ordered by descending
// probability. Labels with a probability below threshold are dropped.
// A line without known features yields no predictions.
func (m *Model) Predict(line string, k int, threshold float32) (preds []Prediction, err error) {
	start := time.Now()
	defer func() {
		m.opts.metricsCollector.RecordPredict(k, time.Since(start), err)
	}()

	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	if !m.IsSupervised() {
		return nil, ErrNotSupervised
	}
	if k <= 0 {
		return nil, ErrInvalidK
	}

	_, tokens := corpus.ParseLine(line, false)
	words, _, _ := m.dict.SupervisedLine(tokens, nil, nil)
	if len(words) == 0 {
		return nil, nil
	}

	s := m.state()
	defer m.putState(s)

	raw, err := m.net.Predict(s, words, k, threshold)
	if err != nil {
		return nil, translateError(err)
	}

	preds = make([]Prediction, 0, len(raw))
	for _, p := range raw {
		label, err := m.dict.Label(p.ID)
		if err != nil {
			return nil, err
		}
		preds = append(preds, Prediction{
			Label:       label,
			Probability: float32(min(math.Exp(float64(p.LogProb)), 1)),
		})
	}
	return preds, nil
}

// PredictLines calls fn with the predictions of every line of r. It
// stops at the first error, including one returned by fn, and when ctx
// is canceled.
func (m *Model) PredictLines(ctx context.Context, r io.Reader, k int, threshold float32,
	fn func(line int, preds []Prediction) error) error {
	n := 0
	return corpus.ScanLines(ctx, r, func(line string) error {
		preds, err := m.Predict(line, k, threshold)
		if err != nil {
			return err
		}
		n++
		return fn(n, preds)
	})
}
