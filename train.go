package subword

import (
	"context"
	"fmt"
	"io"
	"math"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hupe1980/subword/config"
	"github.com/hupe1980/subword/internal/corpus"
	"github.com/hupe1980/subword/internal/dictionary"
	"github.com/hupe1980/subword/internal/linalg"
	"github.com/hupe1980/subword/internal/mmap"
	"github.com/hupe1980/subword/internal/model"
)

// TrainFile memory-maps the corpus at path and trains a model on it.
func TrainFile(ctx context.Context, cfg config.Config, path string, opts ...Option) (*Model, error) {
	mm, err := mmap.Open(path)
	if err != nil {
		return nil, translateError(err)
	}
	defer mm.Close()
	_ = mm.Advise(mmap.AccessSequential)

	return Train(ctx, cfg, mm, int64(mm.Size()), opts...)
}

// Train learns a model from the first size bytes of r.
//
// A vocabulary pass builds the dictionary, then cfg.Thread workers train
// on line-aligned partitions of the corpus until cfg.Epoch times the
// number of corpus tokens have been processed. Workers update the shared
// matrices without locks. Canceling ctx stops the workers and returns
// ctx.Err().
func Train(ctx context.Context, cfg config.Config, r io.ReaderAt, size int64, opts ...Option) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, translateError(err)
	}
	o := applyOptions(opts)
	log := o.logger.WithModel(cfg.Model.String(), cfg.Dim)

	if size <= 0 {
		return nil, translateError(corpus.ErrEmptyCorpus)
	}
	if err := o.resources.AcquireJob(ctx); err != nil {
		return nil, err
	}
	defer o.resources.ReleaseJob()

	dict := dictionary.New(cfg)
	err := dict.Build(ctx, io.NewSectionReader(r, 0, size))
	log.LogVocabulary(ctx, dict.NWords(), dict.NLabels(), dict.NTokens(), err)
	if err != nil {
		return nil, translateError(err)
	}
	if cfg.Model == config.Supervised && dict.NLabels() == 0 {
		return nil, fmt.Errorf("%w: no labels with prefix %q", ErrEmptyVocabulary, cfg.Label)
	}

	osz := len(outputCounts(cfg, dict))
	inRows := int(dict.NWords()) + cfg.Bucket
	outRows := model.OutputRows(cfg.Loss, osz)

	reserved := matrixBytes(inRows, cfg.Dim) + matrixBytes(outRows, cfg.Dim)
	if err := o.resources.AcquireMemory(reserved); err != nil {
		return nil, translateError(err)
	}

	k := o.kernels()
	input := linalg.NewMatrixWith(inRows, cfg.Dim, k)
	input.Uniform(1/float32(cfg.Dim), cfg.Seed)
	output := linalg.NewMatrixWith(outRows, cfg.Dim, k)

	m, err := newModel(cfg, dict, input, output, nil, nil, o)
	if err != nil {
		o.resources.ReleaseMemory(reserved)
		return nil, translateError(err)
	}
	m.reserved.Store(reserved)

	if err := m.train(ctx, r, size, cfg, log); err != nil {
		_ = m.Close()
		return nil, translateError(err)
	}
	return m, nil
}

// trainer holds the state shared by the workers of one training run.
type trainer struct {
	m     *Model
	net   *model.Model
	cfg   config.Config
	r     io.ReaderAt
	parts []corpus.Partition
	log   *Logger

	total      int64
	tokenCount atomic.Int64
	lossBits   atomic.Uint64
	start      time.Time
	progress   rate.Sometimes
}

// train runs cfg.Thread workers over r against the current network.
func (m *Model) train(ctx context.Context, r io.ReaderAt, size int64, cfg config.Config, log *Logger) error {
	parts, err := corpus.Partitions(r, size, cfg.Thread)
	if err != nil {
		return err
	}

	t := &trainer{
		m:        m,
		net:      m.net,
		cfg:      cfg,
		r:        r,
		parts:    parts,
		log:      log,
		total:    int64(cfg.Epoch) * m.dict.NTokens(),
		start:    time.Now(),
		progress: rate.Sometimes{Interval: m.opts.progressInterval},
	}

	g, gctx := errgroup.WithContext(ctx)
	for id := 0; id < cfg.Thread; id++ {
		g.Go(func() error { return t.worker(gctx, id) })
	}
	err = g.Wait()

	loss := math.Float64frombits(t.lossBits.Load())
	m.opts.metricsCollector.RecordLoss(loss)
	log.LogTrainDone(ctx, t.tokenCount.Load(), loss, time.Since(t.start), err)
	return err
}

func (t *trainer) worker(ctx context.Context, id int) error {
	s := t.net.NewState(uint64(id) + t.cfg.Seed)
	lines := corpus.NewLineReader(t.r, t.parts[id%len(t.parts)])

	var (
		words, labels []int32
		local         int64
	)
	done := ctx.Done()
	for t.tokenCount.Load() < t.total {
		// Lines without tokens never reach a flush, so cancellation is
		// checked on every line.
		select {
		case <-done:
			return ctx.Err()
		default:
		}

		progress := float64(t.tokenCount.Load()) / float64(t.total)
		lr := float32(t.cfg.LR * (1 - progress))

		line, err := lines.Next()
		if err != nil {
			return err
		}
		weight, tokens := corpus.ParseLine(line, t.cfg.HasWeight)
		lr *= float32(weight)

		var n int
		switch t.cfg.Model {
		case config.Supervised:
			words, labels, n = t.m.dict.SupervisedLine(tokens, words, labels)
			err = t.supervised(s, words, labels, lr)
		case config.CBOW:
			words, n = t.m.dict.UnsupervisedLine(tokens, s.Rand(), words)
			err = t.cbow(s, words, lr)
		default:
			words, n = t.m.dict.UnsupervisedLine(tokens, s.Rand(), words)
			err = t.skipgram(s, words, lr)
		}
		if err != nil {
			return err
		}

		local += int64(n)
		if local > int64(t.cfg.LRUpdateRate) {
			t.flush(ctx, s, local, id)
			local = 0
		}
	}
	t.flush(ctx, s, local, id)
	return nil
}

// flush publishes local token counts and, from worker 0, progress.
func (t *trainer) flush(ctx context.Context, s *model.State, local int64, id int) {
	done := t.tokenCount.Add(local)
	t.m.opts.metricsCollector.RecordExamples(local)
	if id != 0 {
		return
	}
	loss := s.Loss()
	t.lossBits.Store(math.Float64bits(loss))
	t.progress.Do(func() {
		elapsed := time.Since(t.start).Seconds()
		progress := min(float64(done)/float64(t.total), 1)
		lr := t.cfg.LR * (1 - progress)
		var wps float64
		if elapsed > 0 {
			wps = float64(done) / elapsed / float64(t.cfg.Thread)
		}
		t.m.opts.metricsCollector.RecordLoss(loss)
		t.log.LogProgress(ctx, progress, float32(lr), loss, wps)
	})
}

// supervised trains one example: the line features against one of its
// labels picked uniformly.
func (t *trainer) supervised(s *model.State, words, labels []int32, lr float32) error {
	if len(labels) == 0 || len(words) == 0 {
		return nil
	}
	target := labels[s.Rand().IntN(len(labels))]
	return t.net.Update(s, words, target, lr)
}

// cbow predicts every word from the features of the words in a random
// window around it.
func (t *trainer) cbow(s *model.State, line []int32, lr float32) error {
	var bow []int32
	for w := range line {
		boundary := 1 + s.Rand().IntN(t.cfg.WindowSize)
		bow = bow[:0]
		for c := -boundary; c <= boundary; c++ {
			if c != 0 && w+c >= 0 && w+c < len(line) {
				bow = append(bow, t.m.dict.SubwordsByID(line[w+c])...)
			}
		}
		if err := t.net.Update(s, bow, line[w], lr); err != nil {
			return err
		}
	}
	return nil
}

// skipgram predicts every word in a random window from the features of
// the center word.
func (t *trainer) skipgram(s *model.State, line []int32, lr float32) error {
	for w := range line {
		boundary := 1 + s.Rand().IntN(t.cfg.WindowSize)
		ngrams := t.m.dict.SubwordsByID(line[w])
		for c := -boundary; c <= boundary; c++ {
			if c != 0 && w+c >= 0 && w+c < len(line) {
				if err := t.net.Update(s, ngrams, line[w+c], lr); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
