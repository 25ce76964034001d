package subword_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/subword"
	"github.com/hupe1980/subword/config"
	"github.com/hupe1980/subword/testutil"
)

const testLabels = 3

func supervisedConfig() config.Config {
	cfg := config.DefaultSupervised()
	cfg.Dim = 16
	cfg.Epoch = 20
	cfg.LR = 0.5
	cfg.Thread = 1
	cfg.Seed = 42
	cfg.Bucket = 1000
	cfg.NegativeTableSize = 10000
	return cfg
}

func unsupervisedConfig(kind config.ModelKind) config.Config {
	cfg := config.Default()
	cfg.Model = kind
	cfg.Dim = 16
	cfg.Epoch = 5
	cfg.Thread = 2
	cfg.Seed = 7
	cfg.MinCount = 1
	cfg.Bucket = 500
	cfg.Minn = 2
	cfg.Maxn = 3
	cfg.SamplingThreshold = 0.1
	cfg.NegativeTableSize = 10000
	return cfg
}

func supervisedCorpus() string {
	return testutil.NewRNG(1).SupervisedCorpus(testutil.CorpusSpec{Lines: 300, Labels: testLabels})
}

func trainOn(t *testing.T, cfg config.Config, text string, opts ...subword.Option) *subword.Model {
	t.Helper()
	r := strings.NewReader(text)
	m, err := subword.Train(context.Background(), cfg, r, int64(len(text)), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

var (
	sharedOnce  sync.Once
	sharedModel *subword.Model
	sharedErr   error
)

// sharedClassifier returns a read-only supervised model shared by tests
// that do not mutate it.
func sharedClassifier(t *testing.T) *subword.Model {
	t.Helper()
	sharedOnce.Do(func() {
		text := supervisedCorpus()
		sharedModel, sharedErr = subword.Train(context.Background(), supervisedConfig(),
			strings.NewReader(text), int64(len(text)))
	})
	require.NoError(t, sharedErr)
	return sharedModel
}

// classLine returns a line made of the most frequent words of class c.
func classLine(c int) string {
	words := make([]string, 4)
	for j := range words {
		words[j] = testutil.ClassWord(c, j)
	}
	return strings.Join(words, " ")
}
