package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniformVectors(t *testing.T) {
	rng := NewRNG(4711)

	v := rng.UniformVectors(8, 32)

	assert.Equal(t, 8, len(v))
	assert.Equal(t, 32, len(v[0]))
	assert.LessOrEqual(t, v[0][0], float32(1.0))
	assert.GreaterOrEqual(t, v[1][0], float32(0.0))
}

func TestClusteredVectors(t *testing.T) {
	rng := NewRNG(4711)

	v := rng.ClusteredVectors(100, 32, 5, 0.1)

	assert.Equal(t, 100, len(v))
	assert.Equal(t, 32, len(v[0]))
	assert.Len(t, Flatten(v), 3200)
	assert.Nil(t, Flatten(nil))
}

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	v1 := rng.GaussianVectors(1, 10)

	rng.Reset()
	v2 := rng.GaussianVectors(1, 10)

	assert.Equal(t, v1, v2)
	assert.Equal(t, int64(4711), rng.Seed())
}

func TestZipf(t *testing.T) {
	rng := NewRNG(42)
	counts := make([]int, 10)
	for range 5000 {
		counts[rng.Zipf(10, 1)]++
	}
	assert.Greater(t, counts[0], counts[9])
	assert.Equal(t, 0, rng.Zipf(1, 1))
}

func TestSupervisedCorpus(t *testing.T) {
	rng := NewRNG(1)
	text := rng.SupervisedCorpus(CorpusSpec{Lines: 6, Labels: 3, LineLen: 4})

	lines := strings.Split(strings.TrimSpace(text), "\n")
	require.Len(t, lines, 6)
	for i, line := range lines {
		fields := strings.Fields(line)
		require.Len(t, fields, 5)
		assert.Equal(t, LabelName(i%3), fields[0])
		for _, w := range fields[1:] {
			assert.True(t, strings.HasPrefix(w, strings.TrimPrefix(LabelName(i%3), "__label__")+"w"), w)
		}
	}
}

func TestSupervisedCorpusWeighted(t *testing.T) {
	rng := NewRNG(1)
	text := rng.SupervisedCorpus(CorpusSpec{Lines: 2, Labels: 1, Weighted: true})
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		assert.Regexp(t, `^[01]\.\d{3} __label__c0 `, line)
	}
}

func TestUnsupervisedCorpus(t *testing.T) {
	rng := NewRNG(1)
	text := rng.UnsupervisedCorpus(CorpusSpec{Lines: 3, LineLen: 6, Vocab: 10})

	lines := strings.Split(strings.TrimSpace(text), "\n")
	require.Len(t, lines, 3)
	for _, line := range lines {
		assert.Len(t, strings.Fields(line), 6)
	}
}

func TestWriteCorpus(t *testing.T) {
	path := WriteCorpus(t, "a b c\n")
	assert.FileExists(t, path)
}
