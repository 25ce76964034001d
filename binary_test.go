package subword_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/subword"
	"github.com/hupe1980/subword/config"
	"github.com/hupe1980/subword/testutil"
)

func assertSamePredictions(t *testing.T, want, got *subword.Model) {
	t.Helper()
	for c := 0; c < testLabels; c++ {
		a, err := want.Predict(classLine(c), 3, 0)
		require.NoError(t, err)
		b, err := got.Predict(classLine(c), 3, 0)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	m := sharedClassifier(t)

	var buf bytes.Buffer
	n, err := m.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	head := buf.Bytes()
	assert.Equal(t, uint32(subword.Magic), binary.LittleEndian.Uint32(head[0:4]))
	assert.Equal(t, uint32(subword.Version), binary.LittleEndian.Uint32(head[4:8]))

	loaded, err := subword.Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer loaded.Close()

	assert.Equal(t, m.Words(), loaded.Words())
	assert.Equal(t, m.Labels(), loaded.Labels())
	assert.Equal(t, m.NTokens(), loaded.NTokens())
	assert.Equal(t, m.Config().Dim, loaded.Config().Dim)
	assert.Equal(t, m.Config().Loss, loaded.Config().Loss)
	assertSamePredictions(t, m, loaded)

	a, err := m.WordVector(testutil.ClassWord(1, 2))
	require.NoError(t, err)
	b, err := loaded.WordVector(testutil.ClassWord(1, 2))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestWriteReadQuantized(t *testing.T) {
	m := trainOn(t, supervisedConfig(), supervisedCorpus())
	require.NoError(t, m.Quantize(context.Background(), subword.QuantizeOptions{Cutoff: 300}))

	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)

	loaded, err := subword.Read(&buf)
	require.NoError(t, err)
	defer loaded.Close()

	assert.True(t, loaded.IsQuantized())
	assert.Equal(t, m.NWords(), loaded.NWords())
	assertSamePredictions(t, m, loaded)
}

func TestWriteReadUnsupervised(t *testing.T) {
	text := testutil.NewRNG(5).UnsupervisedCorpus(testutil.CorpusSpec{Lines: 200})
	m := trainOn(t, unsupervisedConfig(config.CBOW), text)

	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)

	loaded, err := subword.Read(&buf)
	require.NoError(t, err)
	defer loaded.Close()

	assert.Equal(t, config.CBOW, loaded.Config().Model)
	for _, w := range []string{"w0", "w3", "unseen"} {
		a, err := m.WordVector(w)
		require.NoError(t, err)
		b, err := loaded.WordVector(w)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
}

func TestReadInvalid(t *testing.T) {
	m := sharedClassifier(t)
	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	data := buf.Bytes()

	t.Run("bad magic", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[0] ^= 0xFF
		_, err := subword.Read(bytes.NewReader(bad))
		assert.ErrorIs(t, err, subword.ErrInvalidModel)
	})

	t.Run("bad version", func(t *testing.T) {
		bad := bytes.Clone(data)
		binary.LittleEndian.PutUint32(bad[4:8], 11)
		_, err := subword.Read(bytes.NewReader(bad))
		assert.ErrorIs(t, err, subword.ErrInvalidModel)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := subword.Read(bytes.NewReader(nil))
		assert.ErrorIs(t, err, subword.ErrInvalidModel)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := subword.Read(bytes.NewReader(data[:len(data)/2]))
		assert.Error(t, err)
	})
}

func TestSaveLoadFile(t *testing.T) {
	ctx := context.Background()
	m := sharedClassifier(t)
	path := filepath.Join(t.TempDir(), "model.bin")

	require.NoError(t, m.SaveFile(ctx, path))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	loaded, err := subword.LoadFile(ctx, path)
	require.NoError(t, err)
	defer loaded.Close()
	assertSamePredictions(t, m, loaded)

	_, err = subword.LoadFile(ctx, filepath.Join(t.TempDir(), "missing.bin"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFileMemoryLimit(t *testing.T) {
	ctx := context.Background()
	m := sharedClassifier(t)
	path := filepath.Join(t.TempDir(), "model.bin")
	require.NoError(t, m.SaveFile(ctx, path))

	rc := subword.NewResourceController(subword.ResourceLimits{MemoryLimitBytes: 64})
	_, err := subword.LoadFile(ctx, path, subword.WithResourceController(rc))
	assert.ErrorIs(t, err, subword.ErrMemoryLimitExceeded)
	assert.Zero(t, rc.MemoryUsage())
}
