package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, SkipGram, c.Model)
	assert.Equal(t, NegativeSampling, c.Loss)
	assert.Equal(t, 2000000, c.Bucket)

	s := DefaultSupervised()
	require.NoError(t, s.Validate())
	assert.Equal(t, Supervised, s.Model)
	assert.Equal(t, Softmax, s.Loss)
	assert.Zero(t, s.Maxn)
	assert.Equal(t, 1, s.MinCount)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"dim", func(c *Config) { c.Dim = 0 }, "dim"},
		{"model", func(c *Config) { c.Model = 9 }, "model"},
		{"loss", func(c *Config) { c.Loss = 0 }, "loss"},
		{"neg", func(c *Config) { c.Neg = 0 }, "neg"},
		{"minn", func(c *Config) { c.Minn = 7 }, "minn"},
		{"label", func(c *Config) { c.Label = "" }, "label"},
		{"lr", func(c *Config) { c.LR = 0 }, "lr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			err := c.Validate()

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestParseKinds(t *testing.T) {
	m, err := ParseModelKind("SG")
	require.NoError(t, err)
	assert.Equal(t, SkipGram, m)

	_, err = ParseModelKind("lstm")
	assert.Error(t, err)

	l, err := ParseLossKind("softmax")
	require.NoError(t, err)
	assert.Equal(t, Softmax, l)
	assert.Equal(t, "hs", HierarchicalSoftmax.String())
	assert.Equal(t, "ModelKind(0)", ModelKind(0).String())
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: supervised\nloss: hs\ndim: 16\nminn: 2\nmaxn: 4\n"), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Supervised, c.Model)
	assert.Equal(t, HierarchicalSoftmax, c.Loss)
	assert.Equal(t, 16, c.Dim)
	assert.Equal(t, 2, c.Minn)
	assert.Equal(t, 5, c.WindowSize)
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"model":"cbow","bucket":1000,"label":"#"}`), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, CBOW, c.Model)
	assert.Equal(t, 1000, c.Bucket)
	assert.Equal(t, "#", c.Label)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"model":"rnn"}`), 0o600))
	_, err = Load(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yml")
	require.NoError(t, os.WriteFile(invalid, []byte("dim: -1\n"), 0o600))
	_, err = Load(invalid)
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestBinaryRoundTrip(t *testing.T) {
	c := DefaultSupervised()
	c.Dim = 42
	c.WordNgrams = 2
	c.Label = "__tag__"
	c.MinCountLabel = 3
	c.HasWeight = true

	var buf bytes.Buffer
	n, err := c.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	got := Default()
	m, err := got.ReadFrom(&buf)
	require.NoError(t, err)
	assert.Equal(t, n, m)

	assert.Equal(t, c.Dim, got.Dim)
	assert.Equal(t, c.Model, got.Model)
	assert.Equal(t, c.Loss, got.Loss)
	assert.Equal(t, c.WordNgrams, got.WordNgrams)
	assert.Equal(t, c.Maxn, got.Maxn)
	assert.Equal(t, c.SamplingThreshold, got.SamplingThreshold)
	assert.Equal(t, "__tag__", got.Label)
	assert.Equal(t, 3, got.MinCountLabel)
	assert.True(t, got.HasWeight)
}
