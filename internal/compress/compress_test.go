package compress

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("the quick brown fox "), 2000)

	for _, alg := range []Algorithm{None, LZ4, ZSTD} {
		t.Run(alg.String(), func(t *testing.T) {
			out, err := Compress(data, alg)
			require.NoError(t, err)
			assert.True(t, IsCompressed(out))
			if alg != None {
				assert.Less(t, len(out), len(data)/2)
			}

			got, err := Decompress(out)
			require.NoError(t, err)
			assert.Equal(t, data, got)
		})
	}
}

func TestWriterBlocks(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, LZ4, 1024)

	data := bytes.Repeat([]byte("block data "), 500)
	n, err := w.Write(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.Equal(t, int64(buf.Len()), w.BytesWritten())

	_, err = w.Write([]byte("x"))
	assert.Error(t, err)

	r, err := NewReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, LZ4, r.Algorithm())

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestIncompressibleStoredRaw(t *testing.T) {
	data := make([]byte, 1000)
	for i := range data {
		data[i] = byte(i * 17 % 251)
	}
	out, err := Compress(data, LZ4)
	require.NoError(t, err)

	got, err := Decompress(out)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestEmptyStream(t *testing.T) {
	out, err := Compress(nil, ZSTD)
	require.NoError(t, err)
	assert.Len(t, out, len(magic)+1+blockHeaderSize)

	got, err := Decompress(out)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCorruption(t *testing.T) {
	data := bytes.Repeat([]byte("abc"), 100)
	out, err := Compress(data, None)
	require.NoError(t, err)

	flipped := append([]byte(nil), out...)
	flipped[len(magic)+1+blockHeaderSize+5] ^= 0xFF
	_, err = Decompress(flipped)
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = Decompress(out[:len(out)-blockHeaderSize])
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = Decompress([]byte("plain model bytes"))
	assert.ErrorIs(t, err, ErrNotCompressed)
}

func TestParseAlgorithm(t *testing.T) {
	for in, want := range map[string]Algorithm{"": None, "none": None, "LZ4": LZ4, "zstd": ZSTD, "zst": ZSTD} {
		got, err := ParseAlgorithm(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseAlgorithm("brotli")
	assert.Error(t, err)
	assert.Equal(t, "Algorithm(9)", Algorithm(9).String())
}
