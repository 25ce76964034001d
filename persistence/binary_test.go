package persistence

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Int32(-7)
	w.Int64(1 << 40)
	w.Float32(1.5)
	w.Float64(0.25)
	w.Byte(9)
	w.Bool(true)
	w.CString("hello")
	w.Float32Slice([]float32{1, 2, 3})
	w.Bytes([]byte{0xAA, 0xBB})
	require.NoError(t, w.Err())
	assert.Equal(t, int64(4+8+4+8+1+1+6+12+2), w.N())
	assert.Equal(t, int(w.N()), buf.Len())

	r := NewReader(&buf)
	assert.Equal(t, int32(-7), r.Int32())
	assert.Equal(t, int64(1<<40), r.Int64())
	assert.Equal(t, float32(1.5), r.Float32())
	assert.Equal(t, 0.25, r.Float64())
	assert.Equal(t, byte(9), r.Byte())
	assert.True(t, r.Bool())
	assert.Equal(t, "hello", r.CString())

	vec := make([]float32, 3)
	r.Float32Slice(vec)
	assert.Equal(t, []float32{1, 2, 3}, vec)

	tail := make([]byte, 2)
	r.Bytes(tail)
	assert.Equal(t, []byte{0xAA, 0xBB}, tail)
	require.NoError(t, r.Err())
	assert.Equal(t, w.N(), r.N())
}

func TestLayoutIsLittleEndian(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Int32(1)
	w.Float32Slice([]float32{1})
	assert.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0x80, 0x3f}, buf.Bytes())
}

func TestReaderStickyError(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{1, 2}))
	assert.Zero(t, r.Int32())
	assert.ErrorIs(t, r.Err(), io.ErrUnexpectedEOF)
	assert.Zero(t, r.Int64())
	assert.Equal(t, "", r.CString())
	assert.Error(t, r.Err())
}

func TestNestedReadersShareState(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Int32(1)
	w.Int32(2)

	outer := NewReader(strings.NewReader(buf.String()))
	assert.Equal(t, int32(1), outer.Int32())
	inner := NewReader(outer)
	assert.Same(t, outer, inner)
	assert.Equal(t, int32(2), inner.Int32())
	assert.Equal(t, int64(8), outer.N())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriterStickyError(t *testing.T) {
	w := NewWriter(failingWriter{})
	w.Int32(1)
	w.CString("x")
	assert.EqualError(t, w.Err(), "disk full")
	assert.Zero(t, w.N())
}

func TestSaveLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob.bin")

	err := SaveToFile(path, func(w io.Writer) error {
		pw := NewWriter(w)
		pw.CString("model")
		pw.Int64(42)
		return pw.Err()
	})
	require.NoError(t, err)

	var name string
	var v int64
	err = LoadFromFile(path, func(r io.Reader) error {
		pr := NewReader(r)
		name = pr.CString()
		v = pr.Int64()
		return pr.Err()
	})
	require.NoError(t, err)
	assert.Equal(t, "model", name)
	assert.Equal(t, int64(42), v)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSaveToFileError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob.bin")
	err := SaveToFile(path, func(io.Writer) error { return errors.New("boom") })
	assert.EqualError(t, err, "boom")

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestPlatformInfo(t *testing.T) {
	assert.Contains(t, PlatformInfo(), "GOARCH=")
}
