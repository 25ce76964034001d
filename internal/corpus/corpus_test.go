package corpus

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	w, toks := ParseLine("  hello   world \t", false)
	assert.Equal(t, 1.0, w)
	assert.Equal(t, []string{"hello", "world"}, toks)

	w, toks = ParseLine("0.5 a b", true)
	assert.Equal(t, 0.5, w)
	assert.Equal(t, []string{"a", "b"}, toks)

	w, toks = ParseLine("2e1x y", true)
	assert.Equal(t, 20.0, w)
	assert.Equal(t, []string{"x", "y"}, toks)

	w, toks = ParseLine("abc", true)
	assert.Equal(t, 1.0, w)
	assert.Equal(t, []string{"abc"}, toks)

	_, toks = ParseLine("", false)
	assert.Empty(t, toks)
}

func TestScanLines(t *testing.T) {
	var got []string
	err := ScanLines(context.Background(), strings.NewReader("a b\r\nc\n\nd"), func(line string) error {
		got = append(got, line)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a b", "c", "", "d"}, got)

	stop := errors.New("stop")
	err = ScanLines(context.Background(), strings.NewReader("x\ny\n"), func(string) error { return stop })
	assert.ErrorIs(t, err, stop)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = ScanLines(ctx, strings.NewReader("x\n"), func(string) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPartitions(t *testing.T) {
	text := "aaaa\nbb\ncccccc\nd\n"
	r := strings.NewReader(text)

	parts, err := Partitions(r, int64(len(text)), 3)
	require.NoError(t, err)
	require.NotEmpty(t, parts)

	assert.Equal(t, int64(0), parts[0].Start)
	assert.Equal(t, int64(len(text)), parts[len(parts)-1].End)
	for i, p := range parts {
		assert.Positive(t, p.Len())
		if p.Start > 0 {
			assert.Equal(t, byte('\n'), text[p.Start-1], "partition %d", i)
		}
		if i > 0 {
			assert.Equal(t, parts[i-1].End, p.Start)
		}
	}

	_, err = Partitions(r, 0, 2)
	assert.ErrorIs(t, err, ErrEmptyCorpus)
}

func TestPartitionsSingleLongLine(t *testing.T) {
	text := strings.Repeat("x", 100)
	parts, err := Partitions(strings.NewReader(text), int64(len(text)), 4)
	require.NoError(t, err)
	assert.Equal(t, []Partition{{Start: 0, End: 100}}, parts)
}

func TestLineReaderCycles(t *testing.T) {
	text := "one\ntwo\nthree\nfour\n"
	r := strings.NewReader(text)

	lr := NewLineReader(r, Partition{Start: 4, End: 14})
	var got []string
	for i := 0; i < 5; i++ {
		line, err := lr.Next()
		require.NoError(t, err)
		got = append(got, line)
	}
	assert.Equal(t, []string{"two", "three", "two", "three", "two"}, got)

}

func TestLineReaderNoTrailingNewline(t *testing.T) {
	text := "a\nb"
	lr := NewLineReader(strings.NewReader(text), Partition{Start: 0, End: 3})
	var got []string
	for i := 0; i < 4; i++ {
		line, err := lr.Next()
		require.NoError(t, err)
		got = append(got, line)
	}
	assert.Equal(t, []string{"a", "b", "a", "b"}, got)

	_, err := NewLineReader(strings.NewReader(text), Partition{}).Next()
	assert.ErrorIs(t, err, ErrEmptyCorpus)
}
