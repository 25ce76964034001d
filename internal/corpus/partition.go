package corpus

import (
	"bufio"
	"errors"
	"io"
)

// Partition is a half-open byte range [Start, End) that begins at a line start.
type Partition struct {
	Start int64
	End   int64
}

// Len returns the number of bytes in the partition.
func (p Partition) Len() int64 { return p.End - p.Start }

// Partitions splits size bytes of r into at most n line-aligned ranges.
// Ranges that would be empty because a single line spans several nominal
// ranges are dropped, so fewer than n partitions may be returned.
func Partitions(r io.ReaderAt, size int64, n int) ([]Partition, error) {
	if size <= 0 {
		return nil, ErrEmptyCorpus
	}
	if n < 1 {
		n = 1
	}

	starts := make([]int64, 0, n+1)
	starts = append(starts, 0)
	for i := 1; i < n; i++ {
		s, err := nextLineStart(r, size, size*int64(i)/int64(n))
		if err != nil {
			return nil, err
		}
		starts = append(starts, s)
	}
	starts = append(starts, size)

	parts := make([]Partition, 0, n)
	for i := 0; i < n; i++ {
		if starts[i+1] > starts[i] {
			parts = append(parts, Partition{Start: starts[i], End: starts[i+1]})
		}
	}
	return parts, nil
}

// nextLineStart returns the offset just after the first newline at or after
// off-1, so an offset that already starts a line is kept.
func nextLineStart(r io.ReaderAt, size, off int64) (int64, error) {
	if off <= 0 {
		return 0, nil
	}
	br := bufio.NewReader(io.NewSectionReader(r, off-1, size-off+1))
	pos := off - 1
	for {
		b, err := br.ReadByte()
		if errors.Is(err, io.EOF) {
			return size, nil
		}
		if err != nil {
			return 0, err
		}
		pos++
		if b == '\n' {
			return pos, nil
		}
	}
}

// LineReader reads the lines of one partition and restarts at the
// beginning of the partition when it reaches the end.
type LineReader struct {
	r    io.ReaderAt
	part Partition
	br   *bufio.Reader
	pos  int64
}

// NewLineReader creates a LineReader over part of r.
func NewLineReader(r io.ReaderAt, part Partition) *LineReader {
	lr := &LineReader{r: r, part: part}
	lr.reset()
	return lr
}

func (lr *LineReader) reset() {
	sr := io.NewSectionReader(lr.r, lr.part.Start, lr.part.Len())
	if lr.br == nil {
		lr.br = bufio.NewReaderSize(sr, 1<<16)
	} else {
		lr.br.Reset(sr)
	}
	lr.pos = lr.part.Start
}

// Next returns the next line without its terminator. It never returns
// io.EOF for a non-empty partition.
func (lr *LineReader) Next() (string, error) {
	if lr.part.Len() <= 0 {
		return "", ErrEmptyCorpus
	}
	for attempt := 0; attempt < 2; attempt++ {
		if lr.pos >= lr.part.End {
			lr.reset()
		}
		line, err := lr.br.ReadString('\n')
		lr.pos += int64(len(line))
		if len(line) > 0 {
			return trimEOL(line), nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		lr.reset()
	}
	return "", io.ErrUnexpectedEOF
}

// Offset returns the byte offset of the next line.
func (lr *LineReader) Offset() int64 { return lr.pos }
