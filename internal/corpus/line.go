package corpus

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
)

// EOS is the end-of-sentence word. Tokenization never produces it.
const EOS = "</s>"

// MaxLineSize caps the number of tokens kept from one unsupervised line.
const MaxLineSize = 1024

// ErrEmptyCorpus is returned when the input holds no bytes.
var ErrEmptyCorpus = errors.New("corpus: empty input")

// ParseLine splits a line into its weight and tokens. With hasWeight, the
// longest prefix of the line that parses as a float is taken as the weight;
// a line without such a prefix, or any line when hasWeight is false, has
// weight 1.
func ParseLine(line string, hasWeight bool) (float64, []string) {
	weight := 1.0
	if hasWeight {
		rest := strings.TrimLeft(line, " \t\v\f\r")
		if w, n := parseFloatPrefix(rest); n > 0 {
			weight = w
			line = rest[n:]
		}
	}
	return weight, strings.Fields(line)
}

func parseFloatPrefix(s string) (float64, int) {
	end := 0
	for end < len(s) && strings.IndexByte("0123456789+-.eE", s[end]) >= 0 {
		end++
	}
	for ; end > 0; end-- {
		if v, err := strconv.ParseFloat(s[:end], 64); err == nil {
			return v, end
		}
	}
	return 0, 0
}

// ScanLines calls fn for every line of r without its line terminator.
// It stops at the first error returned by fn and checks ctx periodically.
func ScanLines(ctx context.Context, r io.Reader, fn func(line string) error) error {
	br := bufio.NewReaderSize(r, 1<<16)
	for n := 0; ; n++ {
		if n&4095 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			if ferr := fn(trimEOL(line)); ferr != nil {
				return ferr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func trimEOL(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}
