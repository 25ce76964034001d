package dictionary

import (
	"math/rand/v2"

	"github.com/hupe1980/subword/internal/corpus"
	"github.com/hupe1980/subword/internal/hash"
)

// SupervisedLine converts the tokens of one line into input features and
// label ids. Out-of-vocabulary words contribute freshly hashed n-grams,
// labels are returned as lid = id - NWords, and word n-grams up to
// cfg.WordNgrams are appended to words. It returns the number of tokens
// seen.
func (d *Dictionary) SupervisedLine(tokens []string, words, labels []int32) ([]int32, []int32, int) {
	words, labels = words[:0], labels[:0]
	var hashes []int32
	ntokens := 0

	for _, tok := range tokens {
		h := hash.Token(tok)
		wid := d.IDHash(tok, h)
		kind := d.KindOf(tok)
		if wid >= 0 {
			kind = d.Kind(wid)
		}

		ntokens++
		switch {
		case kind == Word:
			words = d.addSubwords(words, tok, wid)
			hashes = append(hashes, int32(h))
		case wid >= 0:
			labels = append(labels, wid-d.nwords)
		}
		if tok == EOS {
			break
		}
	}
	words = d.AddWordNgrams(words, hashes, d.cfg.WordNgrams)
	return words, labels, ntokens
}

// UnsupervisedLine converts the tokens of one line into word ids for cbow
// and skipgram training. Unknown tokens and labels are skipped, frequent
// words are subsampled with rng, and at most corpus.MaxLineSize words are
// kept. It returns the number of known tokens seen.
func (d *Dictionary) UnsupervisedLine(tokens []string, rng *rand.Rand, words []int32) ([]int32, int) {
	words = words[:0]
	ntokens := 0
	for _, tok := range tokens {
		wid := d.ID(tok)
		if wid < 0 {
			continue
		}
		ntokens++
		if d.Kind(wid) == Word && !d.Discard(wid, rng.Float32(), 1) {
			words = append(words, wid)
		}
		if len(words) >= corpus.MaxLineSize || tok == EOS {
			break
		}
	}
	return words, ntokens
}

func (d *Dictionary) addSubwords(line []int32, tok string, wid int32) []int32 {
	switch {
	case wid < 0:
		if tok == EOS {
			return line
		}
		return d.computeSubwords(BOW+tok+EOW, line, nil)
	case d.cfg.Maxn <= 0:
		return append(line, wid)
	default:
		return append(line, d.entries[wid].Subwords...)
	}
}
