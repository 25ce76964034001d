package dictionary

import (
	"github.com/hupe1980/subword/internal/hash"
)

// computeSubwords appends the bucket features of every character n-gram of
// the wrapped word w. Windows start only on UTF-8 leading bytes and grow
// one code point at a time; length-1 windows touching either boundary
// marker are skipped. When substrings is non-nil it receives the n-gram
// text of every emitted feature.
func (d *Dictionary) computeSubwords(w string, ngrams []int32, substrings *[]string) []int32 {
	minn, maxn := d.cfg.Minn, d.cfg.Maxn
	if d.cfg.Bucket <= 0 || maxn <= 0 {
		return ngrams
	}
	bucket := uint32(d.cfg.Bucket)

	for i := 0; i < len(w); i++ {
		if w[i]&0xC0 == 0x80 {
			continue
		}
		j := i
		for n := 1; j < len(w) && n <= maxn; n++ {
			j++
			for j < len(w) && w[j]&0xC0 == 0x80 {
				j++
			}
			if n >= minn && !(n == 1 && (i == 0 || j == len(w))) {
				gram := w[i:j]
				before := len(ngrams)
				ngrams = d.pushHash(ngrams, int32(hash.Token(gram)%bucket))
				if substrings != nil && len(ngrams) > before {
					*substrings = append(*substrings, gram)
				}
			}
		}
	}
	return ngrams
}

// initNgrams computes the feature list of every entry.
func (d *Dictionary) initNgrams() {
	for i := range d.entries {
		e := &d.entries[i]
		e.Subwords = nil
		if e.Text != EOS {
			e.Subwords = d.computeSubwords(BOW+e.Text+EOW, e.Subwords, nil)
		}
		e.Subwords = append(e.Subwords, int32(i))
	}
}

// SubwordsByID returns the cached feature list of word id.
func (d *Dictionary) SubwordsByID(id int32) []int32 {
	return d.entries[id].Subwords
}

// Subwords returns the features of w: the cached list, ending with the
// word id, for an in-vocabulary word, and freshly hashed n-gram features
// otherwise.
func (d *Dictionary) Subwords(w string) []int32 {
	if id := d.ID(w); id >= 0 {
		return d.entries[id].Subwords
	}
	if w == EOS {
		return nil
	}
	return d.computeSubwords(BOW+w+EOW, nil, nil)
}

// SubwordStrings returns the features of w next to their text. An
// in-vocabulary word contributes its own id first.
func (d *Dictionary) SubwordStrings(w string) ([]int32, []string) {
	var (
		ids   []int32
		texts []string
	)
	if id := d.ID(w); id >= 0 {
		ids = append(ids, id)
		texts = append(texts, d.entries[id].Text)
	}
	if w == EOS {
		return ids, texts
	}
	ids = d.computeSubwords(BOW+w+EOW, ids, &texts)
	return ids, texts
}

// pushHash appends the feature id of bucket id, honoring the prune map.
func (d *Dictionary) pushHash(ids []int32, id int32) []int32 {
	if d.pruneIdxSize == 0 || id < 0 {
		return ids
	}
	if d.pruneIdxSize > 0 {
		mapped, ok := d.pruneIdx[id]
		if !ok {
			return ids
		}
		id = mapped
	}
	return append(ids, d.nwords+id)
}

// AddWordNgrams appends the bucket features of the word n-grams of length
// 2..n over the token hashes of a line.
func (d *Dictionary) AddWordNgrams(line []int32, hashes []int32, n int) []int32 {
	if d.cfg.Bucket <= 0 {
		return line
	}
	bucket := uint64(d.cfg.Bucket)
	for i := range hashes {
		h := uint64(int64(hashes[i]))
		for j := i + 1; j < len(hashes) && j < i+n; j++ {
			h = hash.MixWordNgram(h, hashes[j])
			line = d.pushHash(line, int32(h%bucket))
		}
	}
	return line
}
