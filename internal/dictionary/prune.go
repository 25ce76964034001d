package dictionary

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// Prune keeps only the word ids and n-gram feature ids listed in idx and
// returns idx reordered as the rows of the pruned input matrix: retained
// words in ascending id order followed by the n-gram features in their
// given order, duplicates dropped. All labels are kept. Word ids are compacted, bucket ids are
// remapped to [0, #ngrams), and every feature list is recomputed. Pruning
// cannot be undone.
func (d *Dictionary) Prune(idx []int32) []int32 {
	words, seen := roaring.New(), roaring.New()
	var ngrams []int32
	for _, id := range idx {
		switch {
		case id < 0:
		case id < d.nwords:
			words.Add(uint32(id))
		case seen.CheckedAdd(uint32(id)):
			ngrams = append(ngrams, id)
		}
	}

	out := make([]int32, 0, int(words.GetCardinality())+len(ngrams))
	it := words.Iterator()
	for it.HasNext() {
		out = append(out, int32(it.Next()))
	}

	d.pruneIdx = make(map[int32]int32, len(ngrams))
	for j, ng := range ngrams {
		d.pruneIdx[ng-d.nwords] = int32(j)
	}
	d.pruneIdxSize = int64(len(d.pruneIdx))
	out = append(out, ngrams...)

	kept := d.entries[:0]
	for i, e := range d.entries {
		if e.Kind == Label || words.Contains(uint32(i)) {
			kept = append(kept, e)
		}
	}
	clear(d.entries[len(kept):])
	d.entries = kept
	d.reindex()
	d.initTableDiscard()
	d.initNgrams()

	return out
}

// Retained returns the bucket ids that survived pruning in ascending
// order of their compacted index, or nil when pruning is inactive.
func (d *Dictionary) Retained() []int32 {
	if d.pruneIdxSize <= 0 {
		return nil
	}
	out := make([]int32, len(d.pruneIdx))
	for bucket, j := range d.pruneIdx {
		out[j] = bucket
	}
	return out
}
