package dictionary

import (
	"fmt"
	"io"
	"math"
	"slices"

	"github.com/hupe1980/subword/config"
	"github.com/hupe1980/subword/persistence"
)

// WriteTo writes the header (size, nwords, nlabels as int32; ntokens as
// int64; total weight as float64; prune map size as int64), one record per
// entry (nul-terminated text, float64 weight, kind byte) and the prune map
// as (bucket, index) int32 pairs in ascending bucket order.
func (d *Dictionary) WriteTo(w io.Writer) (int64, error) {
	pw := persistence.NewWriter(w)
	start := pw.N()

	pw.Int32(int32(len(d.entries)))
	pw.Int32(d.nwords)
	pw.Int32(d.nlabels)
	pw.Int64(d.ntokens)
	pw.Float64(d.totalWeight)
	pw.Int64(d.pruneIdxSize)
	for _, e := range d.entries {
		pw.CString(e.Text)
		pw.Float64(e.Weight)
		pw.Byte(byte(e.Kind))
	}

	keys := make([]int32, 0, len(d.pruneIdx))
	for k := range d.pruneIdx {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		pw.Int32(k)
		pw.Int32(d.pruneIdx[k])
	}

	return pw.N() - start, pw.Err()
}

// Read loads a dictionary written by WriteTo. The index, discard table and
// feature lists are rebuilt from the entries.
func Read(r io.Reader, cfg config.Config) (*Dictionary, error) {
	pr := persistence.NewReader(r)
	d := &Dictionary{cfg: cfg}

	size := pr.Int32()
	d.nwords = pr.Int32()
	d.nlabels = pr.Int32()
	d.ntokens = pr.Int64()
	d.totalWeight = pr.Float64()
	d.pruneIdxSize = pr.Int64()
	if err := pr.Err(); err != nil {
		return nil, err
	}
	if size < 0 || d.nwords < 0 || d.nlabels < 0 || d.nwords+d.nlabels != size {
		return nil, fmt.Errorf("dictionary: corrupt header (size %d, nwords %d, nlabels %d)", size, d.nwords, d.nlabels)
	}

	d.entries = make([]Entry, size)
	for i := range d.entries {
		e := &d.entries[i]
		e.Text = pr.CString()
		e.Weight = pr.Float64()
		e.Kind = Kind(pr.Byte())
	}

	if d.pruneIdxSize >= 0 {
		d.pruneIdx = make(map[int32]int32, d.pruneIdxSize)
		for i := int64(0); i < d.pruneIdxSize; i++ {
			k := pr.Int32()
			d.pruneIdx[k] = pr.Int32()
		}
	}
	if err := pr.Err(); err != nil {
		return nil, err
	}

	d.initTableDiscard()
	d.initNgrams()

	d.index = make([]int32, int(math.Ceil(float64(size)/loadFactor)))
	if len(d.index) == 0 {
		d.index = make([]int32, 1)
	}
	d.clearIndex()
	for i, e := range d.entries {
		d.index[d.find(e.Text)] = int32(i)
	}
	return d, nil
}
