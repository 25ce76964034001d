package dictionary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/hupe1980/subword/config"
	"github.com/hupe1980/subword/internal/corpus"
	"github.com/hupe1980/subword/internal/hash"
)

var (
	// ErrEmptyVocabulary is returned when no entry survives thresholding.
	ErrEmptyVocabulary = errors.New("dictionary: empty vocabulary, try a smaller minCount")
	// ErrLabelOutOfRange is returned for a label id outside [0, NLabels).
	ErrLabelOutOfRange = errors.New("dictionary: label id out of range")
)

// Boundary markers wrapped around a word before n-gram extraction.
const (
	BOW = "<"
	EOW = ">"
)

// EOS is the end-of-line token. It never gets character n-grams.
const EOS = corpus.EOS

const (
	empty = -1
	// loadFactor sizes the index of a loaded dictionary.
	loadFactor = 0.7
	// pruneThresholdRatio of the index capacity triggers an online threshold pass.
	pruneThresholdRatio = 0.75
)

// Kind distinguishes words from labels.
type Kind int8

const (
	// Word is an input token.
	Word Kind = 0
	// Label is a supervised target.
	Label Kind = 1
)

// String returns "word" or "label".
func (k Kind) String() string {
	if k == Label {
		return "label"
	}
	return "word"
}

// Entry is a vocabulary entry.
type Entry struct {
	Text   string
	Weight float64
	Kind   Kind
	// Subwords holds the feature ids of the entry; the last one is the entry id.
	Subwords []int32
}

// Dictionary is the vocabulary of a model. It is built by a single
// goroutine and is read-only afterwards; read methods are safe for
// concurrent use once building is done.
type Dictionary struct {
	cfg config.Config

	index   []int32
	entries []Entry

	nwords      int32
	nlabels     int32
	ntokens     int64
	totalWeight float64

	pdiscard []float32

	// pruneIdxSize is -1 while pruning is inactive.
	pruneIdxSize int64
	pruneIdx     map[int32]int32
}

// New creates an empty dictionary whose index has cfg.MaxVocabSize slots.
func New(cfg config.Config) *Dictionary {
	d := &Dictionary{
		cfg:          cfg,
		index:        make([]int32, cfg.MaxVocabSize),
		pruneIdxSize: -1,
	}
	d.clearIndex()
	return d
}

// Config returns the configuration the dictionary was built with.
func (d *Dictionary) Config() config.Config { return d.cfg }

// NWords returns the number of words.
func (d *Dictionary) NWords() int32 { return d.nwords }

// NLabels returns the number of labels.
func (d *Dictionary) NLabels() int32 { return d.nlabels }

// Size returns the number of entries.
func (d *Dictionary) Size() int32 { return int32(len(d.entries)) }

// NTokens returns the number of tokens added.
func (d *Dictionary) NTokens() int64 { return d.ntokens }

// TotalWeight returns the sum of all added weights.
func (d *Dictionary) TotalWeight() float64 { return d.totalWeight }

// IsPruned reports whether Prune has been applied.
func (d *Dictionary) IsPruned() bool { return d.pruneIdxSize >= 0 }

// Entry returns entry id. The returned value shares its Subwords slice.
func (d *Dictionary) Entry(id int32) Entry { return d.entries[id] }

// Word returns the text of entry id.
func (d *Dictionary) Word(id int32) string { return d.entries[id].Text }

// Kind returns the kind of entry id.
func (d *Dictionary) Kind(id int32) Kind { return d.entries[id].Kind }

// KindOf classifies a token by the configured label prefix.
func (d *Dictionary) KindOf(w string) Kind {
	if strings.HasPrefix(w, d.cfg.Label) {
		return Label
	}
	return Word
}

// Label returns the text of label lid, where lid is in [0, NLabels).
func (d *Dictionary) Label(lid int32) (string, error) {
	if lid < 0 || lid >= d.nlabels {
		return "", fmt.Errorf("%w: %d not in [0, %d)", ErrLabelOutOfRange, lid, d.nlabels)
	}
	return d.entries[lid+d.nwords].Text, nil
}

func (d *Dictionary) clearIndex() {
	for i := range d.index {
		d.index[i] = empty
	}
}

// find returns the slot of w: either the slot holding w or the empty slot
// where probing from its hash stops.
func (d *Dictionary) find(w string) int {
	return d.findHash(w, hash.Token(w))
}

func (d *Dictionary) findHash(w string, h uint32) int {
	size := len(d.index)
	id := int(h % uint32(size))
	for d.index[id] != empty && d.entries[d.index[id]].Text != w {
		id++
		if id == size {
			id = 0
		}
	}
	return id
}

// ID returns the id of w, or -1 when w is not in the vocabulary.
func (d *Dictionary) ID(w string) int32 {
	return d.index[d.find(w)]
}

// IDHash is ID with a precomputed token hash.
func (d *Dictionary) IDHash(w string, h uint32) int32 {
	return d.index[d.findHash(w, h)]
}

// Add counts one occurrence of w with the given weight.
func (d *Dictionary) Add(w string, weight float64) {
	slot := d.find(w)
	d.ntokens++
	d.totalWeight += weight
	if d.index[slot] == empty {
		d.entries = append(d.entries, Entry{Text: w, Weight: weight, Kind: d.KindOf(w)})
		d.index[slot] = int32(len(d.entries) - 1)
		return
	}
	d.entries[d.index[slot]].Weight += weight
}

// Build adds every token of r, caps the vocabulary, thresholds it with
// the configured minimum counts and initializes the discard table and
// n-gram features.
func (d *Dictionary) Build(ctx context.Context, r io.Reader) error {
	minThreshold := 1.0
	limit := pruneThresholdRatio * float64(len(d.index))

	err := corpus.ScanLines(ctx, r, func(line string) error {
		weight, tokens := corpus.ParseLine(line, d.cfg.HasWeight)
		for _, tok := range tokens {
			d.Add(tok, weight)
			if float64(len(d.entries)) > limit {
				minThreshold++
				d.Threshold(minThreshold, minThreshold)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	d.Threshold(float64(d.cfg.MinCount), float64(d.cfg.MinCountLabel))
	d.initTableDiscard()
	d.initNgrams()

	if len(d.entries) == 0 {
		return ErrEmptyVocabulary
	}
	return nil
}

// Threshold sorts entries by kind then descending weight, drops words
// lighter than minWord and labels lighter than minLabel, and rebuilds the
// index in the new order.
func (d *Dictionary) Threshold(minWord, minLabel float64) {
	sort.SliceStable(d.entries, func(i, j int) bool {
		a, b := d.entries[i], d.entries[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Weight > b.Weight
	})

	kept := d.entries[:0]
	for _, e := range d.entries {
		if (e.Kind == Word && e.Weight < minWord) || (e.Kind == Label && e.Weight < minLabel) {
			continue
		}
		kept = append(kept, e)
	}
	clear(d.entries[len(kept):])
	d.entries = kept
	d.reindex()
}

func (d *Dictionary) reindex() {
	d.clearIndex()
	d.nwords, d.nlabels = 0, 0
	for i, e := range d.entries {
		d.index[d.find(e.Text)] = int32(i)
		if e.Kind == Word {
			d.nwords++
		} else {
			d.nlabels++
		}
	}
}

func (d *Dictionary) initTableDiscard() {
	d.pdiscard = make([]float32, len(d.entries))
	t := d.cfg.SamplingThreshold
	for i, e := range d.entries {
		f := e.Weight / d.totalWeight
		d.pdiscard[i] = float32(math.Sqrt(t/f) + t/f)
	}
}

// DiscardProbability returns the keep threshold of entry id.
func (d *Dictionary) DiscardProbability(id int32) float32 { return d.pdiscard[id] }

// Discard reports whether an occurrence of word id should be skipped given
// a uniform draw rand and a boost factor. Supervised models never discard.
func (d *Dictionary) Discard(id int32, rand, boost float32) bool {
	if d.cfg.Model == config.Supervised {
		return false
	}
	return rand > d.pdiscard[id]*boost
}

// Counts returns the weights of all entries of kind k in id order.
func (d *Dictionary) Counts(k Kind) []float64 {
	var counts []float64
	for _, e := range d.entries {
		if e.Kind == k {
			counts = append(counts, e.Weight)
		}
	}
	return counts
}

// Dump writes the entry count and one "text weight kind" line per entry.
func (d *Dictionary) Dump(w io.Writer) error {
	if _, err := fmt.Fprintln(w, len(d.entries)); err != nil {
		return err
	}
	for _, e := range d.entries {
		if _, err := fmt.Fprintf(w, "%s %g %s\n", e.Text, e.Weight, e.Kind); err != nil {
			return err
		}
	}
	return nil
}
