package subword

import (
	"errors"
	"slices"
	"strings"

	"github.com/hupe1980/subword/internal/corpus"
	"github.com/hupe1980/subword/internal/linalg"
	"github.com/hupe1980/subword/internal/queue"
)

// Neighbor is a vocabulary word with its cosine similarity to a query.
type Neighbor struct {
	Word       string
	Similarity float32
}

// WordVector returns the mean of the input rows of the features of word.
// Words outside the vocabulary are represented by their character
// n-grams; a word with no features yields the zero vector.
func (m *Model) WordVector(word string) ([]float32, error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	if m.vecCache != nil {
		if v, ok := m.vecCache.Get(word); ok {
			return slices.Clone(v), nil
		}
	}
	vec := linalg.NewVectorWith(m.cfg.Dim, m.kern)
	m.net.ComputeHidden(m.dict.Subwords(word), vec)
	if m.vecCache != nil {
		m.vecCache.Set(word, slices.Clone(vec.Data()))
	}
	return vec.Data(), nil
}

// VectorCacheStats returns the hit and miss counts of the word vector
// cache, or zeros when WithVectorCache is not set.
func (m *Model) VectorCacheStats() (hits, misses int64) {
	if m.vecCache == nil {
		return 0, 0
	}
	return m.vecCache.Stats()
}

// SentenceVector returns the embedding of a line of text. Supervised
// models average the line features the way prediction does. Other models
// average the L2-normalized word vectors of the line's words.
func (m *Model) SentenceVector(line string) ([]float32, error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}

	_, tokens := corpus.ParseLine(line, false)
	vec := linalg.NewVectorWith(m.cfg.Dim, m.kern)
	if m.IsSupervised() {
		words, _, _ := m.dict.SupervisedLine(tokens, nil, nil)
		m.net.ComputeHidden(words, vec)
		return vec.Data(), nil
	}

	wv := linalg.NewVectorWith(m.cfg.Dim, m.kern)
	count := 0
	for _, tok := range tokens {
		m.net.ComputeHidden(m.dict.Subwords(tok), wv)
		if norm := wv.Norm(); norm > 0 {
			vec.AddVector(wv, 1/norm)
			count++
		}
	}
	if count > 0 {
		vec.Mul(1 / float32(count))
	}
	return vec.Data(), nil
}

// Subwords returns the features of word as (text, feature id) pairs: the
// word itself first when it is in the vocabulary, followed by its
// character n-grams.
func (m *Model) Subwords(word string) ([]string, []int32) {
	ids, texts := m.dict.SubwordStrings(word)
	return texts, ids
}

// precomputeWordVectors fills one normalized row per vocabulary word.
func (m *Model) precomputeWordVectors() (*linalg.Matrix, error) {
	m.nnOnce.Do(func() {
		nwords := int(m.dict.NWords())
		if err := m.reserve(matrixBytes(nwords, m.cfg.Dim)); err != nil {
			m.nnErr = translateError(err)
			return
		}

		vecs := linalg.NewMatrixWith(nwords, m.cfg.Dim, m.kern)
		vec := linalg.NewVectorWith(m.cfg.Dim, m.kern)
		for i := 0; i < nwords; i++ {
			m.net.ComputeHidden(m.dict.Subwords(m.dict.Word(int32(i))), vec)
			if norm := vec.Norm(); norm > 0 {
				vec.Mul(1 / norm)
			}
			copy(vecs.Row(i), vec.Data())
		}
		m.nnVecs = vecs
	})
	return m.nnVecs, m.nnErr
}

// nearest ranks the vocabulary by cosine similarity to query, skipping
// the banned words.
func (m *Model) nearest(query []float32, k int, banned map[string]struct{}) ([]Neighbor, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	vecs, err := m.precomputeWordVectors()
	if err != nil {
		return nil, err
	}

	qnorm := m.kern.Norm(query)
	if qnorm > 0 {
		m.kern.Scale(1/qnorm, query)
	}

	heap := queue.NewMin(k + 1)
	for i := 0; i < vecs.Rows(); i++ {
		word := m.dict.Word(int32(i))
		if _, ok := banned[word]; ok {
			continue
		}
		sim, err := vecs.DotRow(query, i)
		if err != nil {
			return nil, translateError(err)
		}
		heap.PushBounded(queue.Item{ID: int32(i), Score: sim}, k)
	}

	items := heap.SortedDesc()
	out := make([]Neighbor, len(items))
	for i, it := range items {
		out[i] = Neighbor{Word: m.dict.Word(it.ID), Similarity: it.Score}
	}
	return out, nil
}

// Nearest returns the k vocabulary words most similar to word, excluding
// word itself. Normalized word vectors are computed on first use and
// kept for the lifetime of the model.
func (m *Model) Nearest(word string, k int) ([]Neighbor, error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	query, err := m.WordVector(word)
	if err != nil {
		return nil, err
	}
	return m.nearest(query, k, map[string]struct{}{word: {}})
}

// Analogy returns the k words closest to a - b + c, excluding the three
// query words. "paris - france + italy" should rank "rome" high.
func (m *Model) Analogy(a, b, c string, k int) ([]Neighbor, error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" || strings.TrimSpace(c) == "" {
		return nil, errors.New("analogy needs three words")
	}

	query := linalg.NewVectorWith(m.cfg.Dim, m.kern)
	vec := linalg.NewVectorWith(m.cfg.Dim, m.kern)
	for _, term := range []struct {
		word string
		sign float32
	}{{a, 1}, {b, -1}, {c, 1}} {
		m.net.ComputeHidden(m.dict.Subwords(term.word), vec)
		norm := vec.Norm()
		if norm == 0 {
			continue
		}
		query.AddVector(vec, term.sign/norm)
	}
	return m.nearest(query.Data(), k, map[string]struct{}{a: {}, b: {}, c: {}})
}
