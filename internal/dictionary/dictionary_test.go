package dictionary

import (
	"bytes"
	"context"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/subword/config"
	"github.com/hupe1980/subword/internal/hash"
)

func testConfig() config.Config {
	c := config.Default()
	c.MinCount = 1
	c.Minn = 2
	c.Maxn = 4
	c.Bucket = 1000
	c.MaxVocabSize = 1000
	return c
}

func build(t *testing.T, cfg config.Config, text string) *Dictionary {
	t.Helper()
	d := New(cfg)
	require.NoError(t, d.Build(context.Background(), strings.NewReader(text)))
	return d
}

func TestBuildRanksByWeight(t *testing.T) {
	d := build(t, testConfig(), "a b a\nb b\n")

	assert.Equal(t, int32(2), d.Size())
	assert.Equal(t, int32(2), d.NWords())
	assert.Equal(t, int64(5), d.NTokens())
	assert.Equal(t, 5.0, d.TotalWeight())

	assert.Equal(t, int32(0), d.ID("b"))
	assert.Equal(t, int32(1), d.ID("a"))
	assert.Equal(t, 3.0, d.Entry(0).Weight)
	assert.Equal(t, 2.0, d.Entry(1).Weight)
	assert.Equal(t, int32(-1), d.ID("c"))

	var buf bytes.Buffer
	_, err := d.WriteTo(&buf)
	require.NoError(t, err)

	loaded, err := Read(&buf, testConfig())
	require.NoError(t, err)
	assert.Equal(t, d.ID("a"), loaded.ID("a"))
	assert.Equal(t, d.ID("b"), loaded.ID("b"))
	assert.Equal(t, int32(-1), loaded.ID("c"))
}

func TestEmptyVocabulary(t *testing.T) {
	cfg := testConfig()
	cfg.MinCount = 5
	d := New(cfg)
	err := d.Build(context.Background(), strings.NewReader("a b c\n"))
	assert.ErrorIs(t, err, ErrEmptyVocabulary)
}

func TestBuildCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New(testConfig()).Build(ctx, strings.NewReader("a\n"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFindProbing(t *testing.T) {
	cfg := testConfig()
	cfg.MaxVocabSize = 64
	d := New(cfg)
	for i := 0; i < 40; i++ {
		d.Add(strings.Repeat("w", i%7+1)+string(rune('a'+i%26))+string(rune('A'+i/26)), 1)
	}

	for i, e := range d.entries {
		slot := d.find(e.Text)
		assert.Equal(t, slot, d.findHash(e.Text, hash.Token(e.Text)))
		assert.Equal(t, int32(i), d.index[slot])
	}

	slot := d.find("missing")
	assert.Equal(t, int32(empty), d.index[slot])
}

func TestThresholdOrdersKinds(t *testing.T) {
	cfg := testConfig()
	d := New(cfg)
	for _, tok := range []string{"__label__x", "w1", "w2", "w2", "__label__y", "__label__y", "w3"} {
		d.Add(tok, 1)
	}
	d.Threshold(1, 2)

	assert.Equal(t, int32(3), d.NWords())
	assert.Equal(t, int32(1), d.NLabels())
	assert.Equal(t, d.NWords()+d.NLabels(), d.Size())
	assert.Equal(t, "w2", d.Word(0))
	assert.Equal(t, "w1", d.Word(1))
	assert.Equal(t, "w3", d.Word(2))
	assert.Equal(t, "__label__y", d.Word(3))
	assert.Equal(t, int32(-1), d.ID("__label__x"))

	seen := map[string]bool{}
	for i := int32(0); i < d.Size(); i++ {
		assert.False(t, seen[d.Word(i)])
		seen[d.Word(i)] = true
		assert.Equal(t, i, d.ID(d.Word(i)))
	}

	lbl, err := d.Label(0)
	require.NoError(t, err)
	assert.Equal(t, "__label__y", lbl)

	_, err = d.Label(1)
	assert.ErrorIs(t, err, ErrLabelOutOfRange)
	_, err = d.Label(-1)
	assert.ErrorIs(t, err, ErrLabelOutOfRange)

	assert.Equal(t, []float64{2, 1, 1}, d.Counts(Word))
	assert.Equal(t, []float64{2}, d.Counts(Label))
}

func TestOnlineVocabularyCap(t *testing.T) {
	cfg := testConfig()
	cfg.MaxVocabSize = 8
	text := "x x x t1 t2 t3 t4 t5 t6 t7 t8 t9 t10\n"
	d := build(t, cfg, text)

	assert.Equal(t, int32(0), d.ID("x"))
	assert.Equal(t, int32(-1), d.ID("t1"))
	assert.Equal(t, int32(-1), d.ID("t6"))
	assert.GreaterOrEqual(t, d.ID("t10"), int32(1))
	assert.Equal(t, int32(5), d.Size())
}

func TestDiscard(t *testing.T) {
	d := build(t, testConfig(), "a b a\nb b\n")

	for id := int32(0); id < d.NWords(); id++ {
		assert.False(t, d.Discard(id, 0, 1))
		assert.Equal(t, d.DiscardProbability(id) < 1, d.Discard(id, 1, 1))
		assert.Equal(t, d.Discard(id, 0.3, 1), d.Discard(id, 0.3, 1))
	}

	sup := config.DefaultSupervised()
	sup.MaxVocabSize = 100
	ds := build(t, sup, "a b a\n")
	assert.False(t, ds.Discard(0, 1, 0))
}

func TestSubwordStrings(t *testing.T) {
	d := build(t, testConfig(), "zz\n")

	ids, texts := d.SubwordStrings("abc")
	assert.Equal(t, []string{"<a", "<ab", "<abc", "ab", "abc", "abc>", "bc", "bc>", "c>"}, texts)
	require.Len(t, ids, len(texts))
	for i, txt := range texts {
		want := d.NWords() + int32(hash.Token(txt)%1000)
		assert.Equal(t, want, ids[i], txt)
	}

	assert.Equal(t, ids, d.Subwords("abc"))
}

func TestSubwordsInVocabularyMatchComputed(t *testing.T) {
	d := build(t, testConfig(), "hello world hello\n")
	id := d.ID("hello")
	require.GreaterOrEqual(t, id, int32(0))

	ids, texts := d.SubwordStrings("hello")
	assert.Equal(t, id, ids[0])
	assert.Equal(t, "hello", texts[0])

	cached := d.Subwords("hello")
	assert.Equal(t, id, cached[len(cached)-1])
	assert.Equal(t, ids[1:], cached[:len(cached)-1])
	assert.Equal(t, cached, d.SubwordsByID(id))
}

func TestSubwordsUTF8(t *testing.T) {
	cfg := testConfig()
	cfg.Minn, cfg.Maxn = 1, 1
	d := build(t, cfg, "x\n")

	_, texts := d.SubwordStrings("é")
	assert.Equal(t, []string{"é"}, texts)

	cfg.Minn, cfg.Maxn = 2, 3
	d = build(t, cfg, "x\n")
	_, texts = d.SubwordStrings("日本")
	assert.Equal(t, []string{"<日", "<日本", "日本", "日本>", "本>"}, texts)
}

func TestEOSHasNoNgrams(t *testing.T) {
	d := New(testConfig())
	d.Add(EOS, 1)
	d.Add("ab", 1)
	d.Threshold(1, 1)
	d.initNgrams()

	id := d.ID(EOS)
	assert.Equal(t, []int32{id}, d.SubwordsByID(id))
	assert.Greater(t, len(d.SubwordsByID(d.ID("ab"))), 1)
}

func TestAddWordNgrams(t *testing.T) {
	d := build(t, testConfig(), "a\n")
	hashes := []int32{int32(hash.Token("a")), int32(hash.Token("b")), int32(hash.Token("c"))}

	assert.Empty(t, d.AddWordNgrams(nil, hashes, 1))

	got := d.AddWordNgrams(nil, hashes, 2)
	require.Len(t, got, 2)
	h := hash.MixWordNgram(uint64(int64(hashes[0])), hashes[1])
	assert.Equal(t, d.NWords()+int32(h%1000), got[0])

	assert.Len(t, d.AddWordNgrams(nil, hashes, 3), 3)
}

func TestSupervisedLine(t *testing.T) {
	cfg := config.DefaultSupervised()
	cfg.MaxVocabSize = 100
	cfg.WordNgrams = 2
	cfg.Bucket = 1000
	d := build(t, cfg, "__label__pos hello world\n__label__neg hello\n")

	words, labels, n := d.SupervisedLine(strings.Fields("__label__neg hello world __label__unknown"), nil, nil)
	assert.Equal(t, 4, n)
	require.Len(t, words, 3)
	assert.Equal(t, d.ID("hello"), words[0])
	assert.Equal(t, d.ID("world"), words[1])
	assert.GreaterOrEqual(t, words[2], d.NWords())

	lid := d.ID("__label__neg") - d.NWords()
	assert.Equal(t, []int32{lid}, labels)
}

func TestUnsupervisedLine(t *testing.T) {
	cfg := testConfig()
	cfg.SamplingThreshold = 1
	d := build(t, cfg, "a b __label__c\n")

	rng := rand.New(rand.NewPCG(1, 2))
	words, n := d.UnsupervisedLine(strings.Fields("a zzz b __label__c"), rng, nil)
	assert.Equal(t, 3, n)
	assert.Equal(t, []int32{d.ID("a"), d.ID("b")}, words)
}

func TestPrune(t *testing.T) {
	d := build(t, testConfig(), "__label__l aa bb cc aa bb aa\n")
	require.Equal(t, int32(3), d.NWords())
	aa, cc := d.ID("aa"), d.ID("cc")
	nwords := d.NWords()

	ngram := d.SubwordsByID(cc)[0]
	out := d.Prune([]int32{cc, ngram, aa, ngram, -4})

	assert.Equal(t, []int32{aa, cc, ngram}, out)
	assert.True(t, d.IsPruned())
	assert.Equal(t, int32(2), d.NWords())
	assert.Equal(t, int32(1), d.NLabels())
	assert.Equal(t, int32(-1), d.ID("bb"))
	assert.Equal(t, int32(0), d.ID("aa"))
	assert.Equal(t, int32(1), d.ID("cc"))
	assert.Equal(t, int32(2), d.ID("__label__l"))
	assert.Equal(t, []int32{ngram - nwords}, d.Retained())

	for _, id := range d.SubwordsByID(d.ID("cc")) {
		assert.Less(t, id, d.NWords()+1)
	}

	var buf bytes.Buffer
	_, err := d.WriteTo(&buf)
	require.NoError(t, err)
	loaded, err := Read(&buf, testConfig())
	require.NoError(t, err)
	assert.True(t, loaded.IsPruned())
	assert.Equal(t, d.SubwordsByID(1), loaded.SubwordsByID(1))
	assert.Equal(t, d.Retained(), loaded.Retained())
}

func TestPruneDropsAllNgrams(t *testing.T) {
	d := build(t, testConfig(), "aa bb aa\n")
	d.Prune([]int32{d.ID("aa")})

	assert.True(t, d.IsPruned())
	assert.Nil(t, d.Retained())
	assert.Equal(t, []int32{0}, d.SubwordsByID(0))
	assert.Empty(t, d.Subwords("unseen"))
}

func TestReadCorrupt(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte{1, 2, 3}), testConfig())
	assert.Error(t, err)

	var buf bytes.Buffer
	d := build(t, testConfig(), "a\n")
	_, err = d.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.Bytes()
	raw[4] = 9
	_, err = Read(bytes.NewReader(raw), testConfig())
	assert.Error(t, err)
}

func TestDump(t *testing.T) {
	d := build(t, testConfig(), "__label__a x x\n")
	var buf bytes.Buffer
	require.NoError(t, d.Dump(&buf))
	assert.Equal(t, "2\nx 2 word\n__label__a 1 label\n", buf.String())
}
