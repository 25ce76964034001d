package config

import (
	"io"

	"github.com/hupe1980/subword/persistence"
)

// WriteTo writes the fields that determine how a trained model is read:
// dim, ws, epoch, minCount, neg, wordNgrams, loss, model, bucket, minn,
// maxn, lrUpdateRate (int32), t (float64), followed by minCountLabel
// (int32), the nul-terminated label prefix and hasWeight (one byte).
func (c *Config) WriteTo(w io.Writer) (int64, error) {
	pw := persistence.NewWriter(w)
	start := pw.N()
	for _, v := range []int{c.Dim, c.WindowSize, c.Epoch, c.MinCount, c.Neg, c.WordNgrams} {
		pw.Int32(int32(v))
	}
	pw.Int32(int32(c.Loss))
	pw.Int32(int32(c.Model))
	for _, v := range []int{c.Bucket, c.Minn, c.Maxn, c.LRUpdateRate} {
		pw.Int32(int32(v))
	}
	pw.Float64(c.SamplingThreshold)
	pw.Int32(int32(c.MinCountLabel))
	pw.CString(c.Label)
	pw.Bool(c.HasWeight)
	return pw.N() - start, pw.Err()
}

// ReadFrom reads the fields written by WriteTo into c. Fields that are not
// persisted keep their current values.
func (c *Config) ReadFrom(r io.Reader) (int64, error) {
	pr := persistence.NewReader(r)
	start := pr.N()
	for _, p := range []*int{&c.Dim, &c.WindowSize, &c.Epoch, &c.MinCount, &c.Neg, &c.WordNgrams} {
		*p = int(pr.Int32())
	}
	c.Loss = LossKind(pr.Int32())
	c.Model = ModelKind(pr.Int32())
	for _, p := range []*int{&c.Bucket, &c.Minn, &c.Maxn, &c.LRUpdateRate} {
		*p = int(pr.Int32())
	}
	c.SamplingThreshold = pr.Float64()
	c.MinCountLabel = int(pr.Int32())
	c.Label = pr.CString()
	c.HasWeight = pr.Bool()
	return pr.N() - start, pr.Err()
}
