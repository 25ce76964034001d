package quantization

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/subword/internal/kmeans"
	"github.com/hupe1980/subword/internal/linalg"
	"github.com/hupe1980/subword/persistence"
)

const (
	// NBits is the code width of one sub-vector.
	NBits = 8
	// KSub is the number of centroids per sub-space.
	KSub = 1 << NBits
	// MaxPointsPerCluster bounds the training sample per centroid.
	MaxPointsPerCluster = 256
	// MaxPoints bounds the number of rows sampled per sub-space.
	MaxPoints = MaxPointsPerCluster * KSub
	// DefaultSeed seeds codebook training.
	DefaultSeed = 1234
	// Iterations is the number of k-means rounds per sub-space.
	Iterations = 25
	// Eps perturbs centroids split into empty clusters.
	Eps = 1e-7
)

var (
	// ErrTooFewRows is returned when training on fewer than KSub rows.
	ErrTooFewRows = fmt.Errorf("quantization: matrix too small, need at least %d rows", KSub)
	// ErrDimensionMismatch is returned when a vector does not match the quantizer.
	ErrDimensionMismatch = errors.New("quantization: dimension mismatch")
)

// RowSource is a read-only view of a row-major matrix.
type RowSource interface {
	Rows() int
	Row(i int) []float32
}

var _ RowSource = (*linalg.Matrix)(nil)

// ProductQuantizer learns one codebook per sub-space.
type ProductQuantizer struct {
	dim       int
	nsubq     int
	dsub      int
	lastdsub  int
	centroids []float32
	seed      uint64
	k         linalg.Kernels
}

// NewProductQuantizer creates an untrained quantizer for vectors of
// dimension dim split into sub-vectors of dsub dimensions.
func NewProductQuantizer(dim, dsub int) *ProductQuantizer {
	if dsub <= 0 {
		dsub = 1
	}
	nsubq := dim / dsub
	lastdsub := dim % dsub
	if lastdsub == 0 {
		lastdsub = dsub
	} else {
		nsubq++
	}
	return &ProductQuantizer{
		dim:       dim,
		nsubq:     nsubq,
		dsub:      dsub,
		lastdsub:  lastdsub,
		centroids: make([]float32, dim*KSub),
		seed:      DefaultSeed,
		k:         linalg.Default(),
	}
}

// Dim returns the vector dimension.
func (pq *ProductQuantizer) Dim() int { return pq.dim }

// NSubQ returns the number of sub-quantizers, which is also the code size.
func (pq *ProductQuantizer) NSubQ() int { return pq.nsubq }

// DSub returns the sub-vector dimension.
func (pq *ProductQuantizer) DSub() int { return pq.dsub }

// LastDSub returns the dimension of the last sub-vector.
func (pq *ProductQuantizer) LastDSub() int { return pq.lastdsub }

func (pq *ProductQuantizer) subDim(m int) int {
	if m == pq.nsubq-1 {
		return pq.lastdsub
	}
	return pq.dsub
}

// Centroid returns centroid i of sub-space m.
func (pq *ProductQuantizer) Centroid(m int, i uint8) []float32 {
	if m == pq.nsubq-1 {
		off := m*KSub*pq.dsub + int(i)*pq.lastdsub
		return pq.centroids[off : off+pq.lastdsub]
	}
	off := (m*KSub + int(i)) * pq.dsub
	return pq.centroids[off : off+pq.dsub]
}

func (pq *ProductQuantizer) codebook(m int) []float32 {
	off := m * KSub * pq.dsub
	return pq.centroids[off : off+KSub*pq.subDim(m)]
}

// Train learns the codebooks from the rows of x. Sub-spaces are trained
// concurrently, each on its own sample of at most MaxPoints rows.
func (pq *ProductQuantizer) Train(ctx context.Context, x RowSource) error {
	n := x.Rows()
	if n < KSub {
		return fmt.Errorf("%w: got %d", ErrTooFewRows, n)
	}
	np := min(n, MaxPoints)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for m := 0; m < pq.nsubq; m++ {
		g.Go(func() error {
			d := pq.subDim(m)
			seed := pq.seed + uint64(m)
			perm := make([]int, n)
			for i := range perm {
				perm[i] = i
			}
			if np != n {
				rng := rand.New(rand.NewPCG(seed, 0x7065726d)) //nolint:gosec // deterministic sampling
				rng.Shuffle(n, func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })
			}
			xs := make([]float32, np*d)
			for j := 0; j < np; j++ {
				row := x.Row(perm[j])
				copy(xs[j*d:(j+1)*d], row[m*pq.dsub:m*pq.dsub+d])
			}
			return kmeans.Train(gctx, xs, np, d, pq.codebook(m), kmeans.Options{
				K:          KSub,
				Iterations: Iterations,
				Eps:        Eps,
				Seed:       seed,
			}, pq.k)
		})
	}
	return g.Wait()
}

// ComputeCode writes the nsubq-byte code of x into code.
func (pq *ProductQuantizer) ComputeCode(x []float32, code []uint8) {
	for m := 0; m < pq.nsubq; m++ {
		d := pq.subDim(m)
		code[m], _ = kmeans.Assign(x[m*pq.dsub:m*pq.dsub+d], pq.codebook(m), KSub, pq.k)
	}
}

// ComputeCodes encodes every row of x into codes, nsubq bytes per row.
func (pq *ProductQuantizer) ComputeCodes(x RowSource, codes []uint8) {
	for i := 0; i < x.Rows(); i++ {
		pq.ComputeCode(x.Row(i), codes[i*pq.nsubq:(i+1)*pq.nsubq])
	}
}

// MulCode returns alpha * dot(x, decode(codes row t)).
func (pq *ProductQuantizer) MulCode(x []float32, codes []uint8, t int, alpha float32) float32 {
	var res float32
	code := codes[pq.nsubq*t : pq.nsubq*(t+1)]
	for m := 0; m < pq.nsubq; m++ {
		c := pq.Centroid(m, code[m])
		xs := x[m*pq.dsub : m*pq.dsub+len(c)]
		for n, v := range c {
			res += xs[n] * v
		}
	}
	return res * alpha
}

// AddCode adds alpha * decode(codes row t) to x.
func (pq *ProductQuantizer) AddCode(x []float32, codes []uint8, t int, alpha float32) {
	code := codes[pq.nsubq*t : pq.nsubq*(t+1)]
	for m := 0; m < pq.nsubq; m++ {
		c := pq.Centroid(m, code[m])
		xs := x[m*pq.dsub : m*pq.dsub+len(c)]
		for n, v := range c {
			xs[n] += alpha * v
		}
	}
}

// Decode reconstructs row t of codes into dst.
func (pq *ProductQuantizer) Decode(dst []float32, codes []uint8, t int) {
	clear(dst[:pq.dim])
	pq.AddCode(dst, codes, t, 1)
}

// WriteTo writes dim, nsubq, dsub, lastdsub (int32) and the centroids.
func (pq *ProductQuantizer) WriteTo(w io.Writer) (int64, error) {
	pw := persistence.NewWriter(w)
	start := pw.N()
	pw.Int32(int32(pq.dim))
	pw.Int32(int32(pq.nsubq))
	pw.Int32(int32(pq.dsub))
	pw.Int32(int32(pq.lastdsub))
	pw.Float32Slice(pq.centroids)
	return pw.N() - start, pw.Err()
}

// ReadProductQuantizer reads a quantizer written by WriteTo.
func ReadProductQuantizer(r io.Reader) (*ProductQuantizer, error) {
	pr := persistence.NewReader(r)
	dim := int(pr.Int32())
	nsubq := int(pr.Int32())
	dsub := int(pr.Int32())
	lastdsub := int(pr.Int32())
	if err := pr.Err(); err != nil {
		return nil, err
	}
	if dim <= 0 || dsub <= 0 || nsubq <= 0 || lastdsub <= 0 || lastdsub > dsub ||
		(nsubq-1)*dsub+lastdsub != dim {
		return nil, fmt.Errorf("quantization: invalid quantizer header dim=%d nsubq=%d dsub=%d lastdsub=%d",
			dim, nsubq, dsub, lastdsub)
	}
	pq := &ProductQuantizer{
		dim:       dim,
		nsubq:     nsubq,
		dsub:      dsub,
		lastdsub:  lastdsub,
		centroids: make([]float32, dim*KSub),
		seed:      DefaultSeed,
		k:         linalg.Default(),
	}
	pr.Float32Slice(pq.centroids)
	if err := pr.Err(); err != nil {
		return nil, err
	}
	return pq, nil
}
