package kmeans

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/hupe1980/subword/internal/linalg"
)

// MaxClusters is the largest K whose assignments fit in a byte.
const MaxClusters = 256

var (
	// ErrTooFewPoints is returned when there are fewer points than clusters.
	ErrTooFewPoints = errors.New("kmeans: fewer points than clusters")
	// ErrTooManyClusters is returned when K exceeds MaxClusters.
	ErrTooManyClusters = errors.New("kmeans: too many clusters")
)

// Options configures Train.
type Options struct {
	// K is the number of clusters.
	K int
	// Iterations is the number of E/M rounds.
	Iterations int
	// Eps is the perturbation applied when an empty cluster is split.
	Eps float32
	// Seed seeds initialization and empty-cluster splits.
	Seed uint64
}

// Train clusters the n points of dimension d stored row-major in x and
// writes opts.K centroids of dimension d into centroids.
func Train(ctx context.Context, x []float32, n, d int, centroids []float32, opts Options, k linalg.Kernels) error {
	if opts.K <= 0 || opts.K > MaxClusters {
		return fmt.Errorf("%w: %d", ErrTooManyClusters, opts.K)
	}
	if n < opts.K {
		return fmt.Errorf("%w: %d points for %d clusters", ErrTooFewPoints, n, opts.K)
	}
	if len(x) < n*d || len(centroids) < opts.K*d {
		return fmt.Errorf("kmeans: buffers too small for %d points and %d clusters of dimension %d", n, opts.K, d)
	}

	rng := rand.New(rand.NewPCG(opts.Seed, 0x6b6d65616e73)) //nolint:gosec // deterministic clustering
	perm := rng.Perm(n)
	for i := 0; i < opts.K; i++ {
		copy(centroids[i*d:(i+1)*d], x[perm[i]*d:(perm[i]+1)*d])
	}

	codes := make([]uint8, n)
	for it := 0; it < opts.Iterations; it++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		Estep(x, centroids, codes, n, d, opts.K, k)
		MStep(x, centroids, codes, n, d, opts.K, opts.Eps, rng)
	}
	return nil
}

// Assign returns the index of the centroid nearest to v among the k
// centroids of dimension len(v), with its squared distance.
func Assign(v, centroids []float32, k int, kern linalg.Kernels) (uint8, float32) {
	d := len(v)
	best := uint8(0)
	bestDist := float32(math.MaxFloat32)
	for j := 0; j < k; j++ {
		dist := kern.SquaredL2(v, centroids[j*d:(j+1)*d])
		if dist < bestDist {
			best, bestDist = uint8(j), dist
		}
	}
	return best, bestDist
}

// Estep assigns each point to its nearest centroid.
func Estep(x, centroids []float32, codes []uint8, n, d, k int, kern linalg.Kernels) {
	for i := 0; i < n; i++ {
		codes[i], _ = Assign(x[i*d:(i+1)*d], centroids, k, kern)
	}
}

// MStep moves each centroid to the mean of its points and splits a
// populated cluster into every empty one.
func MStep(x, centroids []float32, codes []uint8, n, d, k int, eps float32, rng *rand.Rand) {
	clear(centroids[:k*d])
	nelts := make([]int, k)
	for i := 0; i < n; i++ {
		c := int(codes[i])
		row := centroids[c*d : (c+1)*d]
		for j, v := range x[i*d : (i+1)*d] {
			row[j] += v
		}
		nelts[c]++
	}

	for c := 0; c < k; c++ {
		if nelts[c] == 0 {
			continue
		}
		z := float32(nelts[c])
		row := centroids[c*d : (c+1)*d]
		for j := range row {
			row[j] /= z
		}
	}

	for c := 0; c < k; c++ {
		if nelts[c] != 0 {
			continue
		}
		m := 0
		for rng.Float64()*float64(n-k) >= float64(nelts[m]-1) {
			m = (m + 1) % k
		}
		copy(centroids[c*d:(c+1)*d], centroids[m*d:(m+1)*d])
		for j := 0; j < d; j++ {
			sign := float32((j%2)*2 - 1)
			centroids[c*d+j] += sign * eps
			centroids[m*d+j] -= sign * eps
		}
		nelts[c] = nelts[m] / 2
		nelts[m] -= nelts[c]
	}
}
