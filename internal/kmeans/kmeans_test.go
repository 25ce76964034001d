package kmeans

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/subword/internal/linalg"
)

var kern = linalg.For(linalg.Generic)

func TestTrain(t *testing.T) {
	// 2 clusters: (0,0) and (10,10)
	vecs := []float32{
		0, 0, 0, 1, 1, 0, // near 0,0
		10, 10, 10, 11, 11, 10, // near 10,10
	}
	centroids := make([]float32, 4)

	err := Train(context.Background(), vecs, 6, 2, centroids, Options{K: 2, Iterations: 10, Eps: 1e-7, Seed: 1}, kern)
	require.NoError(t, err)

	p1, _ := Assign([]float32{0.5, 0.5}, centroids, 2, kern)
	p2, _ := Assign([]float32{10.5, 10.5}, centroids, 2, kern)
	assert.NotEqual(t, p1, p2)

	near := centroids[int(p1)*2 : int(p1)*2+2]
	assert.InDelta(t, 1.0/3, near[0], 1e-5)
	assert.InDelta(t, 1.0/3, near[1], 1e-5)
}

func TestTrainDeterministic(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	vecs := make([]float32, 300*3)
	for i := range vecs {
		vecs[i] = rng.Float32()
	}

	a := make([]float32, 8*3)
	b := make([]float32, 8*3)
	opts := Options{K: 8, Iterations: 5, Eps: 1e-7, Seed: 9}
	require.NoError(t, Train(context.Background(), vecs, 300, 3, a, opts, kern))
	require.NoError(t, Train(context.Background(), vecs, 300, 3, b, opts, kern))
	assert.Equal(t, a, b)
}

func TestTrainErrors(t *testing.T) {
	ctx := context.Background()
	c := make([]float32, 4)

	err := Train(ctx, []float32{0, 0}, 1, 2, c, Options{K: 2, Iterations: 1}, kern)
	assert.ErrorIs(t, err, ErrTooFewPoints)

	err = Train(ctx, []float32{0, 0}, 1, 2, c, Options{K: 300, Iterations: 1}, kern)
	assert.ErrorIs(t, err, ErrTooManyClusters)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	err = Train(canceled, []float32{0, 0, 1, 1}, 2, 2, c, Options{K: 2, Iterations: 3}, kern)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMStepSplitsEmptyCluster(t *testing.T) {
	x := []float32{0, 0, 2, 2, 4, 4}
	codes := []uint8{0, 0, 0}
	centroids := make([]float32, 4)
	rng := rand.New(rand.NewPCG(1, 1))

	MStep(x, centroids, codes, 3, 2, 2, 0.5, rng)

	assert.Equal(t, []float32{2 + 0.5, 2 - 0.5}, centroids[0:2])
	assert.Equal(t, []float32{2 - 0.5, 2 + 0.5}, centroids[2:4])
}

func TestEstep(t *testing.T) {
	x := []float32{0, 0, 9, 9, 1, 0}
	centroids := []float32{0, 0, 10, 10}
	codes := make([]uint8, 3)
	Estep(x, centroids, codes, 3, 2, 2, kern)
	assert.Equal(t, []uint8{0, 1, 0}, codes)
}
