package model

import (
	"errors"
	"math"
	"math/rand/v2"
)

// ErrTooFewClasses is returned when negative sampling has fewer than two
// classes to draw from.
var ErrTooFewClasses = errors.New("model: negative sampling needs at least two classes")

// NegativeSampler is a table of class ids where each class appears in
// proportion to the square root of its count. It is read-only after
// construction; each State keeps its own cursor into it.
type NegativeSampler struct {
	table []int32
}

// NewNegativeSampler fills a table of about size slots from counts and
// shuffles it with seed. Every class gets at least one slot.
func NewNegativeSampler(counts []float64, size int, seed uint64) (*NegativeSampler, error) {
	if len(counts) < 2 {
		return nil, ErrTooFewClasses
	}

	var z float64
	for _, c := range counts {
		z += math.Sqrt(c)
	}

	table := make([]int32, 0, size+len(counts))
	for i, c := range counts {
		n := int(math.Sqrt(c) * float64(size) / z)
		n = max(n, 1)
		for j := 0; j < n; j++ {
			table = append(table, int32(i))
		}
	}

	rng := rand.New(rand.NewPCG(seed, 0x6e6567)) //nolint:gosec // deterministic shuffle
	rng.Shuffle(len(table), func(i, j int) { table[i], table[j] = table[j], table[i] })

	return &NegativeSampler{table: table}, nil
}

// Len returns the number of slots.
func (ns *NegativeSampler) Len() int { return len(ns.table) }

// Next returns the class at *cursor, advancing and wrapping the cursor,
// and skips slots holding target.
func (ns *NegativeSampler) Next(target int32, cursor *int) int32 {
	for {
		neg := ns.table[*cursor]
		*cursor++
		if *cursor == len(ns.table) {
			*cursor = 0
		}
		if neg != target {
			return neg
		}
	}
}
