package model

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/hupe1980/subword/config"
	"github.com/hupe1980/subword/internal/linalg"
)

// ErrInvalidK is returned when Predict is asked for k <= 0 results.
var ErrInvalidK = errors.New("model: k must be positive")

// ErrQuantized is returned when a quantized model is asked to train.
var ErrQuantized = errors.New("model: cannot update a quantized model")

// Rows is the read path of an embedding or output matrix. Dense matrices
// and quantized matrices both implement it.
type Rows interface {
	Rows() int
	// DotRow returns dot(row i, vec).
	DotRow(vec []float32, i int) (float32, error)
	// AddRowTo computes dst += a*row i.
	AddRowTo(dst []float32, i int, a float32)
}

var _ Rows = (*linalg.Matrix)(nil)

// Model is the shared part of the network.
type Model struct {
	loss      config.LossKind
	kind      config.ModelKind
	neg       int
	wi, wo    *linalg.Matrix
	in, out   Rows
	quantized bool
	hsz, osz  int

	tree    *SoftmaxTree
	sampler *NegativeSampler
	tables  *Tables
}

// New creates a model over input matrix wi and output matrix wo. counts
// are the frequencies of the output classes (labels for supervised
// models, words otherwise); they size and shape the output layer.
func New(wi, wo *linalg.Matrix, cfg config.Config, counts []float64) (*Model, error) {
	m := &Model{
		loss:   cfg.Loss,
		kind:   cfg.Model,
		neg:    cfg.Neg,
		wi:     wi,
		wo:     wo,
		in:     wi,
		out:    wo,
		hsz:    cfg.Dim,
		osz:    len(counts),
		tables: NewTables(cfg.SigmoidTableSize, cfg.LogTableSize),
	}

	switch cfg.Loss {
	case config.HierarchicalSoftmax:
		m.tree = BuildTree(counts)
		if wo != nil && wo.Rows() < m.tree.OutputRows() {
			return nil, fmt.Errorf("model: output matrix has %d rows, tree needs %d", wo.Rows(), m.tree.OutputRows())
		}
	case config.NegativeSampling:
		s, err := NewNegativeSampler(counts, cfg.NegativeTableSize, cfg.Seed)
		if err != nil {
			return nil, err
		}
		m.sampler = s
	}
	if wi != nil && wi.Cols() != m.hsz {
		return nil, fmt.Errorf("model: input matrix has %d columns, want %d", wi.Cols(), m.hsz)
	}
	return m, nil
}

// OutputRows returns the number of output matrix rows needed for osz
// classes under loss.
func OutputRows(loss config.LossKind, osz int) int {
	if loss == config.HierarchicalSoftmax && osz > 0 {
		return osz - 1
	}
	return osz
}

// SetQuantized installs quantized read paths. A nil out keeps the dense
// output matrix.
func (m *Model) SetQuantized(in, out Rows) {
	m.in = in
	if out != nil {
		m.out = out
	}
	m.quantized = true
}

// IsQuantized reports whether quantized read paths are installed.
func (m *Model) IsQuantized() bool { return m.quantized }

// Input returns the dense input matrix.
func (m *Model) Input() *linalg.Matrix { return m.wi }

// Output returns the dense output matrix.
func (m *Model) Output() *linalg.Matrix { return m.wo }

// OutputSize returns the number of output classes.
func (m *Model) OutputSize() int { return m.osz }

// Tree returns the softmax tree, or nil unless the loss is hs.
func (m *Model) Tree() *SoftmaxTree { return m.tree }

// Tables returns the sigmoid and log lookup tables.
func (m *Model) Tables() *Tables { return m.tables }

// State is the private scratch space of one worker.
type State struct {
	hidden    *linalg.Vector
	output    *linalg.Vector
	grad      *linalg.Vector
	rng       *rand.Rand
	negPos    int
	loss      float64
	nexamples int64
}

// NewState creates worker scratch space with a random stream seeded by seed.
func (m *Model) NewState(seed uint64) *State {
	k := linalg.Default()
	if m.wi != nil {
		k = m.wi.Kernels()
	}
	return &State{
		hidden: linalg.NewVectorWith(m.hsz, k),
		output: linalg.NewVectorWith(m.osz, k),
		grad:   linalg.NewVectorWith(m.hsz, k),
		rng:    rand.New(rand.NewPCG(seed, 0x73746174)), //nolint:gosec // training randomness
	}
}

// Rand returns the random stream of the state.
func (s *State) Rand() *rand.Rand { return s.rng }

// Loss returns the mean loss over the examples seen so far.
func (s *State) Loss() float64 {
	if s.nexamples == 0 {
		return 0
	}
	return s.loss / float64(s.nexamples)
}

// Examples returns the number of examples seen.
func (s *State) Examples() int64 { return s.nexamples }

// Hidden returns the hidden vector of the last computation.
func (s *State) Hidden() []float32 { return s.hidden.Data() }

// ComputeHidden sets hidden to the mean input row of ids.
func (m *Model) ComputeHidden(ids []int32, hidden *linalg.Vector) {
	hidden.Zero()
	dst := hidden.Data()
	for _, id := range ids {
		m.in.AddRowTo(dst, int(id), 1)
	}
	if len(ids) > 0 {
		hidden.Mul(1 / float32(len(ids)))
	}
}

// Update runs one forward and backward pass of example ids -> target with
// learning rate lr and applies the gradient to the input rows.
func (m *Model) Update(s *State, ids []int32, target int32, lr float32) error {
	if len(ids) == 0 {
		return nil
	}
	if m.quantized {
		return ErrQuantized
	}

	m.ComputeHidden(ids, s.hidden)
	s.grad.Zero()

	var (
		l   float32
		err error
	)
	switch m.loss {
	case config.NegativeSampling:
		l, err = m.negativeSampling(s, target, lr)
	case config.HierarchicalSoftmax:
		l, err = m.hierarchicalSoftmax(s, target, lr)
	default:
		l, err = m.softmax(s, target, lr)
	}
	if err != nil {
		return err
	}
	s.loss += float64(l)
	s.nexamples++

	if m.kind == config.Supervised {
		s.grad.Mul(1 / float32(len(ids)))
	}
	g := s.grad.Data()
	for _, id := range ids {
		m.wi.AddRow(g, int(id), 1)
	}
	return nil
}
