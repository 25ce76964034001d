package config

import (
	"fmt"
	"strings"
)

// ModelKind selects the training objective.
type ModelKind int32

const (
	// CBOW predicts a word from the mean of its context.
	CBOW ModelKind = 1
	// SkipGram predicts each context word from the center word.
	SkipGram ModelKind = 2
	// Supervised predicts the labels of a line from its words.
	Supervised ModelKind = 3
)

// String returns the name used in configuration files.
func (k ModelKind) String() string {
	switch k {
	case CBOW:
		return "cbow"
	case SkipGram:
		return "skipgram"
	case Supervised:
		return "supervised"
	default:
		return fmt.Sprintf("ModelKind(%d)", int32(k))
	}
}

// ParseModelKind parses a model name.
func ParseModelKind(s string) (ModelKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cbow":
		return CBOW, nil
	case "skipgram", "sg":
		return SkipGram, nil
	case "supervised", "sup":
		return Supervised, nil
	default:
		return 0, fmt.Errorf("unknown model %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k ModelKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ModelKind) UnmarshalText(b []byte) error {
	v, err := ParseModelKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// LossKind selects the output layer.
type LossKind int32

const (
	// HierarchicalSoftmax walks a Huffman tree over the output classes.
	HierarchicalSoftmax LossKind = 1
	// NegativeSampling contrasts the target with sampled negatives.
	NegativeSampling LossKind = 2
	// Softmax is the full softmax over all output classes.
	Softmax LossKind = 3
)

// String returns the name used in configuration files.
func (k LossKind) String() string {
	switch k {
	case HierarchicalSoftmax:
		return "hs"
	case NegativeSampling:
		return "ns"
	case Softmax:
		return "softmax"
	default:
		return fmt.Sprintf("LossKind(%d)", int32(k))
	}
}

// ParseLossKind parses a loss name.
func ParseLossKind(s string) (LossKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hs":
		return HierarchicalSoftmax, nil
	case "ns":
		return NegativeSampling, nil
	case "softmax":
		return Softmax, nil
	default:
		return 0, fmt.Errorf("unknown loss %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k LossKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *LossKind) UnmarshalText(b []byte) error {
	v, err := ParseLossKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}
