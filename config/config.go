package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gojson "github.com/goccy/go-json"
	"go.yaml.in/yaml/v3"
)

// Config holds every training, dictionary and quantization parameter.
type Config struct {
	// Model is the training objective.
	Model ModelKind `json:"model" yaml:"model"`
	// Loss is the output layer.
	Loss LossKind `json:"loss" yaml:"loss"`

	// Dim is the embedding dimension.
	Dim int `json:"dim" yaml:"dim"`
	// WindowSize is the maximum context window for cbow and skipgram.
	WindowSize int `json:"ws" yaml:"ws"`
	// Epoch is the number of passes over the corpus.
	Epoch int `json:"epoch" yaml:"epoch"`
	// LR is the initial learning rate.
	LR float64 `json:"lr" yaml:"lr"`
	// LRUpdateRate is the number of tokens between learning rate updates.
	LRUpdateRate int `json:"lrUpdateRate" yaml:"lrUpdateRate"`
	// Neg is the number of negatives sampled per positive.
	Neg int `json:"neg" yaml:"neg"`
	// Thread is the number of training workers.
	Thread int `json:"thread" yaml:"thread"`
	// Seed seeds worker random streams and matrix initialization.
	Seed uint64 `json:"seed" yaml:"seed"`

	// MinCount is the minimum number of occurrences of a word.
	MinCount int `json:"minCount" yaml:"minCount"`
	// MinCountLabel is the minimum number of occurrences of a label.
	MinCountLabel int `json:"minCountLabel" yaml:"minCountLabel"`
	// WordNgrams is the maximum length of word n-grams.
	WordNgrams int `json:"wordNgrams" yaml:"wordNgrams"`
	// Bucket is the number of hash buckets for word and character n-grams.
	Bucket int `json:"bucket" yaml:"bucket"`
	// Minn is the minimum character n-gram length.
	Minn int `json:"minn" yaml:"minn"`
	// Maxn is the maximum character n-gram length.
	Maxn int `json:"maxn" yaml:"maxn"`
	// SamplingThreshold is the subsampling target frequency t.
	SamplingThreshold float64 `json:"t" yaml:"t"`
	// Label is the prefix that marks a token as a label.
	Label string `json:"label" yaml:"label"`
	// HasWeight makes every line start with a float weight.
	HasWeight bool `json:"hasWeight" yaml:"hasWeight"`
	// MaxVocabSize is the capacity of the dictionary index during the build pass.
	MaxVocabSize int `json:"maxVocabSize" yaml:"maxVocabSize"`

	// NegativeTableSize is the number of slots in the negative sampling table.
	NegativeTableSize int `json:"negativeTableSize" yaml:"negativeTableSize"`
	// SigmoidTableSize is the resolution of the sigmoid lookup table.
	SigmoidTableSize int `json:"sigmoidTableSize" yaml:"sigmoidTableSize"`
	// LogTableSize is the resolution of the log lookup table.
	LogTableSize int `json:"logTableSize" yaml:"logTableSize"`

	// DSub is the sub-vector size used by product quantization.
	DSub int `json:"dsub" yaml:"dsub"`
	// QNorm quantizes row norms separately.
	QNorm bool `json:"qnorm" yaml:"qnorm"`
	// QOut quantizes the output matrix too.
	QOut bool `json:"qout" yaml:"qout"`
	// Cutoff keeps only the Cutoff input rows of largest norm before quantizing.
	Cutoff int `json:"cutoff" yaml:"cutoff"`
	// Retrain fine-tunes the pruned embeddings before quantizing.
	Retrain bool `json:"retrain" yaml:"retrain"`

	// Verbose controls progress logging (0 silent, 1 summary, 2 progress).
	Verbose int `json:"verbose" yaml:"verbose"`
}

// Default returns the defaults for unsupervised (skipgram) training.
func Default() Config {
	return Config{
		Model:             SkipGram,
		Loss:              NegativeSampling,
		Dim:               100,
		WindowSize:        5,
		Epoch:             5,
		LR:                0.05,
		LRUpdateRate:      100,
		Neg:               5,
		Thread:            12,
		Seed:              0,
		MinCount:          5,
		MinCountLabel:     0,
		WordNgrams:        1,
		Bucket:            2000000,
		Minn:              3,
		Maxn:              6,
		SamplingThreshold: 1e-4,
		Label:             "__label__",
		MaxVocabSize:      30000000,
		NegativeTableSize: 10000000,
		SigmoidTableSize:  512,
		LogTableSize:      512,
		DSub:              2,
		Verbose:           2,
	}
}

// DefaultSupervised returns the defaults for text classification.
func DefaultSupervised() Config {
	c := Default()
	c.Model = Supervised
	c.Loss = Softmax
	c.MinCount = 1
	c.Minn = 0
	c.Maxn = 0
	c.LR = 0.1
	return c
}

// ValidationError reports an invalid configuration field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config field %s: %s", e.Field, e.Reason)
}

// Validate checks field ranges and combinations.
func (c *Config) Validate() error {
	positive := []struct {
		name string
		v    int
	}{
		{"dim", c.Dim},
		{"ws", c.WindowSize},
		{"epoch", c.Epoch},
		{"lrUpdateRate", c.LRUpdateRate},
		{"thread", c.Thread},
		{"wordNgrams", c.WordNgrams},
		{"maxVocabSize", c.MaxVocabSize},
		{"negativeTableSize", c.NegativeTableSize},
		{"sigmoidTableSize", c.SigmoidTableSize},
		{"logTableSize", c.LogTableSize},
		{"dsub", c.DSub},
	}
	for _, p := range positive {
		if p.v <= 0 {
			return &ValidationError{Field: p.name, Reason: "must be positive"}
		}
	}

	switch c.Model {
	case CBOW, SkipGram, Supervised:
	default:
		return &ValidationError{Field: "model", Reason: c.Model.String()}
	}
	switch c.Loss {
	case HierarchicalSoftmax, NegativeSampling, Softmax:
	default:
		return &ValidationError{Field: "loss", Reason: c.Loss.String()}
	}

	if c.LR <= 0 {
		return &ValidationError{Field: "lr", Reason: "must be positive"}
	}
	if c.Neg < 0 || (c.Loss == NegativeSampling && c.Neg == 0) {
		return &ValidationError{Field: "neg", Reason: "must be positive for ns loss"}
	}
	if c.MinCount < 0 || c.MinCountLabel < 0 {
		return &ValidationError{Field: "minCount", Reason: "must not be negative"}
	}
	if c.Bucket < 0 {
		return &ValidationError{Field: "bucket", Reason: "must not be negative"}
	}
	if c.Minn < 0 || c.Maxn < 0 {
		return &ValidationError{Field: "minn", Reason: "must not be negative"}
	}
	if c.Maxn > 0 && c.Minn > c.Maxn {
		return &ValidationError{Field: "minn", Reason: "must not exceed maxn"}
	}
	if c.SamplingThreshold <= 0 {
		return &ValidationError{Field: "t", Reason: "must be positive"}
	}
	if c.Label == "" {
		return &ValidationError{Field: "label", Reason: "must not be empty"}
	}
	if c.Cutoff < 0 {
		return &ValidationError{Field: "cutoff", Reason: "must not be negative"}
	}

	return nil
}

// Load reads a configuration file on top of Default. Files ending in .yaml
// or .yml are parsed as YAML, everything else as JSON.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	c := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &c)
	default:
		err = gojson.Unmarshal(data, &c)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
