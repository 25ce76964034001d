package subword

import (
	"errors"
	"fmt"

	"github.com/hupe1980/subword/blobstore"
	"github.com/hupe1980/subword/config"
	"github.com/hupe1980/subword/internal/corpus"
	"github.com/hupe1980/subword/internal/dictionary"
	"github.com/hupe1980/subword/internal/linalg"
	"github.com/hupe1980/subword/internal/model"
	"github.com/hupe1980/subword/internal/quantization"
	"github.com/hupe1980/subword/internal/resource"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")
	// ErrEmptyVocabulary is returned when no word survives the count thresholds.
	ErrEmptyVocabulary = errors.New("empty vocabulary")
	// ErrEmptyCorpus is returned when the training input has no bytes.
	ErrEmptyCorpus = errors.New("empty training corpus")
	// ErrDiverged is returned when training produces NaN values. A lower
	// learning rate usually helps.
	ErrDiverged = errors.New("training diverged, try a lower learning rate")
	// ErrNotSupervised is returned by operations that need a supervised model.
	ErrNotSupervised = errors.New("model is not supervised")
	// ErrQuantized is returned by operations that need dense matrices.
	ErrQuantized = errors.New("model is quantized")
	// ErrTooFewRows is returned when a matrix has fewer rows than the
	// quantizer has centroids.
	ErrTooFewRows = errors.New("too few rows to quantize")
	// ErrInvalidModel is returned for a model stream with a wrong magic
	// number, an unsupported version or an inconsistent layout.
	ErrInvalidModel = errors.New("invalid model file")
	// ErrNotFound is returned when a published model does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConcurrentModification is returned when another publisher moved
	// the CURRENT pointer first.
	ErrConcurrentModification = errors.New("concurrent modification")
	// ErrMemoryLimitExceeded is returned when the matrices of a model do
	// not fit the configured memory limit.
	ErrMemoryLimitExceeded = errors.New("memory limit exceeded")
	// ErrClosed is returned when a closed model is used.
	ErrClosed = errors.New("model is closed")
)

// ErrDimensionMismatch indicates a vector dimensionality mismatch.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrInvalidConfig indicates an invalid configuration field.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrInvalidConfig struct {
	Field string
	cause error
}

func (e *ErrInvalidConfig) Error() string {
	return fmt.Sprintf("invalid config: %v", e.cause)
}

func (e *ErrInvalidConfig) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var ve *config.ValidationError
	if errors.As(err, &ve) {
		return &ErrInvalidConfig{Field: ve.Field, cause: err}
	}
	if errors.Is(err, quantization.ErrDimensionMismatch) {
		return &ErrDimensionMismatch{cause: err}
	}

	sentinels := []struct {
		internal error
		public   error
	}{
		{linalg.ErrNaN, ErrDiverged},
		{dictionary.ErrEmptyVocabulary, ErrEmptyVocabulary},
		{corpus.ErrEmptyCorpus, ErrEmptyCorpus},
		{model.ErrInvalidK, ErrInvalidK},
		{model.ErrQuantized, ErrQuantized},
		{quantization.ErrTooFewRows, ErrTooFewRows},
		{blobstore.ErrNotFound, ErrNotFound},
		{blobstore.ErrConcurrentModification, ErrConcurrentModification},
		{resource.ErrMemoryLimitExceeded, ErrMemoryLimitExceeded},
	}
	for _, s := range sentinels {
		if errors.Is(err, s.internal) && !errors.Is(err, s.public) {
			return fmt.Errorf("%w: %w", s.public, err)
		}
	}

	return err
}
