package subword

import (
	"log/slog"
	"time"

	"github.com/hupe1980/subword/codec"
	"github.com/hupe1980/subword/internal/compress"
	"github.com/hupe1980/subword/internal/linalg"
	"github.com/hupe1980/subword/internal/resource"
)

// Backend selects the linear-algebra kernels.
type Backend = linalg.Backend

const (
	// BackendGeneric is the portable pure Go backend.
	BackendGeneric = linalg.Generic
	// BackendBLAS is the gonum blas32 backend.
	BackendBLAS = linalg.BLAS
)

// Compression selects the block compressor of published models.
type Compression = compress.Algorithm

const (
	// CompressionNone stores model blobs uncompressed.
	CompressionNone = compress.None
	// CompressionLZ4 favors speed.
	CompressionLZ4 = compress.LZ4
	// CompressionZSTD favors ratio.
	CompressionZSTD = compress.ZSTD
)

// ResourceController bounds memory, concurrent jobs and IO throughput.
// Share one controller between models that draw from the same budget.
type ResourceController = resource.Controller

// ResourceLimits configures a ResourceController.
type ResourceLimits = resource.Config

// NewResourceController creates a controller for limits.
func NewResourceController(limits ResourceLimits) *ResourceController {
	return resource.NewController(limits)
}

// DefaultProgressInterval is the minimum time between training progress
// log lines.
const DefaultProgressInterval = time.Second

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	resources        *resource.Controller
	compression      compress.Algorithm
	backend          linalg.Backend
	backendSet       bool
	codec            codec.Codec
	progressInterval time.Duration
	vectorCacheBytes int64
}

// Option configures training, loading and publishing.
type Option func(*options)

func applyOptions(opts []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		compression:      compress.ZSTD,
		codec:            codec.Default,
		progressInterval: DefaultProgressInterval,
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func (o options) kernels() linalg.Kernels {
	if o.backendSet {
		return linalg.For(o.backend)
	}
	return linalg.Default()
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := subword.NewJSONLogger(slog.LevelInfo)
//	m, _ := subword.TrainFile(ctx, cfg, "train.txt", subword.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &subword.BasicMetricsCollector{}
//	m, _ := subword.TrainFile(ctx, cfg, "train.txt", subword.WithMetricsCollector(metrics))
//	fmt.Println(metrics.GetStats().Tokens)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithResourceController draws matrix memory, job slots and IO bandwidth
// from rc.
func WithResourceController(rc *ResourceController) Option {
	return func(o *options) {
		o.resources = rc
	}
}

// WithCompression sets the compressor used by Publish. Default: ZSTD.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithLinalgBackend forces a linear-algebra backend instead of the one
// detected at startup (or set through SUBWORD_LINALG).
func WithLinalgBackend(b Backend) Option {
	return func(o *options) {
		o.backend = b
		o.backendSet = true
	}
}

// WithCodec configures the codec of published manifests.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithProgressInterval sets the minimum time between training progress
// log lines. Default: one second.
func WithProgressInterval(d time.Duration) Option {
	return func(o *options) {
		o.progressInterval = d
	}
}

// WithVectorCache caches up to bytes of computed word vectors in an LRU.
// Cached bytes are charged to the resource controller. Zero disables
// the cache (the default).
func WithVectorCache(bytes int64) Option {
	return func(o *options) {
		o.vectorCacheBytes = bytes
	}
}
