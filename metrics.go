package subword

import (
	"math"
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; see
// PrometheusCollector for a ready-made one.
type MetricsCollector interface {
	// RecordExamples is called by training workers as they process
	// batches of tokens.
	RecordExamples(tokens int64)

	// RecordLoss is called with the mean training loss whenever progress
	// is reported and once at the end of training.
	RecordLoss(loss float64)

	// RecordPredict is called after each prediction.
	// k is the number of classes requested, err is nil if successful.
	RecordPredict(k int, duration time.Duration, err error)

	// RecordQuantize is called after each quantization run.
	RecordQuantize(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordExamples(int64)                    {}
func (NoopMetricsCollector) RecordLoss(float64)                      {}
func (NoopMetricsCollector) RecordPredict(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordQuantize(time.Duration, error)     {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	Tokens            atomic.Int64
	LossBits          atomic.Uint64
	PredictCount      atomic.Int64
	PredictErrors     atomic.Int64
	PredictTotalNanos atomic.Int64
	QuantizeCount     atomic.Int64
	QuantizeErrors    atomic.Int64
}

// RecordExamples implements MetricsCollector.
func (b *BasicMetricsCollector) RecordExamples(tokens int64) {
	b.Tokens.Add(tokens)
}

// RecordLoss implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoss(loss float64) {
	b.LossBits.Store(math.Float64bits(loss))
}

// RecordPredict implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPredict(k int, duration time.Duration, err error) {
	b.PredictCount.Add(1)
	b.PredictTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.PredictErrors.Add(1)
	}
}

// RecordQuantize implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuantize(duration time.Duration, err error) {
	b.QuantizeCount.Add(1)
	if err != nil {
		b.QuantizeErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		Tokens:          b.Tokens.Load(),
		Loss:            math.Float64frombits(b.LossBits.Load()),
		PredictCount:    b.PredictCount.Load(),
		PredictErrors:   b.PredictErrors.Load(),
		PredictAvgNanos: b.getAvgPredictNanos(),
		QuantizeCount:   b.QuantizeCount.Load(),
		QuantizeErrors:  b.QuantizeErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgPredictNanos() int64 {
	count := b.PredictCount.Load()
	if count == 0 {
		return 0
	}
	return b.PredictTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	Tokens          int64
	Loss            float64
	PredictCount    int64
	PredictErrors   int64
	PredictAvgNanos int64
	QuantizeCount   int64
	QuantizeErrors  int64
}
