package subword_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/subword"
	"github.com/hupe1980/subword/blobstore"
)

func TestBasicMetricsCollector(t *testing.T) {
	mc := &subword.BasicMetricsCollector{}

	mc.RecordExamples(10)
	mc.RecordExamples(5)
	mc.RecordLoss(0.25)
	mc.RecordPredict(1, 2*time.Millisecond, nil)
	mc.RecordPredict(1, 4*time.Millisecond, errors.New("boom"))
	mc.RecordQuantize(time.Second, nil)

	stats := mc.GetStats()
	assert.Equal(t, int64(15), stats.Tokens)
	assert.InDelta(t, 0.25, stats.Loss, 1e-12)
	assert.Equal(t, int64(2), stats.PredictCount)
	assert.Equal(t, int64(1), stats.PredictErrors)
	assert.Equal(t, (3 * time.Millisecond).Nanoseconds(), stats.PredictAvgNanos)
	assert.Equal(t, int64(1), stats.QuantizeCount)
	assert.Zero(t, stats.QuantizeErrors)
}

func TestPredictRecordsMetrics(t *testing.T) {
	mc := &subword.BasicMetricsCollector{}
	text := supervisedCorpus()
	m := trainOn(t, supervisedConfig(), text, subword.WithMetricsCollector(mc))

	_, err := m.Predict(classLine(0), 1, 0)
	require.NoError(t, err)
	_, err = m.Predict(classLine(0), -1, 0)
	require.Error(t, err)

	stats := mc.GetStats()
	assert.Equal(t, int64(2), stats.PredictCount)
	assert.Equal(t, int64(1), stats.PredictErrors)
}

func TestPrometheusCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	pc, err := subword.NewPrometheusCollector(reg)
	require.NoError(t, err)

	text := supervisedCorpus()
	m := trainOn(t, supervisedConfig(), text, subword.WithMetricsCollector(pc))
	_, err = m.Predict(classLine(1), 1, 0)
	require.NoError(t, err)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	var (
		tokens    float64
		latencies int
	)
	for _, mf := range mfs {
		switch mf.GetName() {
		case "subword_train_tokens_total":
			tokens = mf.GetMetric()[0].GetCounter().GetValue()
		case "subword_operation_latency_seconds":
			latencies = len(mf.GetMetric())
			assert.Equal(t, uint64(1), mf.GetMetric()[0].GetHistogram().GetSampleCount())
		}
	}
	assert.GreaterOrEqual(t, tokens, float64(m.NTokens()))
	assert.Equal(t, 1, latencies)

	// A second collector on the same registry collides.
	_, err = subword.NewPrometheusCollector(reg)
	assert.Error(t, err)
}

func TestLoggerWritesTrainingEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := subword.NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	text := supervisedCorpus()
	m := trainOn(t, supervisedConfig(), text,
		subword.WithLogger(logger),
		subword.WithProgressInterval(time.Nanosecond))

	out := buf.String()
	assert.Contains(t, out, `"model":"supervised"`)
	assert.Contains(t, out, `"msg":"vocabulary built"`)
	assert.Contains(t, out, `"msg":"training"`)
	assert.Contains(t, out, `"msg":"training completed"`)

	buf.Reset()
	_, err := m.Publish(context.Background(), blobstore.NewMemoryStore(), "clf")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"msg":"model published"`)
	assert.Contains(t, buf.String(), `"blob":"clf/model-000001.bin"`)
}
