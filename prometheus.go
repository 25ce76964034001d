package subword

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements MetricsCollector on top of
// prometheus/client_golang.
type PrometheusCollector struct {
	tokens   prometheus.Counter
	loss     prometheus.Gauge
	latency  *prometheus.HistogramVec
	quantize *prometheus.CounterVec
}

var _ MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheusCollector creates a collector and registers its metrics
// with reg. A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &PrometheusCollector{
		tokens: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "subword_train_tokens_total",
			Help: "Tokens processed by training workers",
		}),
		loss: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "subword_train_loss",
			Help: "Mean training loss at the last progress report",
		}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "subword_operation_latency_seconds",
			Help:    "Latency of model operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"op", "status"}),
		quantize: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "subword_quantize_total",
			Help: "Quantization runs",
		}, []string{"status"}),
	}

	for _, m := range []prometheus.Collector{c.tokens, c.loss, c.latency, c.quantize} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordExamples implements MetricsCollector.
func (c *PrometheusCollector) RecordExamples(tokens int64) {
	c.tokens.Add(float64(tokens))
}

// RecordLoss implements MetricsCollector.
func (c *PrometheusCollector) RecordLoss(loss float64) {
	c.loss.Set(loss)
}

// RecordPredict implements MetricsCollector.
func (c *PrometheusCollector) RecordPredict(_ int, d time.Duration, err error) {
	c.latency.WithLabelValues("predict", status(err)).Observe(d.Seconds())
}

// RecordQuantize implements MetricsCollector.
func (c *PrometheusCollector) RecordQuantize(d time.Duration, err error) {
	c.latency.WithLabelValues("quantize", status(err)).Observe(d.Seconds())
	c.quantize.WithLabelValues(status(err)).Inc()
}
