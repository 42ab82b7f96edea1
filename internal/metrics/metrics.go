// Package metrics records transcode runs and encode attempts in a
// Prometheus registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tendant/simple-image-transcoder/internal/encoder"
)

const namespace = "transcoder"

// Run status label values
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Collector holds the transcoder's metrics on a private registry
type Collector struct {
	registry *prometheus.Registry

	attempts     prometheus.Counter
	attemptBytes prometheus.Histogram
	runs         *prometheus.CounterVec
	runDuration  prometheus.Histogram
	finalQuality prometheus.Gauge
	outputBytes  prometheus.Gauge
	budgetUnmet  prometheus.Counter
}

// NewCollector creates a collector and registers its metrics
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "encode_attempts_total",
			Help:      "Number of JPEG encode attempts, including every rung of the quality ladder.",
		}),
		attemptBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "encode_attempt_bytes",
			Help:      "Encoded size of each attempt in bytes.",
			Buckets:   prometheus.ExponentialBuckets(1024, 2, 12),
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Number of transcode runs by status.",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a transcode run.",
			Buckets:   prometheus.DefBuckets,
		}),
		finalQuality: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "final_quality",
			Help:      "Quality of the last written artifact.",
		}),
		outputBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "output_bytes",
			Help:      "Encoded size of the last written artifact.",
		}),
		budgetUnmet: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "budget_unmet_total",
			Help:      "Runs whose artifact is still larger than the size budget.",
		}),
	}

	c.registry.MustRegister(
		c.attempts,
		c.attemptBytes,
		c.runs,
		c.runDuration,
		c.finalQuality,
		c.outputBytes,
		c.budgetUnmet,
	)

	return c
}

// ObserveAttempt implements encoder.Observer
func (c *Collector) ObserveAttempt(quality, size int) {
	c.attempts.Inc()
	c.attemptBytes.Observe(float64(size))
}

// ObserveArtifact records the artifact that was written
func (c *Collector) ObserveArtifact(artifact *encoder.Artifact) {
	c.finalQuality.Set(float64(artifact.Quality))
	c.outputBytes.Set(float64(artifact.Size))
	if !artifact.BudgetMet {
		c.budgetUnmet.Inc()
	}
}

// ObserveRun records the outcome and duration of a run
func (c *Collector) ObserveRun(status string, elapsed time.Duration) {
	c.runs.WithLabelValues(status).Inc()
	c.runDuration.Observe(elapsed.Seconds())
}

// Registry returns the registry holding the collector's metrics
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteTextfile writes the current metrics in the text exposition format,
// suitable for the node_exporter textfile collector
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}

var _ encoder.Observer = (*Collector)(nil)
